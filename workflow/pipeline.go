package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/papercrew/papercrew/crew"
)

// StageStatus 是阶段事件中的状态.
type StageStatus string

const (
	StageStarted   StageStatus = "started"
	StageCompleted StageStatus = "completed"
	StageFailed    StageStatus = "failed"
	StageSkipped   StageStatus = "skipped"
)

// StageEvent 在阶段状态变化时发出, Progress 为 0..1 的整体进度.
type StageEvent struct {
	Stage    string        `json:"stage"`
	Status   StageStatus   `json:"status"`
	Progress float64       `json:"progress"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// ProgressFunc 接收阶段事件, 供运行存储与 websocket 推送使用.
type ProgressFunc func(StageEvent)

// MetricsObserver 记录阶段耗时, 由 internal/metrics 实现.
type MetricsObserver interface {
	ObserveStage(stage string, seconds float64)
}

// Request 是一次研究流水线的输入.
type Request struct {
	Topic        string       `json:"topic"`
	Requirements Requirements `json:"requirements"`
}

// Result 载有整条流水线的产出.
type Result struct {
	Topic        string                      `json:"topic"`
	Requirements Requirements                `json:"requirements"`
	StageResults map[string]*crew.TaskResult `json:"stage_results"`
	Skipped      []string                    `json:"skipped,omitempty"`
	StartTime    time.Time                   `json:"start_time"`
	EndTime      time.Time                   `json:"end_time"`
	Duration     time.Duration               `json:"duration"`
}

// Pipeline 把研究团队编排成七个阶段的流水线：
// 文献综述 → (方法论 ∥ 数据分析) → 写作 → 引用整理 → 质量审查 → 演示文稿。
// 阶段失败即中止（fail-fast）, 被要求关闭的阶段跳过并计入进度。
type Pipeline struct {
	crew     *crew.Crew
	progress ProgressFunc
	metrics  MetricsObserver
	logger   *zap.Logger

	mu sync.Mutex // 保护并行阶段的事件发射与结果写入
}

// Option 配置流水线.
type Option func(*Pipeline)

// WithProgress 注册阶段进度回调.
func WithProgress(fn ProgressFunc) Option {
	return func(p *Pipeline) { p.progress = fn }
}

// WithMetrics 注册阶段耗时观察器.
func WithMetrics(m MetricsObserver) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// NewPipeline 创建研究流水线.
func NewPipeline(c *crew.Crew, logger *zap.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{
		crew:   c,
		logger: logger.With(zap.String("component", "pipeline")),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run 执行整条流水线。每个阶段的任务上下文由论文要求
// 与之前所有阶段的产出拼接而成。
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return nil, fmt.Errorf("research topic is required")
	}

	groups := pipelineStages()
	total := 0
	for _, group := range groups {
		for _, def := range group {
			if def.skip == nil || !def.skip(req.Requirements) {
				total++
			}
		}
	}

	result := &Result{
		Topic:        req.Topic,
		Requirements: req.Requirements,
		StageResults: make(map[string]*crew.TaskResult),
		StartTime:    time.Now(),
	}

	p.logger.Info("pipeline started", zap.String("topic", req.Topic), zap.Int("stages", total))

	acc := newContextAccumulator(req.Requirements)
	completed := 0

	for _, group := range groups {
		var active []stageDef
		for _, def := range group {
			if def.skip != nil && def.skip(req.Requirements) {
				result.Skipped = append(result.Skipped, def.id)
				p.emit(StageEvent{Stage: def.id, Status: StageSkipped, Progress: progressOf(completed, total)})
				continue
			}
			active = append(active, def)
		}
		if len(active) == 0 {
			continue
		}

		taskContext := acc.String()

		if len(active) == 1 {
			def := active[0]
			taskResult, err := p.runStage(ctx, def, req.Topic, taskContext, &completed, total)
			if err != nil {
				result.EndTime = time.Now()
				result.Duration = result.EndTime.Sub(result.StartTime)
				return result, err
			}
			result.StageResults[def.id] = taskResult
			acc.Add(def.id, taskResult.Output)
			continue
		}

		// 同组阶段共享相同的输入上下文并行执行
		g, gctx := errgroup.WithContext(ctx)
		groupResults := make([]*crew.TaskResult, len(active))
		for i, def := range active {
			g.Go(func() error {
				taskResult, err := p.runStage(gctx, def, req.Topic, taskContext, &completed, total)
				if err != nil {
					return err
				}
				groupResults[i] = taskResult
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			result.EndTime = time.Now()
			result.Duration = result.EndTime.Sub(result.StartTime)
			return result, err
		}
		// 按声明顺序合并, 保证上下文稳定
		for i, def := range active {
			result.StageResults[def.id] = groupResults[i]
			acc.Add(def.id, groupResults[i].Output)
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	p.logger.Info("pipeline completed",
		zap.String("topic", req.Topic),
		zap.Duration("duration", result.Duration))
	return result, nil
}

func (p *Pipeline) runStage(ctx context.Context, def stageDef, topic, taskContext string, completed *int, total int) (*crew.TaskResult, error) {
	p.emit(StageEvent{Stage: def.id, Status: StageStarted, Progress: p.progressLocked(completed, total)})
	start := time.Now()

	taskResult, err := p.crew.ExecuteTask(ctx, def.task(topic, taskContext))
	elapsed := time.Since(start)
	if p.metrics != nil {
		p.metrics.ObserveStage(def.id, elapsed.Seconds())
	}

	if err == nil && taskResult.Error != "" {
		err = fmt.Errorf("stage %s: %s", def.id, taskResult.Error)
	}
	if err != nil {
		p.logger.Error("stage failed", zap.String("stage", def.id), zap.Error(err))
		p.emit(StageEvent{
			Stage:    def.id,
			Status:   StageFailed,
			Progress: p.progressLocked(completed, total),
			Error:    err.Error(),
			Duration: elapsed,
		})
		return nil, err
	}

	p.mu.Lock()
	*completed++
	progress := progressOf(*completed, total)
	p.mu.Unlock()

	p.logger.Info("stage completed",
		zap.String("stage", def.id),
		zap.Duration("duration", elapsed),
		zap.Int("total_tokens", taskResult.Usage.TotalTokens))
	p.emit(StageEvent{Stage: def.id, Status: StageCompleted, Progress: progress, Duration: elapsed})
	return taskResult, nil
}

func (p *Pipeline) progressLocked(completed *int, total int) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return progressOf(*completed, total)
}

func progressOf(completed, total int) float64 {
	if total == 0 {
		return 1
	}
	return float64(completed) / float64(total)
}

func (p *Pipeline) emit(event StageEvent) {
	if p.progress == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.progress(event)
}

// contextAccumulator 把要求清单与各阶段产出拼成后续任务的上下文.
type contextAccumulator struct {
	mu       sync.Mutex
	sections []string
}

func newContextAccumulator(reqs Requirements) *contextAccumulator {
	acc := &contextAccumulator{}
	if summary := reqs.Summary(); summary != "" {
		acc.sections = append(acc.sections, "Paper requirements:\n"+summary)
	}
	return acc
}

func (a *contextAccumulator) Add(stage, output string) {
	if strings.TrimSpace(output) == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sections = append(a.sections, fmt.Sprintf("## %s\n%s", stage, output))
}

func (a *contextAccumulator) String() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return strings.Join(a.sections, "\n\n")
}
