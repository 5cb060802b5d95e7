package crew

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 角色定义了成员在研究团队中的职责.
type Role struct {
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	Goal            string   `json:"goal"`
	Backstory       string   `json:"backstory,omitempty"`
	Tools           []string `json:"tools,omitempty"`
	Provider        string   `json:"provider,omitempty"`
	Temperature     float32  `json:"temperature,omitempty"`
	AllowDelegation bool     `json:"allow_delegation"`
}

// 成员代表团队中的一个智能体.
type Member struct {
	ID     string       `json:"id"`
	Role   Role         `json:"role"`
	Agent  Agent        `json:"-"`
	Status MemberStatus `json:"status"`
}

// 成员状态.
type MemberStatus string

const (
	MemberStatusIdle    MemberStatus = "idle"
	MemberStatusWorking MemberStatus = "working"
)

// Agent 是团队成员的执行接口.
type Agent interface {
	ID() string
	Execute(ctx context.Context, task Task) (*TaskResult, error)
	Negotiate(ctx context.Context, proposal Proposal) (*NegotiationResult, error)
}

// Task 代表分配给团队的一项任务.
type Task struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Expected    string `json:"expected_output"`
	Context     string `json:"context,omitempty"`
	AssignedTo  string `json:"assigned_to,omitempty"`
}

// TaskResult 是一项任务的执行结果.
type TaskResult struct {
	TaskID     string                     `json:"task_id"`
	Output     string                     `json:"output"`
	Artifacts  map[string]json.RawMessage `json:"artifacts,omitempty"` // 工具名 -> 原始结果
	Error      string                     `json:"error,omitempty"`
	DurationMS int64                      `json:"duration_ms"`
	Usage      TokenUsage                 `json:"usage"`
}

// TokenUsage 累计任务期间的 token 消耗.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// Proposal 是成员间的协商提案.
type Proposal struct {
	Type       ProposalType `json:"type"`
	FromMember string       `json:"from_member"`
	ToMember   string       `json:"to_member,omitempty"`
	Task       *Task        `json:"task,omitempty"`
	Message    string       `json:"message"`
}

// 提案类型.
type ProposalType string

const (
	ProposalTypeDelegate ProposalType = "delegate"
	ProposalTypeInform   ProposalType = "inform"
)

// NegotiationResult 是协商的结果.
type NegotiationResult struct {
	Accepted bool   `json:"accepted"`
	Response string `json:"response"`
}

// ProcessType 定义任务的调度方式.
type ProcessType string

const (
	ProcessSequential   ProcessType = "sequential"
	ProcessHierarchical ProcessType = "hierarchical"
)

// Crew 代表一组协同工作的研究智能体.
type Crew struct {
	ID      string             `json:"id"`
	Name    string             `json:"name"`
	Members map[string]*Member `json:"members"`
	Tasks   []*Task            `json:"tasks"`
	Process ProcessType        `json:"process"`
	verbose bool
	logger  *zap.Logger
	mu      sync.RWMutex
}

// Config 配置一个团队.
type Config struct {
	Name    string
	Process ProcessType
	// Verbose 把逐任务的进度日志从 Debug 提升到 Info
	Verbose bool
}

// New 创建新的团队.
func New(config Config, logger *zap.Logger) *Crew {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Process == "" {
		config.Process = ProcessHierarchical
	}
	return &Crew{
		ID:      "crew_" + uuid.NewString(),
		Name:    config.Name,
		Members: make(map[string]*Member),
		Tasks:   make([]*Task, 0),
		Process: config.Process,
		verbose: config.Verbose,
		logger:  logger.With(zap.String("component", "crew"), zap.String("crew", config.Name)),
	}
}

// AddMember 为团队增加一名成员.
func (c *Crew) AddMember(agent Agent, role Role) *Member {
	c.mu.Lock()
	defer c.mu.Unlock()

	member := &Member{
		ID:     agent.ID(),
		Role:   role,
		Agent:  agent,
		Status: MemberStatusIdle,
	}
	c.Members[member.ID] = member
	c.logger.Info("added crew member", zap.String("id", member.ID), zap.String("role", role.Name))
	return member
}

// AddTask 给团队添加任务.
func (c *Crew) AddTask(task Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if task.ID == "" {
		task.ID = fmt.Sprintf("task_%d", len(c.Tasks)+1)
	}
	c.Tasks = append(c.Tasks, &task)
}

// Result 载有整个团队的执行结果.
type Result struct {
	CrewID      string                 `json:"crew_id"`
	TaskResults map[string]*TaskResult `json:"task_results"`
	StartTime   time.Time              `json:"start_time"`
	EndTime     time.Time              `json:"end_time"`
	Duration    time.Duration          `json:"duration"`
}

// Execute 按配置的调度方式执行所有任务.
func (c *Crew) Execute(ctx context.Context) (*Result, error) {
	c.logger.Info("starting crew execution", zap.Int("tasks", len(c.Tasks)))
	start := time.Now()

	result := &Result{
		CrewID:      c.ID,
		TaskResults: make(map[string]*TaskResult),
		StartTime:   start,
	}

	var err error
	switch c.Process {
	case ProcessHierarchical:
		err = c.executeHierarchical(ctx, result)
	default:
		err = c.executeSequential(ctx, result)
	}
	if err != nil {
		return result, err
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(start)
	c.logger.Info("crew execution completed", zap.Duration("duration", result.Duration))
	return result, nil
}

// ExecuteTask 执行单个任务, 供按阶段编排的流水线使用.
func (c *Crew) ExecuteTask(ctx context.Context, task Task) (*TaskResult, error) {
	member := c.findMember(&task)
	if member == nil {
		return nil, fmt.Errorf("no member found for task: %s", task.ID)
	}
	return c.runTask(ctx, member, &task), nil
}

func (c *Crew) executeSequential(ctx context.Context, result *Result) error {
	for _, task := range c.Tasks {
		if err := ctx.Err(); err != nil {
			return err
		}
		member := c.findMember(task)
		if member == nil {
			return fmt.Errorf("no member found for task: %s", task.ID)
		}
		result.TaskResults[task.ID] = c.runTask(ctx, member, task)
	}
	return nil
}

func (c *Crew) executeHierarchical(ctx context.Context, result *Result) error {
	manager := c.manager()
	if manager == nil {
		return fmt.Errorf("no manager found")
	}

	// 经理逐项委派任务, 委派被拒或协商失败时回退到经理自己执行
	for _, task := range c.Tasks {
		if err := ctx.Err(); err != nil {
			return err
		}
		delegatee := c.findMember(task)
		if delegatee == nil {
			delegatee = manager
		}

		if delegatee.ID != manager.ID {
			proposal := Proposal{
				Type:       ProposalTypeDelegate,
				FromMember: manager.ID,
				ToMember:   delegatee.ID,
				Task:       task,
				Message:    fmt.Sprintf("Please handle task: %s", task.Description),
			}
			negResult, negErr := delegatee.Agent.Negotiate(ctx, proposal)
			if negErr != nil {
				c.logger.Warn("negotiation failed, falling back to manager",
					zap.String("delegatee", delegatee.ID),
					zap.String("task", task.ID),
					zap.Error(negErr))
				delegatee = manager
			} else if negResult != nil && !negResult.Accepted {
				delegatee = manager
			}
		}

		result.TaskResults[task.ID] = c.runTask(ctx, delegatee, task)
	}
	return nil
}

func (c *Crew) runTask(ctx context.Context, member *Member, task *Task) *TaskResult {
	c.taskLog("task started",
		zap.String("task", task.ID),
		zap.String("member", member.Role.Name))

	c.setStatus(member, MemberStatusWorking)
	taskResult, err := member.Agent.Execute(ctx, *task)
	c.setStatus(member, MemberStatusIdle)

	if err != nil {
		c.taskLog("task failed", zap.String("task", task.ID), zap.Error(err))
		taskResult = &TaskResult{TaskID: task.ID, Error: err.Error()}
		return taskResult
	}
	c.taskLog("task finished",
		zap.String("task", task.ID),
		zap.Int64("duration_ms", taskResult.DurationMS))
	return taskResult
}

// taskLog 输出逐任务的进度日志; verbose 模式提升到 Info 级别.
func (c *Crew) taskLog(msg string, fields ...zap.Field) {
	if c.verbose {
		c.logger.Info(msg, fields...)
		return
	}
	c.logger.Debug(msg, fields...)
}

func (c *Crew) setStatus(member *Member, status MemberStatus) {
	c.mu.Lock()
	member.Status = status
	c.mu.Unlock()
}

func (c *Crew) findMember(task *Task) *Member {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if task.AssignedTo != "" {
		if member, ok := c.Members[task.AssignedTo]; ok {
			return member
		}
	}
	for _, member := range c.Members {
		if member.Status == MemberStatusIdle {
			return member
		}
	}
	return nil
}

// manager 返回允许委派的成员, 即层级模式下的经理.
func (c *Crew) manager() *Member {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var manager *Member
	for _, m := range c.Members {
		if m.Role.AllowDelegation {
			return m
		}
		if manager == nil {
			manager = m
		}
	}
	return manager
}
