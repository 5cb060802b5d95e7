package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/papercrew/papercrew/api"
	"github.com/papercrew/papercrew/report"
	"github.com/papercrew/papercrew/run"
	"github.com/papercrew/papercrew/workflow"
)

// =============================================================================
// 📑 研究流水线 Handler
// =============================================================================

// defaultRunTimeout 是单次研究运行的后台执行超时。
const defaultRunTimeout = 30 * time.Minute

// PipelineFunc 执行一次完整的研究流水线。
// progress 在每个阶段状态变化时被调用。
type PipelineFunc func(ctx context.Context, req workflow.Request, progress workflow.ProgressFunc) (*workflow.Result, error)

// RunMetrics 记录运行级别指标 (started/completed/failed)。
type RunMetrics interface {
	RecordRun(status string)
}

// ResearchHandler 研究运行接口处理器
type ResearchHandler struct {
	store      *run.Store
	pipeline   PipelineFunc
	generator  *report.Generator
	metrics    RunMetrics
	logger     *zap.Logger
	runTimeout time.Duration
}

// ResearchOption 配置 ResearchHandler
type ResearchOption func(*ResearchHandler)

// WithRunTimeout 设置后台运行超时
func WithRunTimeout(d time.Duration) ResearchOption {
	return func(h *ResearchHandler) { h.runTimeout = d }
}

// WithRunMetrics 设置运行指标收集器
func WithRunMetrics(m RunMetrics) ResearchOption {
	return func(h *ResearchHandler) { h.metrics = m }
}

// NewResearchHandler 创建研究运行处理器
func NewResearchHandler(store *run.Store, pipeline PipelineFunc, generator *report.Generator, logger *zap.Logger, opts ...ResearchOption) *ResearchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &ResearchHandler{
		store:      store,
		pipeline:   pipeline,
		generator:  generator,
		logger:     logger.With(zap.String("component", "research_handler")),
		runTimeout: defaultRunTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleCreate 创建研究运行并在后台执行流水线
// @Summary 创建研究运行
// @Description 受理研究主题, 返回运行 ID, 流水线在后台异步执行
// @Tags 研究
// @Accept json
// @Produce json
// @Param request body api.ResearchRequest true "研究请求"
// @Success 202 {object} Response "运行已受理"
// @Failure 400 {object} Response "无效请求"
// @Router /api/v1/research [post]
func (h *ResearchHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req api.ResearchRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		WriteErrorMessage(w, http.StatusBadRequest, CodeInvalidRequest, "topic is required", h.logger)
		return
	}

	rec := h.store.Create(req.Topic, req.Requirements)
	if h.metrics != nil {
		h.metrics.RecordRun("started")
	}

	go h.execute(rec.ID, req)

	h.logger.Info("research run accepted",
		zap.String("run_id", rec.ID),
		zap.String("topic", req.Topic),
	)

	WriteAccepted(w, api.ResearchAccepted{
		RunID:     rec.ID,
		Status:    string(rec.Status),
		CreatedAt: rec.CreatedAt,
	})
}

// execute 在后台执行流水线并把结果写回运行存储。
func (h *ResearchHandler) execute(runID string, req api.ResearchRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), h.runTimeout)
	defer cancel()

	if err := h.store.Start(runID); err != nil {
		h.logger.Error("failed to start run", zap.String("run_id", runID), zap.Error(err))
		return
	}

	result, err := h.pipeline(ctx, workflow.Request{
		Topic:        req.Topic,
		Requirements: req.Requirements,
	}, func(event workflow.StageEvent) {
		h.store.RecordEvent(runID, event)
	})
	if err != nil {
		h.failRun(runID, err)
		return
	}

	rep := h.generator.Generate(result)

	archive, err := report.BuildArchive(rep, result)
	if err != nil {
		h.failRun(runID, fmt.Errorf("build archive: %w", err))
		return
	}

	if err := h.store.Complete(runID, rep, archive); err != nil {
		h.logger.Error("failed to complete run", zap.String("run_id", runID), zap.Error(err))
		return
	}
	if h.metrics != nil {
		h.metrics.RecordRun("completed")
	}
}

func (h *ResearchHandler) failRun(runID string, err error) {
	if storeErr := h.store.Fail(runID, err); storeErr != nil {
		h.logger.Error("failed to record run failure",
			zap.String("run_id", runID), zap.Error(storeErr))
	}
	if h.metrics != nil {
		h.metrics.RecordRun("failed")
	}
}

// HandleGet 查询单个运行状态
// @Summary 查询研究运行
// @Tags 研究
// @Produce json
// @Success 200 {object} Response "运行状态"
// @Failure 404 {object} Response "运行不存在"
// @Router /api/v1/research/{id} [get]
func (h *ResearchHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookup(w, r)
	if !ok {
		return
	}
	WriteSuccess(w, rec)
}

// HandleList 列出全部运行, 按创建时间倒序
// @Summary 列出研究运行
// @Tags 研究
// @Produce json
// @Success 200 {object} Response "运行列表"
// @Router /api/v1/research [get]
func (h *ResearchHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, h.store.List())
}

// HandleReport 返回已完成运行的执行报告
// @Summary 获取执行报告
// @Tags 研究
// @Produce json
// @Success 200 {object} Response "执行报告"
// @Failure 404 {object} Response "运行不存在"
// @Failure 409 {object} Response "运行尚未完成"
// @Router /api/v1/research/{id}/report [get]
func (h *ResearchHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookup(w, r)
	if !ok {
		return
	}

	switch rec.Status {
	case run.StatusCompleted:
		WriteSuccess(w, rec.Report)
	case run.StatusFailed:
		WriteErrorMessage(w, http.StatusConflict, CodeConflict,
			fmt.Sprintf("run failed: %s", rec.Error), h.logger)
	default:
		WriteErrorMessage(w, http.StatusConflict, CodeConflict, "run is not finished yet", h.logger)
	}
}

// HandleDownload 下载研究成果 ZIP 包
// @Summary 下载研究成果
// @Tags 研究
// @Produce application/zip
// @Success 200 {file} binary "ZIP 包"
// @Failure 404 {object} Response "运行不存在"
// @Failure 409 {object} Response "运行尚未完成"
// @Router /api/v1/research/{id}/download [get]
func (h *ResearchHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if rec.Status != run.StatusCompleted || len(rec.Archive) == 0 {
		WriteErrorMessage(w, http.StatusConflict, CodeConflict, "run has no downloadable archive", h.logger)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="research_%s.zip"`, rec.ID))
	w.WriteHeader(http.StatusOK)
	w.Write(rec.Archive)
}

// HandleProgress 通过 WebSocket 推送阶段进度
// 先重放历史事件, 再实时推送后续事件, 运行结束时正常关闭连接。
// @Summary 订阅运行进度
// @Tags 研究
// @Success 101 {string} string "WebSocket 升级"
// @Failure 404 {object} Response "运行不存在"
// @Router /api/v1/research/{id}/progress [get]
func (h *ResearchHandler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")

	history, events, cancelSub, err := h.store.Subscribe(runID)
	if err != nil {
		if errors.Is(err, run.ErrNotFound) {
			WriteErrorMessage(w, http.StatusNotFound, CodeNotFound, "run not found", h.logger)
			return
		}
		WriteErrorMessage(w, http.StatusInternalServerError, CodeInternalError, err.Error(), h.logger)
		return
	}
	defer cancelSub()

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket accept failed", zap.String("run_id", runID), zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closing")

	ctx := r.Context()

	for _, event := range history {
		if err := writeProgress(ctx, conn, runID, event); err != nil {
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusGoingAway, "client context done")
			return
		case event, ok := <-events:
			if !ok {
				// 运行结束, 发送最终状态后正常关闭
				if rec, getErr := h.store.Get(runID); getErr == nil {
					final := workflow.StageEvent{
						Stage:    rec.CurrentStage,
						Progress: rec.Progress,
						Status:   terminalStageStatus(rec.Status),
						Error:    rec.Error,
					}
					writeProgress(ctx, conn, runID, final)
				}
				conn.Close(websocket.StatusNormalClosure, "run finished")
				return
			}
			if err := writeProgress(ctx, conn, runID, event); err != nil {
				h.logger.Debug("progress write failed", zap.String("run_id", runID), zap.Error(err))
				return
			}
		}
	}
}

func terminalStageStatus(s run.Status) workflow.StageStatus {
	if s == run.StatusFailed {
		return workflow.StageFailed
	}
	return workflow.StageCompleted
}

// writeProgress 发送一帧进度消息。WebSocket 写不支持并发,
// 本 handler 内所有写都在同一 goroutine 串行执行。
func writeProgress(ctx context.Context, conn *websocket.Conn, runID string, event workflow.StageEvent) error {
	data, err := json.Marshal(api.ProgressMessage{RunID: runID, Event: event})
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}

// lookup 解析路径中的运行 ID 并读取运行记录, 不存在时写 404。
func (h *ResearchHandler) lookup(w http.ResponseWriter, r *http.Request) (run.Run, bool) {
	rec, err := h.store.Get(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, run.ErrNotFound) {
			WriteErrorMessage(w, http.StatusNotFound, CodeNotFound, "run not found", h.logger)
		} else {
			WriteErrorMessage(w, http.StatusInternalServerError, CodeInternalError, err.Error(), h.logger)
		}
		return run.Run{}, false
	}
	return rec, true
}
