package run

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercrew/papercrew/report"
	"github.com/papercrew/papercrew/workflow"
)

// Status 是一次研究运行的生命周期状态.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ErrNotFound 表示运行不存在.
var ErrNotFound = errors.New("run not found")

// Run 是一次研究流水线运行的记录.
type Run struct {
	ID           string                `json:"id"`
	Topic        string                `json:"topic"`
	Requirements workflow.Requirements `json:"requirements"`
	Status       Status                `json:"status"`
	Progress     float64               `json:"progress"`
	CurrentStage string                `json:"current_stage,omitempty"`
	Error        string                `json:"error,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	StartedAt    *time.Time            `json:"started_at,omitempty"`
	CompletedAt  *time.Time            `json:"completed_at,omitempty"`
	Report       *report.Report        `json:"report,omitempty"`
	Archive      []byte                `json:"-"`
}

// Terminal 判断运行是否已结束.
func (r *Run) Terminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}

type entry struct {
	run     Run
	events  []workflow.StageEvent
	subs    map[int]chan workflow.StageEvent
	nextSub int
}

// Store 是内存运行存储, 同时承担阶段事件的发布订阅.
type Store struct {
	mu     sync.RWMutex
	runs   map[string]*entry
	now    func() time.Time
	logger *zap.Logger
}

// NewStore 创建内存运行存储.
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		runs:   make(map[string]*entry),
		now:    time.Now,
		logger: logger.With(zap.String("component", "runstore")),
	}
}

// Create 登记一次新的运行, 初始状态 pending.
func (s *Store) Create(topic string, reqs workflow.Requirements) Run {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := Run{
		ID:           uuid.NewString(),
		Topic:        topic,
		Requirements: reqs,
		Status:       StatusPending,
		CreatedAt:    s.now(),
	}
	s.runs[r.ID] = &entry{
		run:  r,
		subs: make(map[int]chan workflow.StageEvent),
	}
	s.logger.Info("run created", zap.String("run_id", r.ID), zap.String("topic", topic))
	return r
}

// Get 返回运行的快照.
func (s *Store) Get(id string) (Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.runs[id]
	if !ok {
		return Run{}, ErrNotFound
	}
	return e.run, nil
}

// List 返回全部运行, 按创建时间倒序.
func (s *Store) List() []Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Run, 0, len(s.runs))
	for _, e := range s.runs {
		out = append(out, e.run)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Start 把运行标记为执行中.
func (s *Store) Start(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.runs[id]
	if !ok {
		return ErrNotFound
	}
	now := s.now()
	e.run.Status = StatusRunning
	e.run.StartedAt = &now
	return nil
}

// RecordEvent 记录一个阶段事件, 更新进度并广播给订阅者.
// 通道满的慢订阅者会丢事件, 不阻塞流水线。
func (s *Store) RecordEvent(id string, event workflow.StageEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.runs[id]
	if !ok {
		return
	}
	e.events = append(e.events, event)
	e.run.Progress = event.Progress
	e.run.CurrentStage = event.Stage
	for _, ch := range e.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Complete 记录成功完成的运行及其报告与下载包.
func (s *Store) Complete(id string, rep *report.Report, archive []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.runs[id]
	if !ok {
		return ErrNotFound
	}
	now := s.now()
	e.run.Status = StatusCompleted
	e.run.Progress = 1
	e.run.CompletedAt = &now
	e.run.Report = rep
	e.run.Archive = archive
	s.closeSubs(e)
	s.logger.Info("run completed", zap.String("run_id", id))
	return nil
}

// Fail 记录失败的运行.
func (s *Store) Fail(id string, runErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.runs[id]
	if !ok {
		return ErrNotFound
	}
	now := s.now()
	e.run.Status = StatusFailed
	e.run.CompletedAt = &now
	if runErr != nil {
		e.run.Error = runErr.Error()
	}
	s.closeSubs(e)
	s.logger.Warn("run failed", zap.String("run_id", id), zap.Error(runErr))
	return nil
}

// Events 返回运行的事件历史.
func (s *Store) Events(id string) ([]workflow.StageEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]workflow.StageEvent, len(e.events))
	copy(out, e.events)
	return out, nil
}

// Subscribe 返回事件历史与后续事件的实时通道。
// 运行已结束时通道立即关闭; cancel 必须被调用以释放订阅。
func (s *Store) Subscribe(id string) ([]workflow.StageEvent, <-chan workflow.StageEvent, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.runs[id]
	if !ok {
		return nil, nil, nil, ErrNotFound
	}

	history := make([]workflow.StageEvent, len(e.events))
	copy(history, e.events)

	ch := make(chan workflow.StageEvent, 16)
	if e.run.Terminal() {
		close(ch)
		return history, ch, func() {}, nil
	}

	subID := e.nextSub
	e.nextSub++
	e.subs[subID] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if cur, ok := s.runs[id]; ok {
			if sub, exists := cur.subs[subID]; exists {
				delete(cur.subs, subID)
				close(sub)
			}
		}
	}
	return history, ch, cancel, nil
}

func (s *Store) closeSubs(e *entry) {
	for id, ch := range e.subs {
		delete(e.subs, id)
		close(ch)
	}
}
