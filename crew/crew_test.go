package crew

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// mockAgent implements Agent with function callbacks.
type mockAgent struct {
	id          string
	executeFn   func(ctx context.Context, task Task) (*TaskResult, error)
	negotiateFn func(ctx context.Context, proposal Proposal) (*NegotiationResult, error)
}

func (m *mockAgent) ID() string { return m.id }

func (m *mockAgent) Execute(ctx context.Context, task Task) (*TaskResult, error) {
	if m.executeFn != nil {
		return m.executeFn(ctx, task)
	}
	return &TaskResult{TaskID: task.ID, Output: "default output"}, nil
}

func (m *mockAgent) Negotiate(ctx context.Context, proposal Proposal) (*NegotiationResult, error) {
	if m.negotiateFn != nil {
		return m.negotiateFn(ctx, proposal)
	}
	return &NegotiationResult{Accepted: true, Response: m.id}, nil
}

func newTestCrew(t *testing.T, process ProcessType, agents ...Agent) *Crew {
	t.Helper()
	c := New(Config{Name: "test-crew", Process: process}, zap.NewNop())
	for _, a := range agents {
		c.AddMember(a, Role{
			Name:            a.ID() + "-role",
			AllowDelegation: a.ID() == "manager",
		})
	}
	return c
}

func TestCrew_Execute_Sequential(t *testing.T) {
	executedTasks := make([]string, 0)

	agent1 := &mockAgent{
		id: "agent-1",
		executeFn: func(_ context.Context, task Task) (*TaskResult, error) {
			executedTasks = append(executedTasks, task.ID)
			return &TaskResult{TaskID: task.ID, Output: "result-" + task.ID}, nil
		},
	}

	c := newTestCrew(t, ProcessSequential, agent1)
	c.AddTask(Task{ID: "task-1", Description: "first task"})
	c.AddTask(Task{ID: "task-2", Description: "second task"})

	result, err := c.Execute(context.Background())
	require.NoError(t, err)
	assert.Len(t, result.TaskResults, 2)
	assert.Equal(t, "result-task-1", result.TaskResults["task-1"].Output)
	assert.Equal(t, "result-task-2", result.TaskResults["task-2"].Output)
	assert.Equal(t, []string{"task-1", "task-2"}, executedTasks)
	assert.False(t, result.EndTime.IsZero())
}

func TestCrew_Execute_Sequential_Error(t *testing.T) {
	agent1 := &mockAgent{
		id: "agent-1",
		executeFn: func(_ context.Context, task Task) (*TaskResult, error) {
			return nil, errors.New("execution failed")
		},
	}

	c := newTestCrew(t, ProcessSequential, agent1)
	c.AddTask(Task{ID: "task-1", Description: "failing task"})

	result, err := c.Execute(context.Background())
	require.NoError(t, err) // agent errors are stored in the task result
	require.NotNil(t, result.TaskResults["task-1"])
	assert.Equal(t, "execution failed", result.TaskResults["task-1"].Error)
}

func TestCrew_Execute_Sequential_AssignedTo(t *testing.T) {
	executedBy := ""
	makeAgent := func(id string) *mockAgent {
		return &mockAgent{
			id: id,
			executeFn: func(_ context.Context, task Task) (*TaskResult, error) {
				executedBy = id
				return &TaskResult{TaskID: task.ID, Output: "done"}, nil
			},
		}
	}

	c := newTestCrew(t, ProcessSequential, makeAgent("agent-1"), makeAgent("agent-2"))
	c.AddTask(Task{ID: "task-1", Description: "assigned task", AssignedTo: "agent-2"})

	_, err := c.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "agent-2", executedBy)
}

func TestCrew_Execute_Hierarchical_Delegates(t *testing.T) {
	workerExecuted := false

	manager := &mockAgent{id: "manager"}
	worker := &mockAgent{
		id: "worker-1",
		executeFn: func(_ context.Context, task Task) (*TaskResult, error) {
			workerExecuted = true
			return &TaskResult{TaskID: task.ID, Output: "worker-result"}, nil
		},
	}

	c := newTestCrew(t, ProcessHierarchical, manager, worker)
	c.AddTask(Task{ID: "task-1", Description: "delegated task", AssignedTo: "worker-1"})

	result, err := c.Execute(context.Background())
	require.NoError(t, err)
	assert.True(t, workerExecuted)
	assert.Equal(t, "worker-result", result.TaskResults["task-1"].Output)
}

func TestCrew_Execute_Hierarchical_Rejected(t *testing.T) {
	managerExecuted := false

	manager := &mockAgent{
		id: "manager",
		executeFn: func(_ context.Context, task Task) (*TaskResult, error) {
			managerExecuted = true
			return &TaskResult{TaskID: task.ID, Output: "manager-did-it"}, nil
		},
	}
	worker := &mockAgent{
		id: "worker-1",
		negotiateFn: func(_ context.Context, _ Proposal) (*NegotiationResult, error) {
			return &NegotiationResult{Accepted: false, Response: "too busy"}, nil
		},
	}

	c := newTestCrew(t, ProcessHierarchical, manager, worker)
	c.AddTask(Task{ID: "task-1", Description: "rejected task", AssignedTo: "worker-1"})

	result, err := c.Execute(context.Background())
	require.NoError(t, err)
	assert.True(t, managerExecuted, "manager should execute when worker rejects")
	assert.Equal(t, "manager-did-it", result.TaskResults["task-1"].Output)
}

func TestCrew_Execute_Hierarchical_NegotiationError(t *testing.T) {
	managerExecuted := false

	manager := &mockAgent{
		id: "manager",
		executeFn: func(_ context.Context, task Task) (*TaskResult, error) {
			managerExecuted = true
			return &TaskResult{TaskID: task.ID, Output: "manager-fallback"}, nil
		},
	}
	worker := &mockAgent{
		id: "worker-1",
		negotiateFn: func(_ context.Context, _ Proposal) (*NegotiationResult, error) {
			return nil, errors.New("negotiation error")
		},
	}

	c := newTestCrew(t, ProcessHierarchical, manager, worker)
	c.AddTask(Task{ID: "task-1", Description: "error task", AssignedTo: "worker-1"})

	result, err := c.Execute(context.Background())
	require.NoError(t, err)
	assert.True(t, managerExecuted)
	assert.Equal(t, "manager-fallback", result.TaskResults["task-1"].Output)
}

func TestCrew_Execute_Hierarchical_NoManager(t *testing.T) {
	c := New(Config{Name: "empty", Process: ProcessHierarchical}, zap.NewNop())
	c.AddTask(Task{ID: "task-1"})

	_, err := c.Execute(context.Background())
	assert.Error(t, err)
}

func TestCrew_Execute_NoMembers(t *testing.T) {
	c := New(Config{Name: "empty-crew", Process: ProcessSequential}, zap.NewNop())
	c.AddTask(Task{ID: "task-1", Description: "orphan task"})

	_, err := c.Execute(context.Background())
	assert.Error(t, err)
}

func TestCrew_Execute_EmptyTasks(t *testing.T) {
	c := newTestCrew(t, ProcessSequential, &mockAgent{id: "agent-1"})

	result, err := c.Execute(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.TaskResults)
	assert.False(t, result.EndTime.IsZero())
}

func TestCrew_Execute_CancelledContext(t *testing.T) {
	c := newTestCrew(t, ProcessSequential, &mockAgent{id: "agent-1"})
	c.AddTask(Task{ID: "task-1"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Execute(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCrew_ExecuteTask(t *testing.T) {
	agent := &mockAgent{
		id: "agent-1",
		executeFn: func(_ context.Context, task Task) (*TaskResult, error) {
			return &TaskResult{TaskID: task.ID, Output: "single"}, nil
		},
	}
	c := newTestCrew(t, ProcessSequential, agent)

	result, err := c.ExecuteTask(context.Background(), Task{ID: "t1", AssignedTo: "agent-1"})
	require.NoError(t, err)
	assert.Equal(t, "single", result.Output)

	// Unknown assignee falls back to any idle member, none here for empty crew
	empty := New(Config{Name: "empty"}, zap.NewNop())
	_, err = empty.ExecuteTask(context.Background(), Task{ID: "t2"})
	assert.Error(t, err)
}

func TestCrew_AddTask_AutoID(t *testing.T) {
	c := New(Config{Name: "test"}, zap.NewNop())
	c.AddTask(Task{Description: "no id"})
	c.AddTask(Task{Description: "also no id"})

	assert.Equal(t, "task_1", c.Tasks[0].ID)
	assert.Equal(t, "task_2", c.Tasks[1].ID)
}

func TestCrew_VerboseTaskLogging(t *testing.T) {
	runWithVerbose := func(verbose bool) *observer.ObservedLogs {
		core, logs := observer.New(zap.InfoLevel)
		c := New(Config{Name: "v-crew", Process: ProcessSequential, Verbose: verbose}, zap.New(core))
		c.AddMember(&mockAgent{id: "agent-1"}, Role{Name: "worker"})
		c.AddTask(Task{ID: "task-1", Description: "d"})

		_, err := c.Execute(context.Background())
		require.NoError(t, err)
		return logs
	}

	// verbose 时逐任务进度出现在 Info 级别
	verboseLogs := runWithVerbose(true)
	assert.Equal(t, 1, verboseLogs.FilterMessage("task started").Len())
	assert.Equal(t, 1, verboseLogs.FilterMessage("task finished").Len())

	// 非 verbose 时进度日志降到 Debug, Info 级别看不到
	quietLogs := runWithVerbose(false)
	assert.Equal(t, 0, quietLogs.FilterMessage("task started").Len())
	assert.Equal(t, 0, quietLogs.FilterMessage("task finished").Len())
}

func TestCrew_DefaultProcess(t *testing.T) {
	c := New(Config{Name: "test"}, zap.NewNop())
	assert.Equal(t, ProcessHierarchical, c.Process)
	assert.NotEmpty(t, c.ID)
}
