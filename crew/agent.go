package crew

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/papercrew/papercrew/llm"
	"github.com/papercrew/papercrew/llm/tokenizer"
	"github.com/papercrew/papercrew/tools"
)

// 工具循环的默认最大轮数, 防止模型反复调用工具不收敛.
const defaultMaxToolRounds = 4

// ResearchAgent 把一个角色绑定到具体的 LLM provider 和工具执行器上.
type ResearchAgent struct {
	role          Role
	provider      llm.Provider
	registry      tools.ToolRegistry
	executor      tools.ToolExecutor
	model         string
	maxToolRounds int
	logger        *zap.Logger
}

// AgentOption 配置 ResearchAgent.
type AgentOption func(*ResearchAgent)

// WithModel 覆盖 provider 的默认模型.
func WithModel(model string) AgentOption {
	return func(a *ResearchAgent) { a.model = model }
}

// WithMaxToolRounds 覆盖工具循环的最大轮数.
func WithMaxToolRounds(n int) AgentOption {
	return func(a *ResearchAgent) {
		if n > 0 {
			a.maxToolRounds = n
		}
	}
}

// NewResearchAgent 创建一个研究智能体。
// registry/executor 可以为 nil, 此时角色声明的工具被忽略.
func NewResearchAgent(role Role, provider llm.Provider, registry tools.ToolRegistry, executor tools.ToolExecutor, logger *zap.Logger, opts ...AgentOption) *ResearchAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &ResearchAgent{
		role:          role,
		provider:      provider,
		registry:      registry,
		executor:      executor,
		maxToolRounds: defaultMaxToolRounds,
		logger:        logger.With(zap.String("component", "agent"), zap.String("role", role.Name)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *ResearchAgent) ID() string { return a.role.Name }

// Role 返回智能体绑定的角色定义.
func (a *ResearchAgent) Role() Role { return a.role }

// Execute 执行任务：构造角色提示词, 调用 LLM,
// 执行模型请求的工具并把结果回传, 直到模型给出最终文本。
func (a *ResearchAgent) Execute(ctx context.Context, task Task) (*TaskResult, error) {
	if a.provider == nil {
		return nil, fmt.Errorf("agent %s: no provider configured", a.role.Name)
	}

	start := time.Now()
	messages := a.buildMessages(task)

	req := &llm.ChatRequest{
		Model:       a.model,
		Messages:    messages,
		Temperature: a.role.Temperature,
		Tools:       a.toolSchemas(),
	}

	result := &TaskResult{
		TaskID:    task.ID,
		Artifacts: make(map[string]json.RawMessage),
	}

	for round := 0; ; round++ {
		resp, err := a.provider.Completion(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("agent %s: completion failed: %w", a.role.Name, err)
		}
		result.Usage.PromptTokens += resp.Usage.PromptTokens
		result.Usage.CompletionTokens += resp.Usage.CompletionTokens
		result.Usage.TotalTokens += resp.Usage.TotalTokens

		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("agent %s: empty response", a.role.Name)
		}
		msg := resp.Choices[0].Message

		if len(msg.ToolCalls) == 0 || a.executor == nil || round >= a.maxToolRounds {
			result.Output = msg.Content
			result.DurationMS = time.Since(start).Milliseconds()
			a.logTokens(resp.Model, req.Messages, msg.Content)
			return result, nil
		}

		// 模型请求了工具：执行全部调用并把结果作为 tool 消息回传
		req.Messages = append(req.Messages, msg)
		for _, tr := range a.executor.Execute(ctx, msg.ToolCalls) {
			content := string(tr.Result)
			if tr.Error != "" {
				content = fmt.Sprintf(`{"error":%q}`, tr.Error)
			} else {
				result.Artifacts[tr.Name] = tr.Result
			}
			req.Messages = append(req.Messages, llm.Message{
				Role:       llm.RoleTool,
				Content:    content,
				Name:       tr.Name,
				ToolCallID: tr.ToolCallID,
			})
		}
	}
}

// Negotiate 响应协商提案。委派提案在智能体具备 provider 时接受,
// 其余类型一律确认, 响应内容为角色名.
func (a *ResearchAgent) Negotiate(ctx context.Context, proposal Proposal) (*NegotiationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if proposal.Type == ProposalTypeDelegate && a.provider == nil {
		return &NegotiationResult{Accepted: false, Response: "no provider configured"}, nil
	}
	return &NegotiationResult{Accepted: true, Response: a.role.Name}, nil
}

func (a *ResearchAgent) buildMessages(task Task) []llm.Message {
	var system strings.Builder
	fmt.Fprintf(&system, "You are %s.\nGoal: %s", a.role.Description, a.role.Goal)
	if a.role.Backstory != "" {
		fmt.Fprintf(&system, "\nBackstory: %s", a.role.Backstory)
	}

	var user strings.Builder
	user.WriteString(task.Description)
	if task.Context != "" {
		fmt.Fprintf(&user, "\n\nContext from previous work:\n%s", task.Context)
	}
	if task.Expected != "" {
		fmt.Fprintf(&user, "\n\nExpected output:\n%s", task.Expected)
	}

	return []llm.Message{
		{Role: llm.RoleSystem, Content: system.String()},
		{Role: llm.RoleUser, Content: user.String()},
	}
}

// toolSchemas 返回角色声明且已注册的工具 schema, 未注册的跳过并告警.
func (a *ResearchAgent) toolSchemas() []llm.ToolSchema {
	if a.registry == nil || len(a.role.Tools) == 0 {
		return nil
	}
	schemas := make([]llm.ToolSchema, 0, len(a.role.Tools))
	for _, name := range a.role.Tools {
		_, meta, err := a.registry.Get(name)
		if err != nil {
			a.logger.Warn("tool not registered, skipping", zap.String("tool", name))
			continue
		}
		schemas = append(schemas, meta.Schema)
	}
	return schemas
}

// logTokens 记录本次任务消息的估算 token 数, 用于观察上下文规模.
func (a *ResearchAgent) logTokens(model string, messages []llm.Message, output string) {
	tok := tokenizer.GetTokenizerOrEstimator(model)
	tokMessages := make([]tokenizer.Message, 0, len(messages))
	for _, m := range messages {
		tokMessages = append(tokMessages, tokenizer.Message{Role: string(m.Role), Content: m.Content})
	}
	prompt, err := tok.CountMessages(tokMessages)
	if err != nil {
		return
	}
	completion, err := tok.CountTokens(output)
	if err != nil {
		return
	}
	a.logger.Debug("token estimate",
		zap.String("tokenizer", tok.Name()),
		zap.Int("prompt_tokens", prompt),
		zap.Int("completion_tokens", completion))
}
