// =============================================================================
// Package quick — One-Line Research Crew Construction
// =============================================================================
// Provides a convenience entry point for assembling a full research crew and
// pipeline with minimal boilerplate. Delegates to crew, tools, workflow and
// report internally.
//
// The package lives under quick/ (not root) so the root package can re-export
// it without an import cycle.
//
// Usage:
//
//	import "github.com/papercrew/papercrew/quick"
//
//	r, err := quick.New(quick.WithGemini("gemini-2.0-flash"))
//	r, err := quick.New(quick.WithGroq("llama-3.3-70b-versatile"))
//	r, err := quick.New(quick.WithProvider(myProvider))
//
//	rep, err := r.Run(ctx, "sleep deprivation and memory")
//
// =============================================================================
package quick

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/papercrew/papercrew/crew"
	"github.com/papercrew/papercrew/llm"
	"github.com/papercrew/papercrew/llm/providers"
	"github.com/papercrew/papercrew/llm/providers/gemini"
	"github.com/papercrew/papercrew/llm/providers/groq"
	"github.com/papercrew/papercrew/llm/providers/openrouter"
	"github.com/papercrew/papercrew/report"
	"github.com/papercrew/papercrew/tools"
	"github.com/papercrew/papercrew/workflow"
)

// Option configures the researcher created by New.
type Option func(*options)

type options struct {
	name          string
	model         string
	citationStyle string
	provider      llm.Provider
	logger        *zap.Logger

	// Provider shortcut fields — used when provider is nil.
	providerName string
	apiKey       string
}

// WithProvider sets a pre-built LLM provider for all crew roles.
func WithProvider(p llm.Provider) Option {
	return func(o *options) { o.provider = p }
}

// WithGemini creates a Google Gemini provider using the given model.
// API key is read from GEMINI_API_KEY environment variable.
func WithGemini(model string) Option {
	return func(o *options) {
		o.providerName = crew.ProviderGemini
		o.model = model
		if o.apiKey == "" {
			o.apiKey = os.Getenv("GEMINI_API_KEY")
		}
	}
}

// WithOpenRouter creates an OpenRouter provider using the given model.
// API key is read from OPENROUTER_API_KEY environment variable.
func WithOpenRouter(model string) Option {
	return func(o *options) {
		o.providerName = crew.ProviderOpenRouter
		o.model = model
		if o.apiKey == "" {
			o.apiKey = os.Getenv("OPENROUTER_API_KEY")
		}
	}
}

// WithGroq creates a Groq provider using the given model.
// API key is read from GROQ_API_KEY environment variable.
func WithGroq(model string) Option {
	return func(o *options) {
		o.providerName = crew.ProviderGroq
		o.model = model
		if o.apiKey == "" {
			o.apiKey = os.Getenv("GROQ_API_KEY")
		}
	}
}

// WithModel sets the model name. Overrides the model set by provider shortcuts.
func WithModel(model string) Option {
	return func(o *options) { o.model = model }
}

// WithName sets the crew name.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithCitationStyle sets the default citation style (APA, MLA or CHICAGO).
func WithCitationStyle(style string) Option {
	return func(o *options) { o.citationStyle = style }
}

// WithLogger sets a custom zap logger. Defaults to zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithAPIKey overrides the API key for provider shortcuts (WithGemini, etc.).
func WithAPIKey(key string) Option {
	return func(o *options) { o.apiKey = key }
}

// Researcher bundles an assembled crew, pipeline and report generator.
type Researcher struct {
	crew      *crew.Crew
	pipeline  *workflow.Pipeline
	generator *report.Generator
	style     string
}

// New assembles a research crew with minimal configuration. A single provider
// serves every role; use the config package and cmd/papercrew for per-role
// provider routing.
func New(opts ...Option) (*Researcher, error) {
	o := &options{
		name: "papercrew",
	}
	for _, opt := range opts {
		opt(o)
	}

	// Resolve provider.
	p := o.provider
	if p == nil {
		if o.providerName == "" {
			return nil, fmt.Errorf("provider is required: use WithProvider, WithGemini, WithOpenRouter, or WithGroq")
		}
		if o.apiKey == "" {
			return nil, fmt.Errorf("API key is required for %s: set the environment variable or use WithAPIKey", o.providerName)
		}
		base := providers.BaseProviderConfig{APIKey: o.apiKey, Model: o.model}
		switch o.providerName {
		case crew.ProviderGemini:
			p = gemini.NewGeminiProvider(providers.GeminiConfig{BaseProviderConfig: base}, o.logger)
		case crew.ProviderOpenRouter:
			p = openrouter.NewOpenRouterProvider(providers.OpenRouterConfig{BaseProviderConfig: base}, o.logger)
		case crew.ProviderGroq:
			p = groq.NewGroqProvider(providers.GroqConfig{BaseProviderConfig: base}, o.logger)
		default:
			return nil, fmt.Errorf("unknown provider %q", o.providerName)
		}
	}

	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	registry := tools.NewDefaultRegistry(o.logger)
	if err := tools.RegisterResearchTools(registry, tools.ResearchToolsConfig{}, o.logger); err != nil {
		return nil, fmt.Errorf("register research tools: %w", err)
	}
	executor := tools.NewDefaultExecutor(registry, o.logger)

	c := crew.New(crew.Config{Name: o.name, Process: crew.ProcessSequential}, o.logger)
	for _, role := range crew.ResearchRoles() {
		agentOpts := []crew.AgentOption{}
		if o.model != "" {
			agentOpts = append(agentOpts, crew.WithModel(o.model))
		}
		c.AddMember(crew.NewResearchAgent(role, p, registry, executor, o.logger, agentOpts...), role)
	}

	return &Researcher{
		crew:      c,
		pipeline:  workflow.NewPipeline(c, o.logger),
		generator: report.NewGenerator(o.logger),
		style:     o.citationStyle,
	}, nil
}

// Crew returns the assembled crew for advanced configuration.
func (r *Researcher) Crew() *crew.Crew { return r.crew }

// Run executes the full research pipeline on a topic and returns the
// generated report.
func (r *Researcher) Run(ctx context.Context, topic string) (*report.Report, error) {
	result, err := r.pipeline.Run(ctx, workflow.Request{
		Topic:        topic,
		Requirements: workflow.Requirements{CitationStyle: r.style},
	})
	if err != nil {
		return nil, err
	}
	return r.generator.Generate(result), nil
}
