// Package papercrew provides a top-level convenience entry point for running
// research pipelines with minimal boilerplate.
//
// Usage:
//
//	import "github.com/papercrew/papercrew"
//
//	r, err := papercrew.New(papercrew.WithGemini("gemini-2.0-flash"))
//	r, err := papercrew.New(papercrew.WithGroq("llama-3.3-70b-versatile"))
//	r, err := papercrew.New(papercrew.WithProvider(myProvider), papercrew.WithModel("custom"))
//
// This is a thin wrapper around [quick.New]; both produce identical results.
// Use this package when you prefer the shorter import path.
package papercrew

import (
	"github.com/papercrew/papercrew/quick"
)

// Option configures the researcher created by [New].
type Option = quick.Option

// Researcher bundles an assembled crew, pipeline and report generator.
type Researcher = quick.Researcher

// New assembles a [quick.Researcher] with minimal configuration.
// At minimum, a provider must be specified via [WithGemini], [WithOpenRouter],
// [WithGroq], or [WithProvider].
func New(opts ...Option) (*Researcher, error) {
	return quick.New(opts...)
}

// Re-export provider shortcuts so callers never need to import quick/.

// WithProvider sets a pre-built LLM provider for all crew roles.
var WithProvider = quick.WithProvider

// WithGemini creates a Google Gemini provider. API key from GEMINI_API_KEY env.
var WithGemini = quick.WithGemini

// WithOpenRouter creates an OpenRouter provider. API key from OPENROUTER_API_KEY env.
var WithOpenRouter = quick.WithOpenRouter

// WithGroq creates a Groq provider. API key from GROQ_API_KEY env.
var WithGroq = quick.WithGroq

// WithModel overrides the model name.
var WithModel = quick.WithModel

// WithName sets the crew name.
var WithName = quick.WithName

// WithCitationStyle sets the default citation style.
var WithCitationStyle = quick.WithCitationStyle

// WithLogger sets a custom zap logger.
var WithLogger = quick.WithLogger

// WithAPIKey overrides the API key for provider shortcuts.
var WithAPIKey = quick.WithAPIKey
