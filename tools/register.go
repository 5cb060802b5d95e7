package tools

import (
	"time"

	"go.uber.org/zap"

	"github.com/papercrew/papercrew/citation"
	"github.com/papercrew/papercrew/internal/cache"
)

// ResearchToolsConfig bundles the dependencies of the research tool set.
type ResearchToolsConfig struct {
	CitationEngine   *citation.Engine
	SearchCache      cache.Store
	SearchCacheTTL   time.Duration
	MaxSearchResults int
	SerperAPIKey     string
	Scorer           SimilarityScorer
}

// RegisterResearchTools registers the full research tool set on a registry.
// Missing dependencies fall back to defaults (fresh engine, no cache,
// seeded scorer).
func RegisterResearchTools(registry ToolRegistry, cfg ResearchToolsConfig, logger *zap.Logger) error {
	if cfg.CitationEngine == nil {
		cfg.CitationEngine = citation.NewEngine(logger)
	}

	searchFn, searchMeta := NewAcademicSearchTool(AcademicSearchConfig{
		Cache:        cfg.SearchCache,
		CacheTTL:     cfg.SearchCacheTTL,
		MaxResults:   cfg.MaxSearchResults,
		SerperAPIKey: cfg.SerperAPIKey,
	}, logger)
	if err := registry.Register("academic_search", searchFn, searchMeta); err != nil {
		return err
	}

	reviewFn, reviewMeta := NewLiteratureReviewTool(logger)
	if err := registry.Register("literature_review", reviewFn, reviewMeta); err != nil {
		return err
	}

	citeFn, citeMeta := NewCitationCheckTool(cfg.CitationEngine, logger)
	if err := registry.Register("citation_check", citeFn, citeMeta); err != nil {
		return err
	}

	plagFn, plagMeta := NewPlagiarismCheckTool(cfg.Scorer, logger)
	if err := registry.Register("plagiarism_check", plagFn, plagMeta); err != nil {
		return err
	}

	presFn, presMeta := NewPresentationTool(logger)
	if err := registry.Register("presentation", presFn, presMeta); err != nil {
		return err
	}

	designFn, designMeta := NewVisualDesignTool(logger)
	if err := registry.Register("visual_design", designFn, designMeta); err != nil {
		return err
	}

	vizFn, vizMeta := NewDataVizTool(logger)
	return registry.Register("data_visualization", vizFn, vizMeta)
}
