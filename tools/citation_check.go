package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/papercrew/papercrew/citation"
	"github.com/papercrew/papercrew/llm"
)

type citationCheckArgs struct {
	Citations []citation.Record `json:"citations"`
	Style     string            `json:"style,omitempty"`
}

type citationValidationEntry struct {
	CitationID  int      `json:"citation_id"`
	Valid       bool     `json:"valid"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

type citationCheckResponse struct {
	Style              string                    `json:"style"`
	OriginalCount      int                       `json:"original_count"`
	FormattedCitations []string                  `json:"formatted_citations"`
	ValidationResults  []citationValidationEntry `json:"validation_results"`
	Timestamp          string                    `json:"timestamp"`
}

// NewCitationCheckTool creates a ToolFunc wrapping the citation engine:
// formats every record in the requested style and validates it for
// completeness. Defaults to APA when no style is given.
func NewCitationCheckTool(engine *citation.Engine, logger *zap.Logger) (ToolFunc, ToolMetadata) {
	if logger == nil {
		logger = zap.NewNop()
	}

	fn := func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
		var params citationCheckArgs
		if err := json.Unmarshal(args, &params); err != nil {
			return nil, fmt.Errorf("invalid citation_check arguments: %w", err)
		}
		style := params.Style
		if style == "" {
			style = "APA"
		}

		batch := engine.FormatAndValidateBatch(params.Citations, style)

		resp := citationCheckResponse{
			Style:              style,
			OriginalCount:      len(params.Citations),
			FormattedCitations: make([]string, 0, len(batch)),
			ValidationResults:  make([]citationValidationEntry, 0, len(batch)),
			Timestamp:          time.Now().UTC().Format(time.RFC3339),
		}
		for i, res := range batch {
			resp.FormattedCitations = append(resp.FormattedCitations, res.Formatted.Text)
			resp.ValidationResults = append(resp.ValidationResults, citationValidationEntry{
				CitationID:  i,
				Valid:       res.Validation.Valid,
				Issues:      res.Validation.Issues,
				Suggestions: res.Validation.Suggestions,
			})
		}
		return json.Marshal(resp)
	}

	meta := ToolMetadata{
		Schema: llm.ToolSchema{
			Name:        "citation_check",
			Description: "Validate citations and format them according to specified citation styles (APA, MLA, Chicago, etc.).",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"citations": {"type": "array", "items": {"type": "object"}},
					"style": {"type": "string", "enum": ["APA", "MLA", "Chicago"]}
				},
				"required": ["citations"]
			}`),
		},
	}
	return fn, meta
}
