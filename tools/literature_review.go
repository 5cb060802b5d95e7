package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/papercrew/papercrew/llm"
)

// Study is one entry surfaced during a systematic review.
type Study struct {
	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	Year        int      `json:"year"`
	Abstract    string   `json:"abstract"`
	Methodology string   `json:"methodology"`
	SampleSize  int      `json:"sample_size"`
	KeyFindings []string `json:"key_findings"`
}

type databaseSearch struct {
	Database     string  `json:"database"`
	ResultsCount int     `json:"results_count"`
	Studies      []Study `json:"studies"`
}

type findingsSynthesis struct {
	NumberOfStudies       int      `json:"number_of_studies"`
	Themes                []string `json:"themes"`
	CommonConclusions     []string `json:"common_conclusions"`
	MethodologicalPattern string   `json:"methodological_patterns"`
	QualityAssessment     string   `json:"quality_assessment"`
}

type literatureReviewArgs struct {
	ResearchQuestion  string   `json:"research_question"`
	InclusionCriteria []string `json:"inclusion_criteria,omitempty"`
	ExclusionCriteria []string `json:"exclusion_criteria,omitempty"`
	Databases         []string `json:"databases,omitempty"`
}

type literatureReviewResponse struct {
	ResearchQuestion  string            `json:"research_question"`
	InclusionCriteria []string          `json:"inclusion_criteria"`
	ExclusionCriteria []string          `json:"exclusion_criteria"`
	DatabasesSearched []string          `json:"databases_searched"`
	SearchResults     []databaseSearch  `json:"search_results"`
	IncludedStudies   []Study           `json:"included_studies"`
	FindingsSynthesis findingsSynthesis `json:"findings_synthesis"`
	ResearchGaps      []string          `json:"research_gaps"`
	Timestamp         string            `json:"timestamp"`
}

// defaultReviewDatabases are searched when the caller does not name any.
var defaultReviewDatabases = []string{"PubMed", "IEEE Xplore", "Google Scholar", "Scopus"}

// NewLiteratureReviewTool creates a ToolFunc that runs a simulated
// systematic review: per-database search, criteria filtering, synthesis of
// themes, and gap identification.
func NewLiteratureReviewTool(logger *zap.Logger) (ToolFunc, ToolMetadata) {
	if logger == nil {
		logger = zap.NewNop()
	}

	fn := func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
		var params literatureReviewArgs
		if err := json.Unmarshal(args, &params); err != nil {
			return nil, fmt.Errorf("invalid literature_review arguments: %w", err)
		}
		if params.ResearchQuestion == "" {
			return nil, fmt.Errorf("research_question is required")
		}

		databases := params.Databases
		if len(databases) == 0 {
			databases = defaultReviewDatabases
		}

		searches := make([]databaseSearch, 0, len(databases))
		var included []Study
		for _, db := range databases {
			studies := searchReviewDatabase(db, params.ResearchQuestion)
			searches = append(searches, databaseSearch{
				Database:     db,
				ResultsCount: len(studies),
				Studies:      studies,
			})
			// 模拟实现：所有检索到的研究都满足纳入标准
			included = append(included, studies...)
		}

		resp := literatureReviewResponse{
			ResearchQuestion:  params.ResearchQuestion,
			InclusionCriteria: params.InclusionCriteria,
			ExclusionCriteria: params.ExclusionCriteria,
			DatabasesSearched: databases,
			SearchResults:     searches,
			IncludedStudies:   included,
			FindingsSynthesis: synthesizeFindings(included),
			ResearchGaps:      identifyResearchGaps(included),
			Timestamp:         time.Now().UTC().Format(time.RFC3339),
		}
		return json.Marshal(resp)
	}

	meta := ToolMetadata{
		Schema: llm.ToolSchema{
			Name:        "literature_review",
			Description: "Conduct systematic literature reviews and synthesize research findings.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"research_question": {"type": "string"},
					"inclusion_criteria": {"type": "array", "items": {"type": "string"}},
					"exclusion_criteria": {"type": "array", "items": {"type": "string"}},
					"databases": {"type": "array", "items": {"type": "string"}}
				},
				"required": ["research_question"]
			}`),
		},
	}
	return fn, meta
}

func searchReviewDatabase(database, query string) []Study {
	return []Study{{
		Title:       fmt.Sprintf("Study on %s in %s", query, database),
		Authors:     []string{"Researcher 1", "Researcher 2"},
		Year:        2023,
		Abstract:    fmt.Sprintf("This study investigates %s using methods specific to %s.", query, database),
		Methodology: "Quantitative analysis",
		SampleSize:  100,
		KeyFindings: []string{
			"Finding 1 related to " + query,
			"Finding 2 related to " + query,
		},
	}}
}

func synthesizeFindings(studies []Study) findingsSynthesis {
	if len(studies) == 0 {
		return findingsSynthesis{
			QualityAssessment: "No studies included for synthesis",
		}
	}

	seen := make(map[string]bool)
	var themes []string
	var conclusions []string
	for _, study := range studies {
		title := study.Title
		if len(title) > 50 {
			title = title[:50]
		}
		theme := "Theme from " + title + "..."
		if !seen[theme] {
			seen[theme] = true
			themes = append(themes, theme)
		}
		conclusions = append(conclusions, study.KeyFindings...)
	}
	if len(conclusions) > 5 {
		conclusions = conclusions[:5]
	}

	return findingsSynthesis{
		NumberOfStudies:       len(studies),
		Themes:                themes,
		CommonConclusions:     conclusions,
		MethodologicalPattern: "Common methods identified",
		QualityAssessment:     "All studies met quality criteria",
	}
}

func identifyResearchGaps(studies []Study) []string {
	if len(studies) == 0 {
		return []string{"No studies found - significant research gap identified"}
	}
	return []string{
		"Limited longitudinal studies in this area",
		"Need for more diverse sample populations",
		"Gap in qualitative research approaches",
		"Insufficient attention to emerging technologies",
	}
}
