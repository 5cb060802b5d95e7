package report

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/papercrew/papercrew/crew"
	"github.com/papercrew/papercrew/workflow"
)

func fullResult() *workflow.Result {
	citationArtifact, _ := json.Marshal(map[string]any{
		"style":               "APA",
		"original_count":      2,
		"formatted_citations": []string{"Doe, J. (2023). X. Y, 4(2), 10-20."},
		"validation_results": []map[string]any{
			{"valid": true, "issues": []string{}},
			{"valid": false, "issues": []string{"Missing required field: year"}},
		},
	})
	plagiarismArtifact, _ := json.Marshal(map[string]any{
		"similarity_scores": map[string]float64{"Academic Database": 8},
		"recommendations":   []string{"Content appears to have acceptable similarity levels."},
	})
	presentationArtifact, _ := json.Marshal(map[string]any{
		"slide_count":        12,
		"estimated_duration": "24 minutes",
		"content_generated":  "Slide 1: Title",
	})
	litArtifact, _ := json.Marshal(map[string]any{
		"search_results": []map[string]any{{"database": "PubMed"}, {"database": "Scopus"}},
		"research_gaps":  []string{"Limited longitudinal studies in this area"},
	})

	stages := map[string]*crew.TaskResult{
		workflow.StageLiteratureReview: {
			TaskID: workflow.StageLiteratureReview, Output: "review text",
			Artifacts: map[string]json.RawMessage{"literature_review": litArtifact},
			Usage:     crew.TokenUsage{TotalTokens: 100},
		},
		workflow.StageMethodology:  {TaskID: workflow.StageMethodology, Output: "methods"},
		workflow.StageDataAnalysis: {TaskID: workflow.StageDataAnalysis, Output: "analysis"},
		workflow.StageWriting:      {TaskID: workflow.StageWriting, Output: "one two three four five"},
		workflow.StageCitations: {
			TaskID: workflow.StageCitations, Output: "references",
			Artifacts: map[string]json.RawMessage{"citation_check": citationArtifact},
		},
		workflow.StageQualityAssurance: {
			TaskID: workflow.StageQualityAssurance, Output: "qa report",
			Artifacts: map[string]json.RawMessage{"plagiarism_check": plagiarismArtifact},
		},
		workflow.StagePresentation: {
			TaskID: workflow.StagePresentation, Output: "deck",
			Artifacts: map[string]json.RawMessage{"presentation": presentationArtifact},
		},
	}

	return &workflow.Result{
		Topic:        "machine learning",
		Requirements: workflow.Requirements{CitationStyle: "APA", ResearchType: "Empirical"},
		StageResults: stages,
		Duration:     3 * time.Minute,
	}
}

func TestGenerator_Generate_Full(t *testing.T) {
	g := NewGenerator(zap.NewNop())
	report := g.Generate(fullResult())

	assert.Equal(t, "machine learning", report.Metadata.ResearchTopic)
	assert.Equal(t, "3m0s", report.Metadata.ExecutionTime)
	assert.Equal(t, "1.0", report.Metadata.Version)

	assert.True(t, report.LiteratureReview.Completed)
	assert.Equal(t, 2, report.LiteratureReview.DatabasesSearched)
	assert.Equal(t, 100, report.LiteratureReview.TokensUsed)
	require.Len(t, report.LiteratureReview.ResearchGaps, 1)

	assert.Equal(t, 5, report.ResearchPaper.WordCount)

	assert.Equal(t, "APA", report.CitationAnalysis.CitationStyle)
	assert.Equal(t, 2, report.CitationAnalysis.TotalCitations)
	assert.Equal(t, []string{"Missing required field: year"}, report.CitationAnalysis.Issues)

	assert.Equal(t, 8.0, report.QualityAssurance.SimilarityScores["Academic Database"])
	assert.Equal(t, 12, report.Presentation.SlideCount)
	assert.Equal(t, "24 minutes", report.Presentation.EstimatedDuration)

	summary := report.Summary.Execution
	assert.Equal(t, 7, summary.TasksCompleted)
	assert.Equal(t, 7, summary.TotalTasks)
	assert.InDelta(t, 100.0, summary.CompletionPercentage, 1e-9)
	assert.Equal(t, "Completed", summary.OverallStatus)

	assert.Contains(t, report.Summary.KeyAchievements, "High-quality research paper generated")
	assert.Contains(t, report.Summary.ChallengesEncountered, "Missing required field: year")

	// Research gaps and citation issues both trigger recommendations
	assert.Contains(t, report.Recommendations, "Address identified research gaps in future work")
	assert.Contains(t, report.Recommendations, "Review and improve citation formatting")
}

func TestGenerator_Generate_Partial(t *testing.T) {
	g := NewGenerator(zap.NewNop())
	result := &workflow.Result{
		Topic: "partial run",
		StageResults: map[string]*crew.TaskResult{
			workflow.StageLiteratureReview: {TaskID: workflow.StageLiteratureReview, Output: "review"},
			workflow.StageMethodology:      {TaskID: workflow.StageMethodology, Error: "stage failed"},
		},
	}
	report := g.Generate(result)

	assert.True(t, report.LiteratureReview.Completed)
	assert.False(t, report.Methodology.Completed)
	assert.False(t, report.Presentation.Completed)

	summary := report.Summary.Execution
	assert.Equal(t, 1, summary.TasksCompleted)
	assert.Equal(t, "In Progress", summary.OverallStatus)
	assert.InDelta(t, 100.0/7.0, summary.CompletionPercentage, 1e-9)
	assert.False(t, report.Summary.RequirementsCompliance.MetRequirements)
	assert.Contains(t, report.Summary.ChallengesEncountered, "stage failed")
}

func TestGenerator_Generate_Clean(t *testing.T) {
	g := NewGenerator(zap.NewNop())
	result := fullResult()

	// Strip the signals that trigger recommendations
	delete(result.StageResults[workflow.StageLiteratureReview].Artifacts, "literature_review")
	delete(result.StageResults[workflow.StageCitations].Artifacts, "citation_check")

	report := g.Generate(result)
	assert.Equal(t, []string{"Research execution completed successfully"}, report.Recommendations)
	assert.Equal(t, []string{"No significant challenges reported"}, report.Summary.ChallengesEncountered)
}

func TestGenerator_HighSimilarityRecommendation(t *testing.T) {
	g := NewGenerator(zap.NewNop())
	result := fullResult()

	artifact, _ := json.Marshal(map[string]any{
		"similarity_scores": map[string]float64{"Academic Database": 24},
	})
	result.StageResults[workflow.StageQualityAssurance].Artifacts["plagiarism_check"] = artifact

	report := g.Generate(result)
	assert.Contains(t, report.Recommendations, "Consider additional quality review and revisions")
}

func TestBuildArchive(t *testing.T) {
	g := NewGenerator(zap.NewNop())
	result := fullResult()
	report := g.Generate(result)

	data, err := BuildArchive(report, result)
	require.NoError(t, err)

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	files := make(map[string]string)
	for _, f := range reader.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		files[f.Name] = string(content)
	}

	assert.Contains(t, files, "research_paper.txt")
	assert.Equal(t, "one two three four five", files["research_paper.txt"])
	assert.Contains(t, files, "presentation.txt")
	assert.Contains(t, files, "literature_review.json")
	assert.Contains(t, files, "quality_assurance.json")
	assert.Contains(t, files, "execution_summary.json")
	assert.Contains(t, files, "stage_results.json")

	var archived Report
	require.NoError(t, json.Unmarshal([]byte(files["execution_summary.json"]), &archived))
	assert.Equal(t, "machine learning", archived.Metadata.ResearchTopic)
}

func TestBuildArchive_NilReport(t *testing.T) {
	_, err := BuildArchive(nil, nil)
	assert.Error(t, err)
}

func TestBuildArchive_EmptySectionsOmitted(t *testing.T) {
	g := NewGenerator(zap.NewNop())
	result := &workflow.Result{Topic: "empty", StageResults: map[string]*crew.TaskResult{}}
	report := g.Generate(result)

	data, err := BuildArchive(report, result)
	require.NoError(t, err)

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	names := make([]string, 0, len(reader.File))
	for _, f := range reader.File {
		names = append(names, f.Name)
	}
	assert.NotContains(t, names, "research_paper.txt")
	assert.NotContains(t, names, "literature_review.json")
	assert.Contains(t, names, "execution_summary.json")
}
