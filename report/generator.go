package report

import (
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/papercrew/papercrew/crew"
	"github.com/papercrew/papercrew/workflow"
)

// 流水线的固定任务数, 完成度按它计算, 被跳过的阶段也计为未完成.
const totalPipelineTasks = 7

const reportVersion = "1.0"

// Metadata 记录一次研究执行的元信息.
type Metadata struct {
	ResearchTopic string                `json:"research_topic"`
	ExecutionDate time.Time             `json:"execution_date"`
	ExecutionTime string                `json:"execution_time"`
	Requirements  workflow.Requirements `json:"paper_requirements"`
	Version       string                `json:"version"`
}

// Section 是报告中一个阶段的通用视图.
type Section struct {
	Completed  bool   `json:"completed"`
	Output     string `json:"output,omitempty"`
	TokensUsed int    `json:"tokens_used,omitempty"`
}

// LiteratureSection 补充文献综述工具给出的检索与缺口信息.
type LiteratureSection struct {
	Section
	DatabasesSearched int      `json:"databases_searched,omitempty"`
	ResearchGaps      []string `json:"research_gaps,omitempty"`
}

// PaperSection 补充论文正文的字数统计.
type PaperSection struct {
	Section
	WordCount int `json:"word_count"`
}

// CitationSection 补充引用检查工具的格式化结果与问题.
type CitationSection struct {
	Section
	CitationStyle       string   `json:"citation_style,omitempty"`
	TotalCitations      int      `json:"total_citations"`
	FormattedReferences []string `json:"formatted_references,omitempty"`
	Issues              []string `json:"citation_issues,omitempty"`
}

// QASection 补充抄袭检测的相似度与建议.
type QASection struct {
	Section
	SimilarityScores map[string]float64 `json:"similarity_scores,omitempty"`
	Recommendations  []string           `json:"recommendations,omitempty"`
}

// PresentationSection 补充演示文稿工具的幻灯片信息.
type PresentationSection struct {
	Section
	SlideCount        int    `json:"slide_count"`
	EstimatedDuration string `json:"estimated_duration,omitempty"`
	Content           string `json:"content,omitempty"`
}

// ExecutionSummary 是执行完成度的概览.
type ExecutionSummary struct {
	TasksCompleted       int     `json:"tasks_completed"`
	TotalTasks           int     `json:"total_tasks"`
	CompletionPercentage float64 `json:"completion_percentage"`
	OverallStatus        string  `json:"overall_status"`
}

// Compliance 回显要求并标记是否满足.
type Compliance struct {
	CitationStyle   string   `json:"citation_style,omitempty"`
	PaperLength     string   `json:"paper_length,omitempty"`
	ResearchType    string   `json:"research_type,omitempty"`
	TargetAudience  string   `json:"target_audience,omitempty"`
	MetRequirements bool     `json:"met_requirements"`
	Issues          []string `json:"issues"`
}

// Summary 汇总执行情况、合规性、成果与问题.
type Summary struct {
	Execution              ExecutionSummary `json:"execution_summary"`
	RequirementsCompliance Compliance       `json:"requirements_compliance"`
	KeyAchievements        []string         `json:"key_achievements"`
	ChallengesEncountered  []string         `json:"challenges_encountered"`
}

// Report 是一次研究执行的完整结构化报告.
type Report struct {
	Metadata         Metadata            `json:"metadata"`
	LiteratureReview LiteratureSection   `json:"literature_review"`
	Methodology      Section             `json:"methodology"`
	DataAnalysis     Section             `json:"data_analysis"`
	ResearchPaper    PaperSection        `json:"research_paper"`
	CitationAnalysis CitationSection     `json:"citation_analysis"`
	QualityAssurance QASection           `json:"quality_assurance"`
	Presentation     PresentationSection `json:"presentation"`
	Summary          Summary             `json:"summary"`
	Recommendations  []string            `json:"recommendations"`
}

// Generator 把流水线结果重塑为结构化报告.
type Generator struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewGenerator 创建报告生成器.
func NewGenerator(logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		logger: logger.With(zap.String("component", "report")),
		now:    time.Now,
	}
}

// Generate 从流水线结果生成报告。缺失或失败的阶段标记为未完成,
// 工具产物（检索、引用检查、抄袭检测、演示文稿）被解析进对应小节。
func (g *Generator) Generate(result *workflow.Result) *Report {
	report := &Report{
		Metadata: Metadata{
			ResearchTopic: result.Topic,
			ExecutionDate: g.now(),
			ExecutionTime: result.Duration.String(),
			Requirements:  result.Requirements,
			Version:       reportVersion,
		},
		LiteratureReview: literatureSection(result.StageResults[workflow.StageLiteratureReview]),
		Methodology:      baseSection(result.StageResults[workflow.StageMethodology]),
		DataAnalysis:     baseSection(result.StageResults[workflow.StageDataAnalysis]),
		ResearchPaper:    paperSection(result.StageResults[workflow.StageWriting]),
		CitationAnalysis: citationSection(result.StageResults[workflow.StageCitations]),
		QualityAssurance: qaSection(result.StageResults[workflow.StageQualityAssurance]),
		Presentation:     presentationSection(result.StageResults[workflow.StagePresentation]),
	}

	report.Summary = g.buildSummary(result, report)
	report.Recommendations = g.buildRecommendations(report)

	g.logger.Info("report generated",
		zap.String("topic", result.Topic),
		zap.Float64("completion", report.Summary.Execution.CompletionPercentage))
	return report
}

func baseSection(tr *crew.TaskResult) Section {
	if tr == nil {
		return Section{}
	}
	return Section{
		Completed:  tr.Error == "",
		Output:     tr.Output,
		TokensUsed: tr.Usage.TotalTokens,
	}
}

func literatureSection(tr *crew.TaskResult) LiteratureSection {
	section := LiteratureSection{Section: baseSection(tr)}
	if tr == nil {
		return section
	}
	var artifact struct {
		SearchResults []json.RawMessage `json:"search_results"`
		ResearchGaps  []string          `json:"research_gaps"`
	}
	if unmarshalArtifact(tr, "literature_review", &artifact) {
		section.DatabasesSearched = len(artifact.SearchResults)
		section.ResearchGaps = artifact.ResearchGaps
	}
	return section
}

func paperSection(tr *crew.TaskResult) PaperSection {
	section := PaperSection{Section: baseSection(tr)}
	section.WordCount = len(strings.Fields(section.Output))
	return section
}

func citationSection(tr *crew.TaskResult) CitationSection {
	section := CitationSection{Section: baseSection(tr)}
	if tr == nil {
		return section
	}
	var artifact struct {
		Style               string   `json:"style"`
		OriginalCount       int      `json:"original_count"`
		FormattedCitations  []string `json:"formatted_citations"`
		ValidationResults   []struct {
			Valid  bool     `json:"valid"`
			Issues []string `json:"issues"`
		} `json:"validation_results"`
	}
	if unmarshalArtifact(tr, "citation_check", &artifact) {
		section.CitationStyle = artifact.Style
		section.TotalCitations = artifact.OriginalCount
		section.FormattedReferences = artifact.FormattedCitations
		for _, v := range artifact.ValidationResults {
			if !v.Valid {
				section.Issues = append(section.Issues, v.Issues...)
			}
		}
	}
	return section
}

func qaSection(tr *crew.TaskResult) QASection {
	section := QASection{Section: baseSection(tr)}
	if tr == nil {
		return section
	}
	var artifact struct {
		SimilarityScores map[string]float64 `json:"similarity_scores"`
		Recommendations  []string           `json:"recommendations"`
	}
	if unmarshalArtifact(tr, "plagiarism_check", &artifact) {
		section.SimilarityScores = artifact.SimilarityScores
		section.Recommendations = artifact.Recommendations
	}
	return section
}

func presentationSection(tr *crew.TaskResult) PresentationSection {
	section := PresentationSection{Section: baseSection(tr)}
	if tr == nil {
		return section
	}
	var artifact struct {
		SlideCount        int    `json:"slide_count"`
		EstimatedDuration string `json:"estimated_duration"`
		ContentGenerated  string `json:"content_generated"`
	}
	if unmarshalArtifact(tr, "presentation", &artifact) {
		section.SlideCount = artifact.SlideCount
		section.EstimatedDuration = artifact.EstimatedDuration
		section.Content = artifact.ContentGenerated
	}
	return section
}

func unmarshalArtifact(tr *crew.TaskResult, tool string, out any) bool {
	raw, ok := tr.Artifacts[tool]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func (g *Generator) buildSummary(result *workflow.Result, report *Report) Summary {
	completed := 0
	for _, tr := range result.StageResults {
		if tr != nil && tr.Error == "" {
			completed++
		}
	}
	percentage := float64(completed) / float64(totalPipelineTasks) * 100
	status := "In Progress"
	if completed == totalPipelineTasks {
		status = "Completed"
	}

	reqs := result.Requirements
	summary := Summary{
		Execution: ExecutionSummary{
			TasksCompleted:       completed,
			TotalTasks:           totalPipelineTasks,
			CompletionPercentage: percentage,
			OverallStatus:        status,
		},
		RequirementsCompliance: Compliance{
			CitationStyle:   reqs.CitationStyle,
			PaperLength:     reqs.PaperLength,
			ResearchType:    reqs.ResearchType,
			TargetAudience:  reqs.TargetAudience,
			MetRequirements: completed == totalPipelineTasks,
			Issues:          []string{},
		},
	}

	if report.LiteratureReview.Completed {
		summary.KeyAchievements = append(summary.KeyAchievements, "Comprehensive literature review completed")
	}
	if report.DataAnalysis.Completed {
		summary.KeyAchievements = append(summary.KeyAchievements, "Advanced data analysis performed")
	}
	if report.ResearchPaper.Completed {
		summary.KeyAchievements = append(summary.KeyAchievements, "High-quality research paper generated")
	}
	if report.Presentation.Completed {
		summary.KeyAchievements = append(summary.KeyAchievements, "Professional presentation created")
	}

	var challenges []string
	for _, tr := range result.StageResults {
		if tr != nil && tr.Error != "" {
			challenges = append(challenges, tr.Error)
		}
	}
	challenges = append(challenges, report.CitationAnalysis.Issues...)
	if len(challenges) == 0 {
		challenges = []string{"No significant challenges reported"}
	}
	summary.ChallengesEncountered = challenges

	return summary
}

// buildRecommendations 根据各小节的信号给出改进建议,
// 无信号时回落到成功完成的默认建议.
func (g *Generator) buildRecommendations(report *Report) []string {
	var recommendations []string

	for _, score := range report.QualityAssurance.SimilarityScores {
		if score > 20 {
			recommendations = append(recommendations, "Consider additional quality review and revisions")
			break
		}
	}
	if len(report.LiteratureReview.ResearchGaps) > 0 {
		recommendations = append(recommendations, "Address identified research gaps in future work")
	}
	if len(report.CitationAnalysis.Issues) > 0 {
		recommendations = append(recommendations, "Review and improve citation formatting")
	}

	if len(recommendations) == 0 {
		return []string{"Research execution completed successfully"}
	}
	return recommendations
}
