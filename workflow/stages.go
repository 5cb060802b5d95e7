package workflow

import (
	"fmt"
	"strings"

	"github.com/papercrew/papercrew/crew"
)

// 流水线的七个阶段, 顺序即依赖顺序（方法论与数据分析并行）.
const (
	StageLiteratureReview = "literature_review"
	StageMethodology      = "methodology"
	StageDataAnalysis     = "data_analysis"
	StageWriting          = "writing"
	StageCitations        = "citation_formatting"
	StageQualityAssurance = "quality_assurance"
	StagePresentation     = "presentation"
)

// Requirements 描述论文的产出要求.
type Requirements struct {
	CitationStyle           string   `json:"citation_style,omitempty"`
	PaperLength             string   `json:"paper_length,omitempty"`
	TargetJournal           string   `json:"target_journal,omitempty"`
	ResearchType            string   `json:"research_type,omitempty"`
	Deadline                string   `json:"deadline,omitempty"`
	TargetAudience          string   `json:"target_audience,omitempty"`
	Keywords                []string `json:"keywords,omitempty"`
	DataSources             []string `json:"data_sources,omitempty"`
	MethodologyRequirements string   `json:"methodology_requirements,omitempty"`
	FormattingRequirements  string   `json:"formatting_requirements,omitempty"`
	EnablePlagiarismCheck   *bool    `json:"enable_plagiarism_check,omitempty"`
	EnableDataAnalysis      *bool    `json:"enable_data_analysis,omitempty"`
	EnablePresentation      *bool    `json:"enable_presentation,omitempty"`
}

func enabled(flag *bool) bool { return flag == nil || *flag }

// Summary 把要求拼成提示词里可读的清单, 空字段跳过.
func (r Requirements) Summary() string {
	var b strings.Builder
	write := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "- %s: %s\n", label, value)
		}
	}
	write("Citation style", r.CitationStyle)
	write("Paper length", r.PaperLength)
	write("Target journal", r.TargetJournal)
	write("Research type", r.ResearchType)
	write("Deadline", r.Deadline)
	write("Target audience", r.TargetAudience)
	write("Keywords", strings.Join(r.Keywords, ", "))
	write("Preferred data sources", strings.Join(r.DataSources, ", "))
	write("Methodology requirements", r.MethodologyRequirements)
	write("Formatting requirements", r.FormattingRequirements)
	return b.String()
}

// stageDef 定义一个阶段：负责角色、任务模板与跳过条件.
type stageDef struct {
	id   string
	role string
	skip func(Requirements) bool
	task func(topic, taskContext string) crew.Task
}

// pipelineStages 返回按依赖分组的阶段：组内并行, 组间顺序执行.
func pipelineStages() [][]stageDef {
	return [][]stageDef{
		{
			{
				id:   StageLiteratureReview,
				role: crew.RoleLiteratureReviewer,
				task: func(topic, taskContext string) crew.Task {
					return crew.Task{
						ID:         StageLiteratureReview,
						AssignedTo: crew.RoleLiteratureReviewer,
						Context:    taskContext,
						Description: fmt.Sprintf(
							"Conduct comprehensive literature review on '%s'. "+
								"Identify key papers, theories, and research gaps. "+
								"Focus on recent publications (last 5 years) and seminal works. "+
								"Provide summary of findings with proper citations.", topic),
						Expected: "Detailed literature review report including:\n" +
							"- Summary of key findings\n" +
							"- Identified research gaps\n" +
							"- Relevant theoretical frameworks\n" +
							"- Proper citations in the required format",
					}
				},
			},
		},
		{
			{
				id:   StageMethodology,
				role: crew.RoleMethodologyExpert,
				task: func(topic, taskContext string) crew.Task {
					return crew.Task{
						ID:         StageMethodology,
						AssignedTo: crew.RoleMethodologyExpert,
						Context:    taskContext,
						Description: fmt.Sprintf(
							"Design research methodology for '%s' based on the literature review. "+
								"Determine appropriate research methods, data collection techniques, "+
								"and analysis approaches. Ensure methodology aligns with research objectives.", topic),
						Expected: "Comprehensive methodology section including:\n" +
							"- Research design justification\n" +
							"- Data collection methods\n" +
							"- Analysis techniques\n" +
							"- Ethical considerations\n" +
							"- Limitations discussion",
					}
				},
			},
			{
				id:   StageDataAnalysis,
				role: crew.RoleDataAnalyst,
				skip: func(r Requirements) bool { return !enabled(r.EnableDataAnalysis) },
				task: func(topic, taskContext string) crew.Task {
					return crew.Task{
						ID:         StageDataAnalysis,
						AssignedTo: crew.RoleDataAnalyst,
						Context:    taskContext,
						Description: fmt.Sprintf(
							"Analyze available data for '%s' research. "+
								"Apply appropriate statistical methods and data analysis techniques. "+
								"Generate insights and findings based on the data analysis.", topic),
						Expected: "Data analysis report with:\n" +
							"- Statistical analysis results\n" +
							"- Data visualizations\n" +
							"- Key findings summary\n" +
							"- Interpretation of results",
					}
				},
			},
		},
		{
			{
				id:   StageWriting,
				role: crew.RoleWritingSpecialist,
				task: func(topic, taskContext string) crew.Task {
					return crew.Task{
						ID:         StageWriting,
						AssignedTo: crew.RoleWritingSpecialist,
						Context:    taskContext,
						Description: fmt.Sprintf(
							"Write the research paper on '%s' incorporating findings from "+
								"literature review, data analysis, and methodology. Ensure academic writing "+
								"style and proper structure. Follow the specified formatting requirements.", topic),
						Expected: "Complete research paper including:\n" +
							"- Abstract\n- Introduction\n- Literature review\n- Methodology\n" +
							"- Results\n- Discussion\n- Conclusion\n- References",
					}
				},
			},
		},
		{
			{
				id:   StageCitations,
				role: crew.RoleCitationExpert,
				task: func(topic, taskContext string) crew.Task {
					return crew.Task{
						ID:         StageCitations,
						AssignedTo: crew.RoleCitationExpert,
						Context:    taskContext,
						Description: fmt.Sprintf(
							"Review and format all citations and references for the '%s' paper. "+
								"Ensure compliance with the specified citation style (APA, MLA, Chicago, etc.). "+
								"Check for any missing or incorrect citations.", topic),
						Expected: "Formatted reference list and in-text citations that comply with the " +
							"specified citation style. All sources properly cited and referenced.",
					}
				},
			},
		},
		{
			{
				id:   StageQualityAssurance,
				role: crew.RoleQualityAssurance,
				skip: func(r Requirements) bool { return !enabled(r.EnablePlagiarismCheck) },
				task: func(topic, taskContext string) crew.Task {
					return crew.Task{
						ID:         StageQualityAssurance,
						AssignedTo: crew.RoleQualityAssurance,
						Context:    taskContext,
						Description: fmt.Sprintf(
							"Conduct quality assurance review of the complete '%s' research paper. "+
								"Check for content accuracy, logical flow, grammar, and adherence to academic standards. "+
								"Ensure all paper requirements are met.", topic),
						Expected: "Quality assurance report with:\n" +
							"- Content accuracy assessment\n" +
							"- Structure and flow evaluation\n" +
							"- Grammar and style review\n" +
							"- Compliance check against requirements\n" +
							"- Recommendations for improvements",
					}
				},
			},
		},
		{
			{
				id:   StagePresentation,
				role: crew.RolePresentationExpert,
				skip: func(r Requirements) bool { return !enabled(r.EnablePresentation) },
				task: func(topic, taskContext string) crew.Task {
					return crew.Task{
						ID:         StagePresentation,
						AssignedTo: crew.RolePresentationExpert,
						Context:    taskContext,
						Description: fmt.Sprintf(
							"Create a professional PowerPoint presentation based on the '%s' research paper. "+
								"Design compelling slides that effectively communicate the research findings to an academic audience. "+
								"Include appropriate visualizations, charts, and key points.", topic),
						Expected: "Professional PowerPoint presentation with:\n" +
							"- Title slide with research details\n" +
							"- Introduction and background slides\n" +
							"- Methodology overview\n" +
							"- Key findings presentation\n" +
							"- Data visualizations and charts\n" +
							"- Conclusion and implications\n" +
							"- References slide",
					}
				},
			},
		},
	}
}
