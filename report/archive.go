package report

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/papercrew/papercrew/workflow"
)

// BuildArchive 把报告打包成下载用的 ZIP：
// 论文正文、演示文稿大纲、各阶段 JSON 小节与完整报告。
// 未完成的小节不会产生对应文件。
func BuildArchive(report *Report, result *workflow.Result) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("nil report")
	}

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	writeText := func(name, content string) error {
		if content == "" {
			return nil
		}
		f, err := w.Create(name)
		if err != nil {
			return err
		}
		_, err = f.Write([]byte(content))
		return err
	}
	writeJSON := func(name string, v any) error {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		f, err := w.Create(name)
		if err != nil {
			return err
		}
		_, err = f.Write(data)
		return err
	}

	if err := writeText("research_paper.txt", report.ResearchPaper.Output); err != nil {
		return nil, fmt.Errorf("archive paper: %w", err)
	}
	if err := writeText("presentation.txt", report.Presentation.Content); err != nil {
		return nil, fmt.Errorf("archive presentation: %w", err)
	}
	if report.LiteratureReview.Completed {
		if err := writeJSON("literature_review.json", report.LiteratureReview); err != nil {
			return nil, fmt.Errorf("archive literature review: %w", err)
		}
	}
	if report.DataAnalysis.Completed {
		if err := writeJSON("data_analysis.json", report.DataAnalysis); err != nil {
			return nil, fmt.Errorf("archive data analysis: %w", err)
		}
	}
	if report.QualityAssurance.Completed {
		if err := writeJSON("quality_assurance.json", report.QualityAssurance); err != nil {
			return nil, fmt.Errorf("archive quality assurance: %w", err)
		}
	}
	if err := writeJSON("execution_summary.json", report); err != nil {
		return nil, fmt.Errorf("archive summary: %w", err)
	}

	if result != nil {
		if err := writeJSON("stage_results.json", result.StageResults); err != nil {
			return nil, fmt.Errorf("archive stage results: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return buf.Bytes(), nil
}
