package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/papercrew/papercrew/llm"
)

// Slide is one slide of a generated deck.
type Slide struct {
	Title          string   `json:"title"`
	Content        string   `json:"content"`
	Visualizations []string `json:"visualizations,omitempty"`
}

type presentationArgs struct {
	Title                 string  `json:"title"`
	Slides                []Slide `json:"slides"`
	TemplateStyle         string  `json:"template_style,omitempty"`
	IncludeVisualizations *bool   `json:"include_visualizations,omitempty"`
}

type presentationResponse struct {
	Title                  string `json:"title"`
	SlideCount             int    `json:"slide_count"`
	TemplateStyle          string `json:"template_style"`
	EstimatedDuration      string `json:"estimated_duration"`
	ContentGenerated       string `json:"content_generated"`
	IncludesVisualizations bool   `json:"includes_visualizations"`
	FileFormat             string `json:"file_format"`
	FileSize               int    `json:"file_size"`
	Timestamp              string `json:"timestamp"`
}

// NewPresentationTool creates a ToolFunc that renders a slide deck outline
// with an estimated speaking duration (2 minutes per slide).
func NewPresentationTool(logger *zap.Logger) (ToolFunc, ToolMetadata) {
	if logger == nil {
		logger = zap.NewNop()
	}

	fn := func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
		var params presentationArgs
		if err := json.Unmarshal(args, &params); err != nil {
			return nil, fmt.Errorf("invalid presentation arguments: %w", err)
		}
		if params.Title == "" {
			return nil, fmt.Errorf("missing required field: title")
		}
		if len(params.Slides) == 0 {
			return nil, fmt.Errorf("missing required field: slides")
		}

		style := params.TemplateStyle
		if style == "" {
			style = "Professional"
		}
		includeViz := true
		if params.IncludeVisualizations != nil {
			includeViz = *params.IncludeVisualizations
		}

		content := renderDeckOutline(params.Title, params.Slides, style, includeViz)

		resp := presentationResponse{
			Title:                  params.Title,
			SlideCount:             len(params.Slides),
			TemplateStyle:          style,
			EstimatedDuration:      estimateDuration(len(params.Slides)),
			ContentGenerated:       content,
			IncludesVisualizations: includeViz,
			FileFormat:             "PPTX",
			FileSize:               len(content),
			Timestamp:              time.Now().UTC().Format(time.RFC3339),
		}
		return json.Marshal(resp)
	}

	meta := ToolMetadata{
		Schema: llm.ToolSchema{
			Name:        "presentation",
			Description: "Create professional PowerPoint presentations with custom slides, layouts, and content.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"title": {"type": "string"},
					"slides": {"type": "array", "items": {"type": "object"}},
					"template_style": {"type": "string"},
					"include_visualizations": {"type": "boolean"}
				},
				"required": ["title", "slides"]
			}`),
		},
	}
	return fn, meta
}

func renderDeckOutline(title string, slides []Slide, style string, includeViz bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "PowerPoint Presentation: %s\n", title)
	fmt.Fprintf(&b, "Style: %s\n", style)
	fmt.Fprintf(&b, "Slides: %d\n", len(slides))

	for i, slide := range slides {
		slideTitle := slide.Title
		if slideTitle == "" {
			slideTitle = "Untitled"
		}
		content := slide.Content
		if content == "" {
			content = "No content"
		}
		fmt.Fprintf(&b, "\nSlide %d: %s\n", i+1, slideTitle)
		fmt.Fprintf(&b, "Content: %s\n", content)
		if includeViz && len(slide.Visualizations) > 0 {
			fmt.Fprintf(&b, "Visualizations: %d\n", len(slide.Visualizations))
		}
	}
	return b.String()
}

// estimateDuration assumes an average of 2 minutes per slide.
func estimateDuration(slideCount int) string {
	minutes := slideCount * 2
	hours := minutes / 60
	remaining := minutes % 60
	if hours > 0 {
		return fmt.Sprintf("%d hour(s) and %d minute(s)", hours, remaining)
	}
	return fmt.Sprintf("%d minutes", minutes)
}
