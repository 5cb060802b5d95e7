package tools

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/papercrew/papercrew/llm"
)

type dataVizArgs struct {
	Title       string             `json:"title,omitempty"`
	Description string             `json:"description,omitempty"`
	Source      string             `json:"source,omitempty"`
	Values      []float64          `json:"values,omitempty"`
	ChartType   string             `json:"chart_type,omitempty"`
	Custom      *vizCustomization  `json:"customization,omitempty"`
}

type vizCustomization struct {
	Style  string `json:"style,omitempty"`
	Colors string `json:"colors,omitempty"`
}

type chartDetails struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DataPoints  int    `json:"data_points"`
	ChartStyle  string `json:"chart_style"`
	ColorScheme string `json:"color_scheme"`
}

type vizDetails struct {
	ChartDetails chartDetails `json:"chart_details"`
	ImageData    string       `json:"image_data"`
	FileFormat   string       `json:"file_format"`
	Dimensions   string       `json:"dimensions"`
	Interactive  bool         `json:"interactive"`
}

type accessibilityFeatures struct {
	AltText            string `json:"alt_text"`
	ColorBlindFriendly bool   `json:"color_blind_friendly"`
	DataLabels         bool   `json:"data_labels"`
	LegendIncluded     bool   `json:"legend_included"`
	HighContrast       bool   `json:"high_contrast"`
}

type dataVizResponse struct {
	ChartType            string                `json:"chart_type"`
	DataSource           string                `json:"data_source"`
	VisualizationDetails vizDetails            `json:"visualization_details"`
	Accessibility        accessibilityFeatures `json:"accessibility_features"`
	Timestamp            string                `json:"timestamp"`
}

// NewDataVizTool creates a ToolFunc that renders chart placeholders for
// report and slide embedding. The image payload is a base64 stand-in; chart
// metadata and accessibility features are fully populated.
func NewDataVizTool(logger *zap.Logger) (ToolFunc, ToolMetadata) {
	if logger == nil {
		logger = zap.NewNop()
	}

	fn := func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
		var params dataVizArgs
		if err := json.Unmarshal(args, &params); err != nil {
			return nil, fmt.Errorf("invalid data_visualization arguments: %w", err)
		}
		if params.Title == "" && len(params.Values) == 0 {
			return nil, fmt.Errorf("no data provided for visualization")
		}

		chartType := params.ChartType
		if chartType == "" {
			chartType = "bar"
		}
		source := params.Source
		if source == "" {
			source = "Research analysis"
		}

		title := params.Title
		if title == "" {
			title = capitalize(chartType) + " Chart"
		}
		description := params.Description
		if description == "" {
			description = fmt.Sprintf("Visualization of %s data", chartType)
		}

		style := "default"
		colors := "auto"
		if params.Custom != nil {
			if params.Custom.Style != "" {
				style = params.Custom.Style
			}
			if params.Custom.Colors != "" {
				colors = params.Custom.Colors
			}
		}

		resp := dataVizResponse{
			ChartType:  chartType,
			DataSource: source,
			VisualizationDetails: vizDetails{
				ChartDetails: chartDetails{
					Title:       title,
					Description: description,
					DataPoints:  len(params.Values),
					ChartStyle:  style,
					ColorScheme: colors,
				},
				ImageData:  chartPlaceholder(chartType, title),
				FileFormat: "PNG",
				Dimensions: "800x600 pixels",
			},
			Accessibility: accessibilityFeatures{
				AltText:            capitalize(chartType) + " chart visualization",
				ColorBlindFriendly: true,
				DataLabels:         true,
				LegendIncluded:     true,
				HighContrast:       true,
			},
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		return json.Marshal(resp)
	}

	meta := ToolMetadata{
		Schema: llm.ToolSchema{
			Name:        "data_visualization",
			Description: "Create professional data visualizations, charts, and graphs for presentations and reports.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"title": {"type": "string"},
					"values": {"type": "array", "items": {"type": "number"}},
					"chart_type": {"type": "string"},
					"customization": {"type": "object"}
				}
			}`),
		},
	}
	return fn, meta
}

func chartPlaceholder(chartType, title string) string {
	payload := fmt.Sprintf("%s chart image for data: %s", chartType, title)
	return base64.StdEncoding.EncodeToString([]byte(payload))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
