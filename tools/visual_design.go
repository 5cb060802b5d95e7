package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/papercrew/papercrew/llm"
)

// ColorPalette maps palette roles to hex colors.
type ColorPalette struct {
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary"`
	Accent     string `json:"accent"`
	Background string `json:"background"`
	Text       string `json:"text"`
}

// 可选配色方案；未知方案回退到 Professional Blue。
var colorPalettes = map[string]ColorPalette{
	"Professional Blue": {
		Primary:    "#1f77b4",
		Secondary:  "#ff7f0e",
		Accent:     "#2ca02c",
		Background: "#ffffff",
		Text:       "#333333",
	},
	"Corporate Grey": {
		Primary:    "#444444",
		Secondary:  "#666666",
		Accent:     "#007acc",
		Background: "#f5f5f5",
		Text:       "#000000",
	},
	"Academic Green": {
		Primary:    "#2e7d32",
		Secondary:  "#81c784",
		Accent:     "#ffd54f",
		Background: "#ffffff",
		Text:       "#333333",
	},
}

type typographySpec struct {
	Headings string `json:"headings"`
	BodyText string `json:"body_text"`
	Captions string `json:"captions"`
}

type designSpecifications struct {
	ColorPalette   ColorPalette      `json:"color_palette"`
	Typography     typographySpec    `json:"typography"`
	LayoutGrids    map[string]string `json:"layout_grids"`
	DesignElements []string          `json:"design_elements"`
	Spacing        map[string]string `json:"spacing"`
}

type designAsset struct {
	Type        string       `json:"type"`
	Description string       `json:"description"`
	ColorScheme ColorPalette `json:"color_scheme"`
	Dimensions  string       `json:"dimensions"`
	Format      string       `json:"format"`
}

type complianceCheck struct {
	OverallCompliance bool     `json:"overall_compliance"`
	Issues            []string `json:"issues"`
	Recommendations   []string `json:"recommendations"`
}

type visualDesignArgs struct {
	RequiredElements []string `json:"required_elements,omitempty"`
	ColorScheme      string   `json:"color_scheme,omitempty"`
	FontStyle        string   `json:"font_style,omitempty"`
}

type visualDesignResponse struct {
	ColorScheme          string               `json:"color_scheme"`
	FontStyle            string               `json:"font_style"`
	RequiredElements     []string             `json:"required_elements"`
	DesignSpecifications designSpecifications `json:"design_specifications"`
	DesignAssets         []designAsset        `json:"design_assets"`
	ComplianceCheck      complianceCheck      `json:"compliance_check"`
	Timestamp            string               `json:"timestamp"`
}

// NewVisualDesignTool creates a ToolFunc that produces slide design
// specifications: color palette, typography, layout grids, assets, and an
// accessibility compliance verdict.
func NewVisualDesignTool(logger *zap.Logger) (ToolFunc, ToolMetadata) {
	if logger == nil {
		logger = zap.NewNop()
	}

	fn := func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
		var params visualDesignArgs
		if err := json.Unmarshal(args, &params); err != nil {
			return nil, fmt.Errorf("invalid visual_design arguments: %w", err)
		}

		scheme := params.ColorScheme
		if scheme == "" {
			scheme = "Professional Blue"
		}
		font := params.FontStyle
		if font == "" {
			font = "Clean Sans"
		}

		palette, ok := colorPalettes[scheme]
		if !ok {
			palette = colorPalettes["Professional Blue"]
		}

		specs := designSpecifications{
			ColorPalette: palette,
			Typography: typographySpec{
				Headings: font + " Bold, 32pt",
				BodyText: font + " Regular, 18pt",
				Captions: font + " Light, 14pt",
			},
			LayoutGrids: map[string]string{
				"title_slide":   "Full-width title with subtitle",
				"content_slide": "Two-column layout with image option",
				"data_slide":    "Chart-focused with supporting text",
			},
			DesignElements: params.RequiredElements,
			Spacing: map[string]string{
				"margins":         "1 inch",
				"line_height":     "1.2",
				"element_spacing": "0.5 inch",
			},
		}

		resp := visualDesignResponse{
			ColorScheme:          scheme,
			FontStyle:            font,
			RequiredElements:     params.RequiredElements,
			DesignSpecifications: specs,
			DesignAssets:         buildDesignAssets(palette),
			ComplianceCheck:      checkDesignCompliance(specs),
			Timestamp:            time.Now().UTC().Format(time.RFC3339),
		}
		return json.Marshal(resp)
	}

	meta := ToolMetadata{
		Schema: llm.ToolSchema{
			Name:        "visual_design",
			Description: "Create visually appealing designs, layouts, and visual elements for presentations.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"required_elements": {"type": "array", "items": {"type": "string"}},
					"color_scheme": {"type": "string"},
					"font_style": {"type": "string"}
				}
			}`),
		},
	}
	return fn, meta
}

func buildDesignAssets(palette ColorPalette) []designAsset {
	types := []string{"icons", "charts", "infographics", "templates"}
	assets := make([]designAsset, 0, len(types))
	for _, t := range types {
		assets = append(assets, designAsset{
			Type:        t,
			Description: fmt.Sprintf("Professional %s matching the design specifications", t),
			ColorScheme: palette,
			Dimensions:  "Varies by usage",
			Format:      "Vector/SVG",
		})
	}
	return assets
}

// checkDesignCompliance verifies the generated specification against
// accessibility baselines: body text must be at least 14pt.
func checkDesignCompliance(specs designSpecifications) complianceCheck {
	issues := make([]string, 0)

	if size := parseFontSize(specs.Typography.BodyText); size > 0 && size < 14 {
		issues = append(issues, "Body text font size too small for presentations")
	}

	recommendations := []string{"Design meets all compliance standards"}
	if len(issues) > 0 {
		recommendations = []string{"Increase body text font size to at least 18pt"}
	}

	return complianceCheck{
		OverallCompliance: len(issues) == 0,
		Issues:            issues,
		Recommendations:   recommendations,
	}
}

// parseFontSize extracts the "NNpt" size from a typography line like
// "Clean Sans Regular, 18pt". Returns 0 when the line has no size suffix.
func parseFontSize(line string) int {
	idx := strings.LastIndex(line, ", ")
	if idx < 0 {
		return 0
	}
	size := strings.TrimSuffix(line[idx+2:], "pt")
	n, err := strconv.Atoi(size)
	if err != nil {
		return 0
	}
	return n
}
