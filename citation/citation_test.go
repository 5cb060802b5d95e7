package citation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fixedClock pins the engine to March so Chicago output is stable.
func fixedClock() time.Time {
	return time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)
}

func newTestEngine() *Engine {
	return NewEngine(zap.NewNop(), WithClock(fixedClock))
}

func fullRecord() Record {
	return Record{
		Authors: []string{"Doe, J."},
		Title:   "X",
		Year:    "2023",
		Journal: "Y",
		Volume:  "4",
		Issue:   "2",
		Pages:   "10-20",
	}
}

func TestFormat_Styles(t *testing.T) {
	e := newTestEngine()

	tests := []struct {
		name  string
		rec   Record
		style string
		want  string
	}{
		{
			name:  "APA full record",
			rec:   fullRecord(),
			style: "APA",
			want:  "Doe, J. (2023). X. Y, 4(2), 10-20.",
		},
		{
			name:  "APA lowercase style selector",
			rec:   fullRecord(),
			style: "apa",
			want:  "Doe, J. (2023). X. Y, 4(2), 10-20.",
		},
		{
			name:  "MLA full record",
			rec:   fullRecord(),
			style: "MLA",
			want:  `Doe, J. "X." Y, vol. 4, no. 2, 2023, pp. 10-20.`,
		},
		{
			name:  "Chicago embeds current month",
			rec:   fullRecord(),
			style: "Chicago",
			want:  `Doe, J. 2023. "X." Y 4, no. 2 (March): 10-20.`,
		},
		{
			name:  "unknown style falls back with doubled period",
			rec:   fullRecord(),
			style: "UNKNOWN",
			want:  "Doe, J.. X. Y, 2023.",
		},
		{
			name:  "empty record still formats",
			rec:   Record{},
			style: "APA",
			want:  " (). . , (), .",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Format(tt.rec, tt.style))
		})
	}
}

func TestFormat_AuthorCollapsing(t *testing.T) {
	e := newTestEngine()

	tests := []struct {
		name    string
		authors []string
		style   string
		want    string // expected author prefix of the formatted string
	}{
		{"APA single", []string{"Smith"}, "APA", "Smith ("},
		{"APA pair", []string{"Smith", "Jones"}, "APA", "Smith & Jones ("},
		{"APA three collapse", []string{"A", "B", "C"}, "APA", "A et al. ("},
		{"MLA three joined", []string{"A", "B", "C"}, "MLA", `A and B and C "`},
		{"MLA four collapse", []string{"A", "B", "C", "D"}, "MLA", `A et al. "`},
		{"Chicago three joined", []string{"A", "B", "C"}, "CHICAGO", "A, B, C "},
		{"Chicago four collapse", []string{"A", "B", "C", "D"}, "CHICAGO", "A et al. "},
		{"fallback never collapses", []string{"A", "B", "C", "D"}, "other", "A, B, C, D."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := fullRecord()
			rec.Authors = tt.authors
			got := e.Format(rec, tt.style)
			assert.True(t, len(got) >= len(tt.want) && got[:len(tt.want)] == tt.want,
				"formatted %q should start with %q", got, tt.want)
		})
	}
}

func TestNewEngine_WithClock(t *testing.T) {
	december := func() time.Time {
		return time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC)
	}
	e := NewEngine(zap.NewNop(), WithClock(december))

	got := e.Format(fullRecord(), "CHICAGO")
	assert.Contains(t, got, "(December)")

	// 默认时钟是 time.Now
	assert.NotNil(t, NewEngine(zap.NewNop()).now)
}

func TestFormatAndValidateBatch_StyleConstants(t *testing.T) {
	e := newTestEngine()
	records := []Record{fullRecord()}

	// Style 常量通过 string() 转换后可直接驱动批量接口
	for _, style := range []Style{StyleAPA, StyleMLA, StyleChicago} {
		results := e.FormatAndValidateBatch(records, string(style))
		require.Len(t, results, 1)
		assert.NotEmpty(t, results[0].Formatted.Text)
		assert.Equal(t, string(style), results[0].Formatted.Style)
	}
}

func TestFormat_Idempotent(t *testing.T) {
	e := newTestEngine()
	rec := fullRecord()

	first := e.Format(rec, "CHICAGO")
	second := e.Format(rec, "CHICAGO")
	assert.Equal(t, first, second)
}

func TestValidate_RequiredFields(t *testing.T) {
	e := newTestEngine()

	tests := []struct {
		name      string
		mutate    func(*Record)
		wantIssue string
	}{
		{"missing authors", func(r *Record) { r.Authors = nil }, "Missing required field: authors"},
		{"missing title", func(r *Record) { r.Title = "" }, "Missing required field: title"},
		{"missing year", func(r *Record) { r.Year = "" }, "Missing required field: year"},
		{"missing journal", func(r *Record) { r.Journal = "" }, "Missing required field: journal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := fullRecord()
			tt.mutate(&rec)

			result := e.Validate(rec)
			assert.False(t, result.Valid)
			require.Len(t, result.Issues, 1)
			assert.Equal(t, tt.wantIssue, result.Issues[0])
			require.Len(t, result.Suggestions, 1)
		})
	}
}

func TestValidate_YearFormat(t *testing.T) {
	e := newTestEngine()

	t.Run("numeric year is valid", func(t *testing.T) {
		result := e.Validate(fullRecord())
		assert.True(t, result.Valid)
		assert.Empty(t, result.Issues)
	})

	t.Run("non-digit year flagged once", func(t *testing.T) {
		rec := fullRecord()
		rec.Year = "20a3"

		result := e.Validate(rec)
		assert.False(t, result.Valid)
		require.Len(t, result.Issues, 1)
		assert.Equal(t, "Invalid year format", result.Issues[0])
		assert.Equal(t, "Please provide the year as a 4-digit number.", result.Suggestions[0])
	})

	t.Run("empty year is missing, not malformed", func(t *testing.T) {
		rec := fullRecord()
		rec.Year = ""

		result := e.Validate(rec)
		require.Len(t, result.Issues, 1)
		assert.Equal(t, "Missing required field: year", result.Issues[0])
	})

	t.Run("short numeric year passes composition check", func(t *testing.T) {
		// Only digit composition is verified, not length.
		rec := fullRecord()
		rec.Year = "123"

		result := e.Validate(rec)
		assert.True(t, result.Valid)
	})
}

func TestValidate_MultipleIssuesOrdered(t *testing.T) {
	e := newTestEngine()

	result := e.Validate(Record{Title: "X"})
	assert.False(t, result.Valid)
	assert.Equal(t, []string{
		"Missing required field: authors",
		"Missing required field: year",
		"Missing required field: journal",
	}, result.Issues)
	assert.Len(t, result.Suggestions, 3)
}

func TestFormatAndValidateBatch_Alignment(t *testing.T) {
	e := newTestEngine()

	records := []Record{
		fullRecord(),
		{Title: "incomplete"},
		{Authors: []string{"Solo"}, Title: "T", Year: "1999", Journal: "J"},
	}

	results := e.FormatAndValidateBatch(records, "APA")
	require.Len(t, results, 3)

	assert.True(t, results[0].Validation.Valid)
	assert.Equal(t, "Doe, J. (2023). X. Y, 4(2), 10-20.", results[0].Formatted.Text)

	assert.False(t, results[1].Validation.Valid)
	assert.Contains(t, results[1].Formatted.Text, "incomplete")

	assert.True(t, results[2].Validation.Valid)
	assert.Equal(t, "APA", results[2].Formatted.Style)
}

func TestFormatAndValidateBatch_FaultIsolation(t *testing.T) {
	e := newTestEngine()
	base := e.formatCitation
	e.formatFn = func(rec Record, style string) string {
		if rec.Title == "boom" {
			panic("template assembly failed")
		}
		return base(rec, style)
	}

	records := []Record{
		fullRecord(),
		{Authors: []string{"A"}, Title: "boom", Year: "2020", Journal: "J"},
		fullRecord(),
	}

	results := e.FormatAndValidateBatch(records, "APA")
	require.Len(t, results, 3)

	assert.True(t, results[0].Validation.Valid)
	assert.NotEmpty(t, results[0].Formatted.Text)

	assert.False(t, results[1].Validation.Valid)
	require.Len(t, results[1].Validation.Issues, 1)
	assert.Equal(t, "template assembly failed", results[1].Validation.Issues[0])
	assert.Empty(t, results[1].Validation.Suggestions)

	assert.True(t, results[2].Validation.Valid)
	assert.NotEmpty(t, results[2].Formatted.Text)
}

func TestFormatAndValidateBatch_Empty(t *testing.T) {
	e := newTestEngine()
	results := e.FormatAndValidateBatch(nil, "APA")
	assert.Empty(t, results)
}
