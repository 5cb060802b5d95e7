package citation

import (
	"fmt"

	"go.uber.org/zap"
)

// ValidationResult reports completeness and format defects for one record.
// Suggestions pair with Issues in order. A record with issues still formats;
// validity only reflects whether the issue list is empty.
type ValidationResult struct {
	Valid       bool     `json:"valid"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

// requiredFields is the fixed check order for Validate.
var requiredFields = []string{"authors", "title", "year", "journal"}

// Validate checks a record for required fields and year format. Missing
// fields and a non-numeric year are reported as issues with paired
// suggestions; nothing here ever blocks formatting.
func (e *Engine) Validate(rec Record) ValidationResult {
	result := ValidationResult{
		Issues:      make([]string, 0),
		Suggestions: make([]string, 0),
	}

	for _, field := range requiredFields {
		if fieldEmpty(rec, field) {
			result.Issues = append(result.Issues, fmt.Sprintf("Missing required field: %s", field))
			result.Suggestions = append(result.Suggestions, fmt.Sprintf("Please provide the %s.", field))
		}
	}

	// Only digit composition is checked, not length; the suggestion text
	// asks for four digits but "123" passes. Kept as-is.
	if rec.Year != "" && !allDigits(rec.Year) {
		result.Issues = append(result.Issues, "Invalid year format")
		result.Suggestions = append(result.Suggestions, "Please provide the year as a 4-digit number.")
	}

	result.Valid = len(result.Issues) == 0
	return result
}

func fieldEmpty(rec Record, field string) bool {
	switch field {
	case "authors":
		return len(rec.Authors) == 0
	case "title":
		return rec.Title == ""
	case "year":
		return rec.Year == ""
	case "journal":
		return rec.Journal == ""
	}
	return false
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// BatchResult pairs one formatted citation with its validation verdict.
// Results are index-aligned with the input records.
type BatchResult struct {
	Formatted  FormattedCitation `json:"formatted"`
	Validation ValidationResult  `json:"validation"`
}

// FormatAndValidateBatch formats and validates every record independently,
// in input order. A panic while formatting one record is downgraded to a
// failed validation verdict for that record only; the rest of the batch is
// unaffected.
func (e *Engine) FormatAndValidateBatch(records []Record, style string) []BatchResult {
	results := make([]BatchResult, 0, len(records))
	for i, rec := range records {
		results = append(results, e.formatOne(i, rec, style))
	}
	return results
}

func (e *Engine) formatOne(index int, rec Record, style string) (result BatchResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("citation formatting fault",
				zap.Int("index", index),
				zap.Any("cause", r))
			result = BatchResult{
				Formatted: FormattedCitation{Style: style},
				Validation: ValidationResult{
					Valid:       false,
					Issues:      []string{fmt.Sprintf("%v", r)},
					Suggestions: []string{},
				},
			}
		}
	}()

	return BatchResult{
		Formatted:  FormattedCitation{Text: e.formatFn(rec, style), Style: style},
		Validation: e.Validate(rec),
	}
}
