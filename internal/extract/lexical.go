// Package extract implements the keyword/regex field extractor and the
// counterparty recognizer. Both are pure functions of their input lines:
// they read the OCR text, never the template store.
package extract

import (
	"log/slog"
	"regexp"
	"strings"

	"docparse/internal/entity"
)

var (
	reDateISO  = regexp.MustCompile(`\b\d{4}[-./]\d{1,2}[-./]\d{1,2}\b`)
	reDateDMY  = regexp.MustCompile(`\b\d{1,2}[-./]\d{1,2}[-./]\d{4}\b`)
	reAmount   = regexp.MustCompile(`\d{1,3}(?:[ ,]\d{3})*(?:[.,]\d{1,2})|\d+[.,]\d{1,2}|\d+`)
	reTaxIDTok = regexp.MustCompile(`\b(?:[A-Z]{2})?[0-9A-Z]{8,12}\b`)
	reRegIDTok = regexp.MustCompile(`\b[0-9]{7,14}\b`)
	reDocIDTok = regexp.MustCompile(`\b[A-Za-z]{0,5}[-/]?[0-9]{2,}[A-Za-z0-9\-/]*\b`)
)

// Lexical scans raw text lines for known labels and extracts field values
// with per-field patterns. It has no spatial knowledge.
type Lexical struct {
	logger *slog.Logger
}

func NewLexical(logger *slog.Logger) *Lexical {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lexical{logger: logger}
}

// Extract walks the lines once per field vocabulary. The first non-blank
// match wins; once a field is set a later keyword hit never overwrites it.
// Fields that are never found simply stay absent.
func (l *Lexical) Extract(lines []string) entity.ParsedFieldSet {
	fields := entity.NewParsedFieldSet()
	for _, line := range lines {
		lower := strings.ToLower(strings.TrimSpace(line))
		if lower == "" {
			continue
		}
		for _, kind := range keywordOrder {
			if fields.Has(kind) {
				continue
			}
			if kw := matchKeyword(lower, fieldKeywords[kind]); kw != "" {
				if v := extractValue(kind, line, lower, kw); v != "" {
					fields.SetIfAbsent(kind, v)
					l.logger.Debug("lexical.field", "kind", kind, "keyword", kw)
				} else {
					l.logger.Debug("lexical.keyword_without_value", "kind", kind, "keyword", kw)
				}
			}
		}
	}
	return fields
}

// CleanFieldValue extracts the value for kind out of a raw fragment text,
// using the same per-field patterns as the lexical scan. When no pattern
// applies the trimmed text itself is returned.
func CleanFieldValue(kind entity.FieldKind, text string) string {
	if v := extractByPattern(kind, text); v != "" {
		return v
	}
	return strings.TrimSpace(text)
}

func matchKeyword(lowerLine string, keywords []string) string {
	for _, kw := range keywords {
		if strings.Contains(lowerLine, kw) {
			return kw
		}
	}
	return ""
}

// extractValue tries the field-specific pattern against the line first and
// falls back to taking whatever follows the key/value separator.
func extractValue(kind entity.FieldKind, line, lowerLine, keyword string) string {
	if v := extractByPattern(kind, line); v != "" {
		return v
	}
	return afterSeparator(line, lowerLine, keyword)
}

func extractByPattern(kind entity.FieldKind, line string) string {
	switch kind {
	case entity.FieldDate:
		if m := reDateISO.FindString(line); m != "" {
			return m
		}
		return reDateDMY.FindString(line)
	case entity.FieldAmountExclTax, entity.FieldTaxAmount:
		// amounts sit at the end of the line; take the last numeric run
		ms := reAmount.FindAllString(line, -1)
		if len(ms) == 0 {
			return ""
		}
		return ms[len(ms)-1]
	case entity.FieldTaxID:
		return reTaxIDTok.FindString(strings.ToUpper(line))
	case entity.FieldRegistrationID:
		return reRegIDTok.FindString(line)
	case entity.FieldDocumentID:
		if v := afterSeparatorRaw(line); v != "" {
			if m := reDocIDTok.FindString(v); m != "" {
				return m
			}
		}
		return ""
	default:
		return ""
	}
}

// afterSeparator returns the remainder of the line past the keyword and a
// key/value separator, cleaned up.
func afterSeparator(line, lowerLine, keyword string) string {
	idx := strings.Index(lowerLine, keyword)
	if idx < 0 {
		return ""
	}
	rest := line[idx+len(keyword):]
	rest = strings.TrimLeft(rest, ":;-– \t")
	return strings.TrimSpace(rest)
}

func afterSeparatorRaw(line string) string {
	if i := strings.IndexAny(line, ":;"); i >= 0 && i+1 < len(line) {
		return strings.TrimSpace(line[i+1:])
	}
	return line
}
