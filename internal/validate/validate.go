// Package validate enforces per-field syntax rules and scores how well a
// confirmed value matches a candidate OCR fragment.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/agext/levenshtein"
	"github.com/shopspring/decimal"

	"docparse/internal/entity"
)

const maxDocumentIDLen = 70

var (
	reTaxID = regexp.MustCompile(`^([A-Z]{2})?[0-9A-Z]{8,12}$`)
	reRegID = regexp.MustCompile(`^[0-9]{7,14}$`)

	dateLayouts = []string{
		"2006-01-02",
		"2006.01.02",
		"2006/01/02",
		"02.01.2006",
		"02/01/2006",
		"02-01-2006",
		"January 2, 2006",
		"2 January 2006",
	}
)

// Config bounds what counts as a plausible value.
type Config struct {
	// DatePastYears and DateFutureDays bound acceptable document dates
	// around the current time.
	DatePastYears  int
	DateFutureDays int
	// Now is overridable for tests; nil means time.Now.
	Now func() time.Time
}

type Validator struct {
	cfg Config
}

func New(cfg Config) *Validator {
	if cfg.DatePastYears <= 0 {
		cfg.DatePastYears = 10
	}
	if cfg.DateFutureDays <= 0 {
		cfg.DateFutureDays = 62
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Validator{cfg: cfg}
}

// Validate checks value against the syntax rule for kind. A nil result means
// the value is acceptable both for display and for learning.
func (v *Validator) Validate(kind entity.FieldKind, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("%s: blank value", kind)
	}
	switch kind {
	case entity.FieldDate:
		return v.validateDate(value)
	case entity.FieldAmountExclTax, entity.FieldTaxAmount:
		return validateAmount(kind, value)
	case entity.FieldTaxID:
		if !reTaxID.MatchString(strings.ToUpper(value)) {
			return fmt.Errorf("%s: %q does not match tax id pattern", kind, value)
		}
	case entity.FieldRegistrationID:
		if !reRegID.MatchString(value) {
			return fmt.Errorf("%s: %q does not match registration id pattern", kind, value)
		}
	case entity.FieldDocumentID:
		if len(value) > maxDocumentIDLen {
			return fmt.Errorf("%s: value longer than %d chars", kind, maxDocumentIDLen)
		}
	case entity.FieldVATRate:
		return validateAmount(kind, value)
	case entity.FieldCounterpartyName:
		// any non-blank name is acceptable
	default:
		// unknown kinds pass through so the enum stays extendable
	}
	return nil
}

func (v *Validator) validateDate(value string) error {
	var parsed time.Time
	var err error
	for _, layout := range dateLayouts {
		if parsed, err = time.Parse(layout, value); err == nil {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("date: cannot parse %q", value)
	}
	now := v.cfg.Now()
	if parsed.Before(now.AddDate(-v.cfg.DatePastYears, 0, 0)) {
		return fmt.Errorf("date: %q unreasonably far in the past", value)
	}
	if parsed.After(now.AddDate(0, 0, v.cfg.DateFutureDays)) {
		return fmt.Errorf("date: %q unreasonably far in the future", value)
	}
	return nil
}

func validateAmount(kind entity.FieldKind, value string) error {
	d, err := decimal.NewFromString(normalizeAmount(value))
	if err != nil {
		return fmt.Errorf("%s: %q is not a decimal number", kind, value)
	}
	if d.IsNegative() {
		return fmt.Errorf("%s: %q is negative", kind, value)
	}
	return nil
}

func normalizeAmount(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	// European decimal comma when no dot is present
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	return s
}

// MatchQuality scores how well a confirmed value matches a fragment's text,
// in [0,1]. Exact normalized equality scores 1.0; containment and edit
// distance degrade from there.
func (v *Validator) MatchQuality(confirmed, fragmentText string) float64 {
	a := normalizeForMatch(confirmed)
	b := normalizeForMatch(fragmentText)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}

	score := levenshtein.Similarity(a, b, levenshtein.NewParams())

	// A fragment often carries the value plus surrounding label text; reward
	// containment by the length ratio instead of the raw edit distance.
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if strings.Contains(longer, shorter) {
		if c := float64(len(shorter)) / float64(len(longer)); c > score {
			score = c
		}
	}
	return score
}

func normalizeForMatch(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), " ")
}
