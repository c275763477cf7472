// Package money parses and combines monetary values extracted from OCR text.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Parse converts an OCR amount string into a decimal. It tolerates thousand
// separators, currency symbols and the European decimal comma.
func Parse(s string) (decimal.Decimal, error) {
	cleaned := clean(s)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("money: empty amount %q", s)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("money: parse %q: %w", s, err)
	}
	return d, nil
}

func clean(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			b.WriteRune(r)
		}
	}
	s = b.String()
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	return s
}

// Sum adds the parseable amounts in values and formats the total with two
// decimal places. Unparseable entries are skipped; ok reports whether at
// least one value contributed.
func Sum(values []string) (total string, ok bool) {
	sum := decimal.Zero
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		d, err := Parse(v)
		if err != nil {
			continue
		}
		sum = sum.Add(d)
		ok = true
	}
	if !ok {
		return "", false
	}
	return sum.StringFixed(2), true
}

// VATRate derives the tax rate (percent, one decimal at most) from a net
// amount and a tax amount. A zero or unparseable net yields ok = false.
func VATRate(netStr, taxStr string) (rate string, ok bool) {
	net, err := Parse(netStr)
	if err != nil || net.IsZero() {
		return "", false
	}
	tax, err := Parse(taxStr)
	if err != nil {
		return "", false
	}
	r := tax.Div(net).Mul(decimal.NewFromInt(100)).Round(1)
	// drop a trailing ".0" so common rates read "21", not "21.0"
	if r.Equal(r.Truncate(0)) {
		return r.Truncate(0).String(), true
	}
	return r.String(), true
}
