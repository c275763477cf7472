package entity

import (
	"regexp"
	"strings"
)

// FieldRegion is a learned, normalized location for one field. Box is in
// [0,1] coordinates of the image. Confidence reflects the match quality of
// the observations merged into it; SampleCount is how many observations were
// accepted.
type FieldRegion struct {
	Field       FieldKind `json:"field"`
	Box         Rect      `json:"box"`
	Confidence  float64   `json:"confidence"`
	SampleCount int       `json:"sample_count"`
}

// Template is the set of field regions learned for one counterparty.
// At most one region exists per field kind.
type Template struct {
	Regions []FieldRegion `json:"regions"`
}

// Empty reports whether the template has no learned regions.
func (t *Template) Empty() bool { return len(t.Regions) == 0 }

// Region returns the region for kind, or nil when the template has none.
func (t *Template) Region(kind FieldKind) *FieldRegion {
	for i := range t.Regions {
		if t.Regions[i].Field == kind {
			return &t.Regions[i]
		}
	}
	return nil
}

// SetRegion inserts or replaces the region for r.Field.
func (t *Template) SetRegion(r FieldRegion) {
	for i := range t.Regions {
		if t.Regions[i].Field == r.Field {
			t.Regions[i] = r
			return
		}
	}
	t.Regions = append(t.Regions, r)
}

// Clone returns an independent copy.
func (t *Template) Clone() *Template {
	out := &Template{Regions: make([]FieldRegion, len(t.Regions))}
	copy(out.Regions, t.Regions)
	return out
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeKey lower-cases a counterparty identifier and strips everything
// that is not a letter or digit, so that "LT 300581697" and "lt300581697"
// address the same template.
func NormalizeKey(key string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(key), "")
}
