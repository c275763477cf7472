package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRectNormalize(t *testing.T) {
	r := Rect{X: 600, Y: 100, Width: 200, Height: 40}
	n := r.Normalize(ImageSize{Width: 1000, Height: 1000})
	assert.Equal(t, Rect{X: 0.6, Y: 0.1, Width: 0.2, Height: 0.04}, n)

	// unknown dimensions leave the rect untouched
	assert.Equal(t, r, r.Normalize(ImageSize{}))
}

func TestRectIntersects(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 1, Height: 1}
	assert.True(t, a.Intersects(Rect{X: 0.5, Y: 0.5, Width: 1, Height: 1}))
	assert.False(t, a.Intersects(Rect{X: 2, Y: 0, Width: 1, Height: 1}))
	// touching edges do not overlap
	assert.False(t, a.Intersects(Rect{X: 1, Y: 0, Width: 1, Height: 1}))
}

func TestRectExpandAndCenter(t *testing.T) {
	r := Rect{X: 0.4, Y: 0.2, Width: 0.2, Height: 0.1}.Expand(0.05)
	assert.InDelta(t, 0.35, r.X, 1e-9)
	assert.InDelta(t, 0.3, r.Width, 1e-9)

	cx, cy := Rect{X: 0.4, Y: 0.2, Width: 0.2, Height: 0.1}.Center()
	assert.InDelta(t, 0.5, cx, 1e-9)
	assert.InDelta(t, 0.25, cy, 1e-9)
}

func TestGroupByPagePreservesOrder(t *testing.T) {
	groups := GroupByPage([]TextFragment{
		{Text: "a", Page: 1},
		{Text: "b", Page: 0},
		{Text: "c", Page: 1},
	})
	assert.Len(t, groups, 2)
	assert.Equal(t, "a", groups[0][0].Text)
	assert.Equal(t, "c", groups[0][1].Text)
	assert.Equal(t, "b", groups[1][0].Text)
}

func TestParsedFieldSetSetIfAbsent(t *testing.T) {
	s := NewParsedFieldSet()
	s.SetIfAbsent(FieldDate, "2025-12-01")
	s.SetIfAbsent(FieldDate, "1999-01-01")
	assert.Equal(t, "2025-12-01", s.Get(FieldDate))

	// blank values never occupy a slot
	s.SetIfAbsent(FieldTaxID, "  ")
	assert.False(t, s.Has(FieldTaxID))
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "lt300581697", NormalizeKey(" LT-300 581 697 "))
	assert.Equal(t, "uabtavofinansininkas", NormalizeKey("UAB Tavo Finansininkas"))
	assert.Equal(t, "", NormalizeKey("  ---  "))
}

func TestCounterpartyKeysPreferenceOrder(t *testing.T) {
	cand := CounterpartyCandidate{
		RegistrationID: "300581697",
		TaxID:          "LT300581697",
		Name:           "UAB Tavo Finansininkas",
	}
	assert.Equal(t, []string{"300581697", "lt300581697", "uabtavofinansininkas"}, cand.Keys())

	assert.Empty(t, CounterpartyCandidate{}.Keys())
}
