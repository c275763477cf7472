package entity

import "math"

// Rect is a rectangle with the origin in the upper-left corner. Coordinates
// are pixels when the rect comes straight from OCR, or fractions of the image
// dimensions once normalized for template storage.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"w"`
	Height float64 `json:"h"`
}

// IsEmpty reports whether the rect has non-positive dimensions.
func (r Rect) IsEmpty() bool { return r.Width <= 0 || r.Height <= 0 }

// Center returns the midpoint of the rect.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Diagonal returns the length of the rect's diagonal.
func (r Rect) Diagonal() float64 {
	return math.Hypot(r.Width, r.Height)
}

// Intersects reports whether r and o overlap.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.Width && o.X < r.X+r.Width &&
		r.Y < o.Y+o.Height && o.Y < r.Y+r.Height
}

// Expand grows the rect by pad on every side.
func (r Rect) Expand(pad float64) Rect {
	return Rect{
		X:      r.X - pad,
		Y:      r.Y - pad,
		Width:  r.Width + 2*pad,
		Height: r.Height + 2*pad,
	}
}

// CenterDistance returns the distance between the centers of r and o.
func (r Rect) CenterDistance(o Rect) float64 {
	rx, ry := r.Center()
	ox, oy := o.Center()
	return math.Hypot(rx-ox, ry-oy)
}

// Normalize maps a pixel rect into [0,1] coordinates of the given image size.
func (r Rect) Normalize(size ImageSize) Rect {
	if size.Width <= 0 || size.Height <= 0 {
		return r
	}
	return Rect{
		X:      r.X / size.Width,
		Y:      r.Y / size.Height,
		Width:  r.Width / size.Width,
		Height: r.Height / size.Height,
	}
}

// ImageSize carries the pixel dimensions of a source image.
type ImageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Known reports whether both dimensions are positive.
func (s ImageSize) Known() bool { return s.Width > 0 && s.Height > 0 }

// TextFragment is one OCR-recognized piece of text. Box is nil when the OCR
// provider supplied no spatial data; such fragments still feed the lexical
// path. Page groups fragments of multi-page documents (zero-based).
type TextFragment struct {
	Text string `json:"text"`
	Box  *Rect  `json:"box,omitempty"`
	Page int    `json:"page,omitempty"`
}

// FragmentTexts returns the text of every fragment, in order.
func FragmentTexts(fragments []TextFragment) []string {
	lines := make([]string, 0, len(fragments))
	for _, f := range fragments {
		lines = append(lines, f.Text)
	}
	return lines
}

// GroupByPage splits fragments into per-page groups preserving order.
func GroupByPage(fragments []TextFragment) [][]TextFragment {
	var pages []int
	byPage := make(map[int][]TextFragment)
	for _, f := range fragments {
		if _, seen := byPage[f.Page]; !seen {
			pages = append(pages, f.Page)
		}
		byPage[f.Page] = append(byPage[f.Page], f)
	}
	groups := make([][]TextFragment, 0, len(pages))
	for _, p := range pages {
		groups = append(groups, byPage[p])
	}
	return groups
}
