// Package ocr adapts a local Tesseract engine into the fragment shape the
// parser consumes. The core never imports this package; any provider that
// yields text fragments with boxes can feed the parser instead.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"docparse/internal/entity"
)

// FragmentSource produces positioned text fragments for one image.
type FragmentSource interface {
	Fragments(ctx context.Context, imageData []byte) ([]entity.TextFragment, entity.ImageSize, error)
}

// TesseractSource runs gosseract per call; clients are not reusable across
// images so each call gets a fresh one.
type TesseractSource struct {
	languages     []string
	clientFactory func() *gosseract.Client
	logger        *slog.Logger
}

func NewTesseractSource(languages []string, logger *slog.Logger) *TesseractSource {
	if logger == nil {
		logger = slog.Default()
	}
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &TesseractSource{
		languages:     languages,
		clientFactory: gosseract.NewClient,
		logger:        logger,
	}
}

// Fragments OCRs the image and returns one fragment per recognized text
// line, with pixel bounding boxes, plus the image dimensions needed to
// normalize them.
func (t *TesseractSource) Fragments(ctx context.Context, imageData []byte) ([]entity.TextFragment, entity.ImageSize, error) {
	select {
	case <-ctx.Done():
		return nil, entity.ImageSize{}, ctx.Err()
	default:
	}

	cfgImg, _, err := image.DecodeConfig(bytes.NewReader(imageData))
	if err != nil {
		return nil, entity.ImageSize{}, fmt.Errorf("decode image config: %w", err)
	}
	size := entity.ImageSize{Width: float64(cfgImg.Width), Height: float64(cfgImg.Height)}

	c := t.clientFactory()
	defer c.Close()
	if err := c.SetImageFromBytes(imageData); err != nil {
		return nil, size, fmt.Errorf("set image: %w", err)
	}
	if err := c.SetLanguage(t.languages...); err != nil {
		return nil, size, fmt.Errorf("set languages: %w", err)
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, size, fmt.Errorf("get bounding boxes: %w", err)
	}

	fragments := make([]entity.TextFragment, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		fragments = append(fragments, entity.TextFragment{
			Text: text,
			Box: &entity.Rect{
				X:      float64(b.Box.Min.X),
				Y:      float64(b.Box.Min.Y),
				Width:  float64(b.Box.Dx()),
				Height: float64(b.Box.Dy()),
			},
		})
	}
	t.logger.Debug("ocr.fragments", "count", len(fragments), "width", size.Width, "height", size.Height)
	return fragments, size, nil
}
