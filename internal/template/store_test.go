package template

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docparse/internal/entity"
	"docparse/internal/repository"
)

func TestStoreGetAbsentKey(t *testing.T) {
	s := NewStore(repository.NewMemoryKV(), nil)

	tpl, err := s.Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.True(t, tpl.Empty())
}

func TestStoreRoundTrip(t *testing.T) {
	s := NewStore(repository.NewMemoryKV(), nil)
	ctx := context.Background()

	in := &entity.Template{Regions: []entity.FieldRegion{
		{
			Field:       entity.FieldTaxID,
			Box:         entity.Rect{X: 0.6, Y: 0.1, Width: 0.2, Height: 0.04},
			Confidence:  0.95,
			SampleCount: 3,
		},
	}}
	require.NoError(t, s.Put(ctx, "LT 300581697", in))

	// key normalization applies on both sides
	out, err := s.Get(ctx, "lt300581697")
	require.NoError(t, err)
	require.Len(t, out.Regions, 1)
	assert.Equal(t, in.Regions[0], out.Regions[0])
}

func TestStoreCorruptPayloadDegradesToEmpty(t *testing.T) {
	kv := repository.NewMemoryKV()
	ctx := context.Background()
	require.NoError(t, kv.Put(ctx, "badkey", []byte(`{"unexpected": true}`)))

	s := NewStore(kv, nil)
	tpl, err := s.Get(ctx, "badkey")
	require.NoError(t, err)
	assert.True(t, tpl.Empty())
}

func TestStorePutEmptyKey(t *testing.T) {
	s := NewStore(repository.NewMemoryKV(), nil)
	err := s.Put(context.Background(), "  --  ", &entity.Template{})
	assert.Error(t, err)
}

func TestCodecStableEncoding(t *testing.T) {
	a := &entity.Template{Regions: []entity.FieldRegion{
		{Field: entity.FieldTaxID, Box: entity.Rect{X: 0.1, Width: 0.1, Height: 0.1}, Confidence: 1, SampleCount: 1},
		{Field: entity.FieldDate, Box: entity.Rect{X: 0.2, Width: 0.1, Height: 0.1}, Confidence: 1, SampleCount: 1},
	}}
	b := &entity.Template{Regions: []entity.FieldRegion{
		{Field: entity.FieldDate, Box: entity.Rect{X: 0.2, Width: 0.1, Height: 0.1}, Confidence: 1, SampleCount: 1},
		{Field: entity.FieldTaxID, Box: entity.Rect{X: 0.1, Width: 0.1, Height: 0.1}, Confidence: 1, SampleCount: 1},
	}}

	ea, err := encodeTemplate(a)
	require.NoError(t, err)
	eb, err := encodeTemplate(b)
	require.NoError(t, err)
	assert.Equal(t, ea, eb, "region order must not affect the payload")
}
