package parser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docparse/internal/entity"
	"docparse/internal/extract"
	"docparse/internal/repository"
	"docparse/internal/template"
	"docparse/internal/validate"
)

func testComponents(t *testing.T) (*Parser, *template.Learner, *template.Store) {
	t.Helper()
	store := template.NewStore(repository.NewMemoryKV(), nil)
	validator := validate.New(validate.Config{
		Now: func() time.Time { return time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC) },
	})
	p := New(store, extract.NewLexical(nil), extract.NewRecognizer(nil), validator, Config{}, nil)
	learner := template.NewLearner(store, validator, template.LearnerConfig{}, nil)
	return p, learner, store
}

var testImage = entity.ImageSize{Width: 1000, Height: 1000}

func boxed(text string, x, y, w, h float64) entity.TextFragment {
	return entity.TextFragment{Text: text, Box: &entity.Rect{X: x, Y: y, Width: w, Height: h}}
}

func invoiceFragments() []entity.TextFragment {
	return []entity.TextFragment{
		boxed("UAB Tavo Finansininkas", 100, 50, 300, 40),
		boxed("Invoice No: INV-2025/00123", 100, 120, 350, 30),
		boxed("Invoice date: 2025-12-01", 100, 160, 300, 30),
		boxed("PVM kodas: LT300581697", 100, 200, 280, 30),
		boxed("Suma be PVM: 100.00", 600, 800, 250, 30),
		boxed("PVM suma: 21.00", 600, 840, 250, 30),
	}
}

func TestParseFallbackEqualsLexical(t *testing.T) {
	p, _, _ := testComponents(t)
	fragments := invoiceFragments()

	fields, cand, err := p.Parse(context.Background(), fragments, entity.OwnerIdentity{}, testImage)
	require.NoError(t, err)

	// empty template store: every lexical field must come through unchanged
	lex := extract.NewLexical(nil).Extract(entity.FragmentTexts(fragments))
	for kind, want := range lex {
		assert.Equal(t, want, fields.Get(kind), kind)
	}
	assert.Equal(t, "UAB Tavo Finansininkas", cand.Name)
	assert.Equal(t, "LT300581697", cand.TaxID)
}

func TestParseWithoutBoxes(t *testing.T) {
	p, _, _ := testComponents(t)
	fragments := []entity.TextFragment{
		{Text: "Invoice date: 2025-12-01"},
		{Text: "Suma be PVM: 100.00"},
	}

	fields, _, err := p.Parse(context.Background(), fragments, entity.OwnerIdentity{}, entity.ImageSize{})
	require.NoError(t, err)
	assert.Equal(t, "2025-12-01", fields.Get(entity.FieldDate))
	assert.Equal(t, "100.00", fields.Get(entity.FieldAmountExclTax))
}

func TestParseUsesLearnedTemplate(t *testing.T) {
	p, learner, _ := testComponents(t)
	ctx := context.Background()

	// teach the layout from a confirmed first document whose values sit on
	// their own fragments
	first := []entity.TextFragment{
		boxed("UAB Tavo Finansininkas", 100, 50, 300, 40),
		boxed("LT300581697", 100, 200, 280, 30),
		boxed("2025-12-01", 400, 160, 150, 30),
	}
	confirmed := entity.ParsedFieldSet{
		entity.FieldCounterpartyName: "UAB Tavo Finansininkas",
		entity.FieldTaxID:            "LT300581697",
		entity.FieldDate:             "2025-12-01",
	}
	require.NoError(t, learner.Learn(ctx, first, confirmed, []string{"lt300581697"}, testImage))

	// second document, same layout: the date fragment carries no label at
	// all, so only the positional path can find it
	second := []entity.TextFragment{
		boxed("UAB Tavo Finansininkas", 100, 50, 300, 40),
		boxed("PVM kodas: LT300581697", 100, 200, 280, 30),
		boxed("2025-12-20", 400, 160, 150, 30),
	}
	fields, _, err := p.Parse(ctx, second, entity.OwnerIdentity{}, testImage)
	require.NoError(t, err)
	assert.Equal(t, "2025-12-20", fields.Get(entity.FieldDate))
}

func TestParsePositionalFailureFallsBackPerField(t *testing.T) {
	p, learner, _ := testComponents(t)
	ctx := context.Background()

	require.NoError(t, learner.Learn(ctx, []entity.TextFragment{
		boxed("LT300581697", 100, 200, 280, 30),
		boxed("2025-12-01", 400, 160, 150, 30),
	}, entity.ParsedFieldSet{
		entity.FieldTaxID: "LT300581697",
		entity.FieldDate:  "2025-12-01",
	}, []string{"lt300581697"}, testImage))

	// the fragment at the learned date position holds garbage; the labelled
	// line elsewhere must still supply the value through the lexical path
	second := []entity.TextFragment{
		boxed("PVM kodas: LT300581697", 100, 200, 280, 30),
		boxed("###", 400, 160, 150, 30),
		boxed("Invoice date: 2025-12-20", 600, 400, 300, 30),
	}
	fields, _, err := p.Parse(ctx, second, entity.OwnerIdentity{}, testImage)
	require.NoError(t, err)
	assert.Equal(t, "2025-12-20", fields.Get(entity.FieldDate))
}

func TestParseMultiPageSumsMonetaryFields(t *testing.T) {
	p, _, _ := testComponents(t)

	fragments := []entity.TextFragment{
		{Text: "Invoice No: INV-7", Page: 0},
		{Text: "Suma be PVM: 100.00", Page: 0},
		{Text: "PVM suma: 21.00", Page: 0},
		{Text: "Suma be PVM: 50.00", Page: 1},
		{Text: "PVM suma: 10.50", Page: 1},
	}

	fields, _, err := p.Parse(context.Background(), fragments, entity.OwnerIdentity{}, entity.ImageSize{})
	require.NoError(t, err)

	assert.Equal(t, "150.00", fields.Get(entity.FieldAmountExclTax))
	assert.Equal(t, "31.50", fields.Get(entity.FieldTaxAmount))
	// derived rate comes from the summed totals, not either page alone
	assert.Equal(t, "21", fields.Get(entity.FieldVATRate))
	assert.Equal(t, "INV-7", fields.Get(entity.FieldDocumentID))
}

func TestParseVATRateDerivedOnSinglePage(t *testing.T) {
	p, _, _ := testComponents(t)

	fragments := []entity.TextFragment{
		{Text: "Suma be PVM: 200.00"},
		{Text: "PVM suma: 42.00"},
	}
	fields, _, err := p.Parse(context.Background(), fragments, entity.OwnerIdentity{}, entity.ImageSize{})
	require.NoError(t, err)
	assert.Equal(t, "21", fields.Get(entity.FieldVATRate))
}

func TestParseEmptyInput(t *testing.T) {
	p, _, _ := testComponents(t)
	fields, cand, err := p.Parse(context.Background(), nil, entity.OwnerIdentity{}, entity.ImageSize{})
	require.NoError(t, err)
	assert.Empty(t, fields)
	assert.True(t, cand.Empty())
}

func TestParseExcludesOwner(t *testing.T) {
	p, _, _ := testComponents(t)

	fragments := []entity.TextFragment{
		{Text: "UAB Tavo Finansininkas"},
		{Text: "PVM kodas: LT300581697"},
	}
	owner := entity.OwnerIdentity{TaxID: "LT300581697"}
	_, cand, err := p.Parse(context.Background(), fragments, owner, entity.ImageSize{})
	require.NoError(t, err)
	assert.Empty(t, cand.TaxID)
	assert.Equal(t, "UAB Tavo Finansininkas", cand.Name)
}
