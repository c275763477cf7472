// Package parser orchestrates field extraction: positional extraction
// against a learned template when one exists, lexical keyword extraction
// otherwise, with per-field fallback between the two.
package parser

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"docparse/internal/entity"
	"docparse/internal/extract"
	"docparse/internal/money"
	"docparse/internal/template"
	"docparse/internal/validate"
)

// Config holds the positional-search tuning knobs.
type Config struct {
	// BasePadding is added around every learned region when searching for
	// intersecting fragments, in normalized coordinates.
	BasePadding float64
	// PaddingScale widens the search as region confidence falls: the
	// effective padding is BasePadding + (1-confidence)*PaddingScale.
	PaddingScale float64
}

// Parser is stateless per call; the template store is its only read
// dependency and it never writes.
type Parser struct {
	store      *template.Store
	lexical    *extract.Lexical
	recognizer *extract.Recognizer
	validator  *validate.Validator
	cfg        Config
	logger     *slog.Logger
}

func New(store *template.Store, lexical *extract.Lexical, recognizer *extract.Recognizer, validator *validate.Validator, cfg Config, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BasePadding <= 0 {
		cfg.BasePadding = 0.01
	}
	if cfg.PaddingScale <= 0 {
		cfg.PaddingScale = 0.05
	}
	return &Parser{
		store:      store,
		lexical:    lexical,
		recognizer: recognizer,
		validator:  validator,
		cfg:        cfg,
		logger:     logger,
	}
}

// Parse extracts a field set from the fragments of one document. Fragments
// are grouped by page; each group is parsed independently and the results
// are merged: non-monetary fields keep the first non-blank value, monetary
// fields are summed, and the VAT rate is recomputed from the merged totals.
func (p *Parser) Parse(ctx context.Context, fragments []entity.TextFragment, owner entity.OwnerIdentity, size entity.ImageSize) (entity.ParsedFieldSet, entity.CounterpartyCandidate, error) {
	groups := entity.GroupByPage(fragments)
	if len(groups) == 0 {
		return entity.NewParsedFieldSet(), entity.CounterpartyCandidate{}, nil
	}

	var (
		results     []entity.ParsedFieldSet
		counterpart entity.CounterpartyCandidate
	)
	for _, group := range groups {
		fields, cand := p.parseGroup(ctx, group, owner, size)
		results = append(results, fields)
		if counterpart.Empty() && !cand.Empty() {
			counterpart = cand
		}
	}
	return mergeGroupResults(results), counterpart, nil
}

// parseGroup runs recognition + extraction for one page worth of fragments.
func (p *Parser) parseGroup(ctx context.Context, group []entity.TextFragment, owner entity.OwnerIdentity, size entity.ImageSize) (entity.ParsedFieldSet, entity.CounterpartyCandidate) {
	lines := entity.FragmentTexts(group)
	cand := p.recognizer.Recognize(lines, owner)

	lex := p.lexical.Extract(lines)
	lex.SetIfAbsent(entity.FieldCounterpartyName, cand.Name)
	lex.SetIfAbsent(entity.FieldTaxID, cand.TaxID)
	lex.SetIfAbsent(entity.FieldRegistrationID, cand.RegistrationID)

	tpl := p.lookupTemplate(ctx, cand)
	if tpl == nil || tpl.Empty() || !size.Known() {
		// no learned layout (or no geometry): lexical output stands alone
		return lex, cand
	}

	fields := p.parseByTemplate(group, tpl, lex, size)
	// fields the template has never learned still come from the lexical scan
	for _, kind := range entity.AllFieldKinds {
		fields.SetIfAbsent(kind, lex.Get(kind))
	}
	return fields, cand
}

// lookupTemplate tries the candidate keys in preference order (registration
// id, tax id, name) and returns the first non-empty template.
func (p *Parser) lookupTemplate(ctx context.Context, cand entity.CounterpartyCandidate) *entity.Template {
	for _, key := range cand.Keys() {
		tpl, err := p.store.Get(ctx, key)
		if err != nil {
			p.logger.Warn("parse.store_get_failed", "key", key, "error", err)
			continue
		}
		if !tpl.Empty() {
			p.logger.Debug("parse.template_hit", "key", key, "regions", len(tpl.Regions))
			return tpl
		}
	}
	return nil
}

// parseByTemplate extracts fields by learned position, highest-confidence
// regions first. A region whose extracted value fails validation falls back
// to the lexical value for that field only.
func (p *Parser) parseByTemplate(group []entity.TextFragment, tpl *entity.Template, lex entity.ParsedFieldSet, size entity.ImageSize) entity.ParsedFieldSet {
	regions := make([]entity.FieldRegion, len(tpl.Regions))
	copy(regions, tpl.Regions)
	sort.SliceStable(regions, func(i, j int) bool {
		return regions[i].Confidence > regions[j].Confidence
	})

	fields := entity.NewParsedFieldSet()
	for _, region := range regions {
		pad := p.cfg.BasePadding + (1-region.Confidence)*p.cfg.PaddingScale
		search := region.Box.Expand(pad)

		frag := bestPositionalMatch(group, search, region.Box, size)
		if frag == nil {
			fields.SetIfAbsent(region.Field, lex.Get(region.Field))
			continue
		}
		value := extract.CleanFieldValue(region.Field, frag.Text)
		if err := p.validator.Validate(region.Field, value); err != nil {
			p.logger.Debug("parse.positional_invalid", "field", region.Field, "value", value, "error", err)
			fields.SetIfAbsent(region.Field, lex.Get(region.Field))
			continue
		}
		fields.SetIfAbsent(region.Field, value)
	}
	return fields
}

// bestPositionalMatch picks the fragment whose normalized box intersects the
// padded search area and sits closest to the region center.
func bestPositionalMatch(group []entity.TextFragment, search, regionBox entity.Rect, size entity.ImageSize) *entity.TextFragment {
	var best *entity.TextFragment
	bestDist := math.Inf(1)
	for i := range group {
		f := &group[i]
		if f.Box == nil || f.Box.IsEmpty() {
			continue
		}
		nb := f.Box.Normalize(size)
		if !nb.Intersects(search) {
			continue
		}
		if d := nb.CenterDistance(regionBox); d < bestDist {
			best, bestDist = f, d
		}
	}
	return best
}

// mergeGroupResults unions per-page field sets: first non-blank value for
// ordinary fields, summed totals for monetary fields, and the VAT rate
// recomputed from the summed totals rather than any single page.
func mergeGroupResults(results []entity.ParsedFieldSet) entity.ParsedFieldSet {
	if len(results) == 1 {
		out := results[0]
		recomputeVATRate(out)
		return out
	}

	out := entity.NewParsedFieldSet()
	for _, kind := range entity.AllFieldKinds {
		if entity.MonetaryFields[kind] {
			continue
		}
		for _, r := range results {
			out.SetIfAbsent(kind, r.Get(kind))
		}
	}
	for kind := range entity.MonetaryFields {
		var values []string
		for _, r := range results {
			values = append(values, r.Get(kind))
		}
		if total, ok := money.Sum(values); ok {
			out.Set(kind, total)
		}
	}
	recomputeVATRate(out)
	return out
}

func recomputeVATRate(fields entity.ParsedFieldSet) {
	if !fields.Has(entity.FieldAmountExclTax) || !fields.Has(entity.FieldTaxAmount) {
		return
	}
	if rate, ok := money.VATRate(fields.Get(entity.FieldAmountExclTax), fields.Get(entity.FieldTaxAmount)); ok {
		fields[entity.FieldVATRate] = rate
	}
}
