package template

import (
	"context"
	"errors"
	"log/slog"

	"docparse/internal/entity"
	"docparse/internal/validate"
)

// LearnerConfig holds thresholds for accepting observations into templates.
type LearnerConfig struct {
	// MinMatchQuality rejects confirmed values that cannot be tied back to
	// any fragment with at least this score. Default 0.5.
	MinMatchQuality float64
	// OutlierDistance is the normalized center distance (relative to the
	// stored region's diagonal) beyond which an observation is discarded.
	// Default 0.15.
	OutlierDistance float64
}

// Learner updates stored templates from human-confirmed field sets. Invalid,
// unmatched or geometrically implausible fields are simply not learned; the
// only externally visible effect is the store write.
type Learner struct {
	store     *Store
	validator *validate.Validator
	cfg       LearnerConfig
	logger    *slog.Logger
	locks     *keyedMutex
}

func NewLearner(store *Store, validator *validate.Validator, cfg LearnerConfig, logger *slog.Logger) *Learner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MinMatchQuality <= 0 {
		cfg.MinMatchQuality = 0.5
	}
	if cfg.OutlierDistance <= 0 {
		cfg.OutlierDistance = 0.15
	}
	return &Learner{
		store:     store,
		validator: validator,
		cfg:       cfg,
		logger:    logger,
		locks:     newKeyedMutex(),
	}
}

// Learn validates each confirmed field, locates the fragment it came from,
// and merges the fragment's normalized position into the template stored
// under every key. All keys converge to the same template content. Store
// write failures are reported; everything else degrades silently.
func (l *Learner) Learn(ctx context.Context, fragments []entity.TextFragment, confirmed entity.ParsedFieldSet, keys []string, size entity.ImageSize) error {
	if !size.Known() {
		l.logger.Debug("learn.skip", "reason", "unknown image dimensions")
		return nil
	}
	candidates := l.collectCandidates(fragments, confirmed, size)
	if len(candidates) == 0 {
		return nil
	}

	var errs []error
	for _, key := range keys {
		nk := entity.NormalizeKey(key)
		if nk == "" {
			continue
		}
		if err := l.learnKey(ctx, nk, candidates); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// collectCandidates turns confirmed values into normalized field regions.
func (l *Learner) collectCandidates(fragments []entity.TextFragment, confirmed entity.ParsedFieldSet, size entity.ImageSize) []entity.FieldRegion {
	var out []entity.FieldRegion
	for _, kind := range entity.AllFieldKinds {
		value := confirmed.Get(kind)
		if value == "" {
			continue
		}
		if err := l.validator.Validate(kind, value); err != nil {
			l.logger.Debug("learn.invalid_field", "field", kind, "error", err)
			continue
		}
		frag, quality := l.bestFragment(value, fragments)
		if frag == nil || quality < l.cfg.MinMatchQuality {
			l.logger.Debug("learn.no_fragment", "field", kind, "quality", quality)
			continue
		}
		out = append(out, entity.FieldRegion{
			Field:       kind,
			Box:         frag.Box.Normalize(size),
			Confidence:  quality,
			SampleCount: 1,
		})
	}
	return out
}

// bestFragment returns the boxed fragment whose text best matches value.
func (l *Learner) bestFragment(value string, fragments []entity.TextFragment) (*entity.TextFragment, float64) {
	var best *entity.TextFragment
	bestScore := 0.0
	for i := range fragments {
		f := &fragments[i]
		if f.Box == nil || f.Box.IsEmpty() {
			continue
		}
		score := l.validator.MatchQuality(value, f.Text)
		if score > bestScore {
			best, bestScore = f, score
		}
	}
	return best, bestScore
}

// learnKey runs one read-merge-write cycle under the per-key lock.
func (l *Learner) learnKey(ctx context.Context, key string, candidates []entity.FieldRegion) error {
	unlock := l.locks.Lock(key)
	defer unlock()

	tpl, err := l.store.Get(ctx, key)
	if err != nil {
		return err
	}
	for _, cand := range candidates {
		l.mergeRegion(tpl, cand, key)
	}
	if err := l.store.Put(ctx, key, tpl); err != nil {
		return err
	}
	l.logger.Info("learn.ok", "key", key, "fields", len(candidates), "regions", len(tpl.Regions))
	return nil
}

// mergeRegion folds one observation into the template: insert when the field
// is new, reject when the position is an outlier, otherwise merge weighted
// by the stored sample count.
func (l *Learner) mergeRegion(tpl *entity.Template, cand entity.FieldRegion, key string) {
	existing := tpl.Region(cand.Field)
	if existing == nil {
		tpl.SetRegion(cand)
		return
	}

	diag := existing.Box.Diagonal()
	if diag <= 0 {
		tpl.SetRegion(cand)
		return
	}
	dist := existing.Box.CenterDistance(cand.Box) / diag
	if dist > l.cfg.OutlierDistance {
		// a single misplaced document must not corrupt a learned template
		l.logger.Debug("learn.outlier_rejected",
			"key", key, "field", cand.Field, "distance", dist, "threshold", l.cfg.OutlierDistance)
		return
	}

	w := float64(existing.SampleCount)
	merged := entity.FieldRegion{
		Field: cand.Field,
		Box: entity.Rect{
			X:      (existing.Box.X*w + cand.Box.X) / (w + 1),
			Y:      (existing.Box.Y*w + cand.Box.Y) / (w + 1),
			Width:  (existing.Box.Width*w + cand.Box.Width) / (w + 1),
			Height: (existing.Box.Height*w + cand.Box.Height) / (w + 1),
		},
		Confidence:  (existing.Confidence*w + cand.Confidence) / (w + 1),
		SampleCount: existing.SampleCount + 1,
	}
	tpl.SetRegion(merged)
}
