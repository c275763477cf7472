// Package template holds the learned field-position templates: a dumb keyed
// store plus the statistical learner that merges new observations into it.
package template

import (
	"context"
	"fmt"
	"log/slog"

	"docparse/internal/entity"
	"docparse/internal/repository"
)

// Store maps normalized counterparty keys to templates over a byte KV.
// It holds no merge logic; that lives in the Learner.
type Store struct {
	kv     repository.KV
	logger *slog.Logger
}

func NewStore(kv repository.KV, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: kv, logger: logger}
}

// Get returns the template stored under key, or an empty template when the
// key is absent. A payload that fails schema validation is treated as absent
// so a corrupt row degrades to lexical parsing instead of failing the call.
func (s *Store) Get(ctx context.Context, key string) (*entity.Template, error) {
	nk := entity.NormalizeKey(key)
	if nk == "" {
		return &entity.Template{}, nil
	}
	data, found, err := s.kv.Get(ctx, nk)
	if err != nil {
		return &entity.Template{}, fmt.Errorf("store get %q: %w", nk, err)
	}
	if !found {
		return &entity.Template{}, nil
	}
	t, err := decodeTemplate(data)
	if err != nil {
		s.logger.Warn("store.corrupt_template", "key", nk, "error", err)
		return &entity.Template{}, nil
	}
	return t, nil
}

// Put persists the template under the normalized key.
func (s *Store) Put(ctx context.Context, key string, t *entity.Template) error {
	nk := entity.NormalizeKey(key)
	if nk == "" {
		return fmt.Errorf("store put: empty key")
	}
	data, err := encodeTemplate(t)
	if err != nil {
		return err
	}
	if err := s.kv.Put(ctx, nk, data); err != nil {
		return fmt.Errorf("store put %q: %w", nk, err)
	}
	return nil
}
