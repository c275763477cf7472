// Package repository provides the persistent byte store the template layer
// works against. Backends share a minimal keyed get/put contract; all
// template semantics live above them.
package repository

import "context"

// KV is the minimal persistence contract for template content. Get reports
// found=false for an absent key instead of an error.
type KV interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}
