package repository

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// both backends must satisfy the same contract
func runKVContract(t *testing.T, kv KV) {
	ctx := context.Background()

	_, found, err := kv.Get(ctx, "absent")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, kv.Put(ctx, "k", []byte(`{"v":1}`)))
	got, found, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte(`{"v":1}`), got)

	// put on an existing key overwrites
	require.NoError(t, kv.Put(ctx, "k", []byte(`{"v":2}`)))
	got, found, err = kv.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte(`{"v":2}`), got)

	// keys are independent
	require.NoError(t, kv.Put(ctx, "other", []byte("x")))
	got, _, err = kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"v":2}`), got)
}

func TestMemoryKVContract(t *testing.T) {
	kv := NewMemoryKV()
	defer kv.Close()
	runKVContract(t, kv)
}

func TestMemoryKVCopiesValues(t *testing.T) {
	kv := NewMemoryKV()
	defer kv.Close()
	ctx := context.Background()

	original := []byte("abc")
	require.NoError(t, kv.Put(ctx, "k", original))
	original[0] = 'z'

	got, _, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)

	// mutating the returned slice must not leak back either
	got[0] = 'q'
	again, _, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}

func TestMemoryKVConcurrentAccess(t *testing.T) {
	kv := NewMemoryKV()
	defer kv.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = kv.Put(ctx, "shared", []byte("v"))
				_, _, _ = kv.Get(ctx, "shared")
			}
		}()
	}
	wg.Wait()

	got, found, err := kv.Get(ctx, "shared")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("v"), got)
}

func TestSQLiteKVContract(t *testing.T) {
	ctx := context.Background()
	kv, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "templates.db"), nil)
	require.NoError(t, err)
	defer kv.Close()
	runKVContract(t, kv)
}

func TestSQLiteKVSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "templates.db")

	kv, err := OpenSQLite(ctx, path, nil)
	require.NoError(t, err)
	require.NoError(t, kv.Put(ctx, "k", []byte("persisted")))
	require.NoError(t, kv.Close())

	kv, err = OpenSQLite(ctx, path, nil)
	require.NoError(t, err)
	defer kv.Close()

	got, found, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("persisted"), got)
}
