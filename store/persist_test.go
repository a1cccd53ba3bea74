package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPersistentSink_FlushLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	sink, err := OpenPersistentSink(path)
	require.NoError(t, err)

	mem := NewMemory()
	mem.Put([]byte("a"), []byte("1"))
	mem.Put([]byte("b"), []byte("2"))
	require.NoError(t, sink.Flush(context.Background(), mem))
	require.NoError(t, sink.Close())

	reopened, err := OpenPersistentSink(path)
	require.NoError(t, err)
	defer reopened.Close()

	dst := NewMemory()
	require.NoError(t, reopened.Load(dst))

	v, ok := dst.Get([]byte("a"))
	require.True(t, ok)
	require.Equal(t, []byte("1"), v)
	v, ok = dst.Get([]byte("b"))
	require.True(t, ok)
	require.Equal(t, []byte("2"), v)
}

func TestPersistentSink_FlushWritesMergedViewIncludingOpenSavepoints(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	sink, err := OpenPersistentSink(path)
	require.NoError(t, err)
	defer sink.Close()

	mem := NewMemory()
	mem.Put([]byte("committed"), []byte("yes"))
	id := mem.Savepoint()
	mem.Put([]byte("pending"), []byte("also-visible-via-iterate"))
	_ = id

	require.NoError(t, sink.Flush(context.Background(), mem))

	dst := NewMemory()
	require.NoError(t, sink.Load(dst))
	v, ok := dst.Get([]byte("committed"))
	require.True(t, ok)
	require.Equal(t, []byte("yes"), v)
	// Flush walks the store's merged view (Iterate has no session concept of
	// its own), so a value written inside a still-open savepoint is visible
	// too; only code discipline (flushing only once all frames are
	// committed) keeps this sink limited to fully-committed state.
	v, ok = dst.Get([]byte("pending"))
	require.True(t, ok)
	require.Equal(t, []byte("also-visible-via-iterate"), v)
}
