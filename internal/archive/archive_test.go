package archive

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commonsdocs/reggov-scraper/internal/archive/memory"
)

func TestSinkWritesUnderDocketCommentKey(t *testing.T) {
	t.Parallel()

	store := memory.New()
	sink := NewSink(store, "data/raw", nil)

	payload := []byte(`{"data": {"id": "EPA-HQ-1-0001"}}`)
	sink.Archive(context.Background(), "EPA-HQ-1", "EPA-HQ-1-0001", payload)

	got, ok := store.Object("data/raw/EPA-HQ-1/EPA-HQ-1-0001.json")
	require.True(t, ok)
	assert.Equal(t, payload, got)
}

func TestSinkSwallowsWriteFailures(t *testing.T) {
	t.Parallel()

	store := memory.New()
	store.FailWrites()
	sink := NewSink(store, "data/raw", nil)

	// Must not panic or surface the error.
	sink.Archive(context.Background(), "EPA-HQ-1", "EPA-HQ-1-0001", []byte("{}"))
	assert.Zero(t, store.Len())
}

func TestSinkWithoutStoreIsNoop(t *testing.T) {
	t.Parallel()

	sink := NewSink(nil, "data/raw", nil)
	sink.Archive(context.Background(), "EPA-HQ-1", "EPA-HQ-1-0001", []byte("{}"))
}
