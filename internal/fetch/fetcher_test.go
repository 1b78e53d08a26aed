package fetch

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commonsdocs/reggov-scraper/internal/regulations"
)

type fakeGetter struct {
	failOn map[string]bool
	calls  []struct{ id, key string }
}

func (g *fakeGetter) GetComment(_ context.Context, commentID, apiKey string) (*regulations.Detail, error) {
	g.calls = append(g.calls, struct{ id, key string }{commentID, apiKey})
	if g.failOn[commentID] {
		return nil, fmt.Errorf("api failure for %s", commentID)
	}
	return &regulations.Detail{
		ID:       commentID,
		DocketID: regulations.ParentDocketID(commentID),
		Raw:      []byte(`{"data": {"id": "` + commentID + `"}}`),
		Body:     map[string]any{},
	}, nil
}

type recordingSink struct {
	archived []string
}

func (s *recordingSink) Archive(_ context.Context, _ string, commentID string, _ []byte) {
	s.archived = append(s.archived, commentID)
}

func newRotator(t *testing.T, keys []string, block int) *regulations.Rotator {
	t.Helper()
	r, err := regulations.NewRotator(keys, block)
	require.NoError(t, err)
	return r
}

func TestFetchDetailsRotatesKeysPerBlock(t *testing.T) {
	t.Parallel()

	getter := &fakeGetter{}
	sink := &recordingSink{}
	f := New(getter, newRotator(t, []string{"key-a", "key-b"}, 2), sink, 0, nil)

	ids := []string{"D-1-00001", "D-1-00002", "D-1-00003", "D-1-00004", "D-1-00005"}
	details, err := f.FetchDetails(context.Background(), ids)
	require.NoError(t, err)
	require.Len(t, details, 5)

	wantKeys := []string{"key-a", "key-a", "key-b", "key-b", "key-a"}
	for i, call := range getter.calls {
		assert.Equal(t, ids[i], call.id)
		assert.Equal(t, wantKeys[i], call.key, "request %d", i)
	}
	assert.Equal(t, ids, sink.archived)
}

func TestFetchDetailsFailFastPerBlock(t *testing.T) {
	t.Parallel()

	getter := &fakeGetter{failOn: map[string]bool{"D-1-00002": true}}
	sink := &recordingSink{}
	f := New(getter, newRotator(t, []string{"key-a"}, 3), sink, 0, nil)

	ids := []string{"D-1-00001", "D-1-00002", "D-1-00003", "D-1-00004", "D-1-00005"}
	details, err := f.FetchDetails(context.Background(), ids)
	require.NoError(t, err)

	// The failure on the second id abandons the rest of its block
	// (D-1-00003); the next block resumes at D-1-00004.
	var got []string
	for _, d := range details {
		got = append(got, d.ID)
	}
	assert.Equal(t, []string{"D-1-00001", "D-1-00004", "D-1-00005"}, got)
	assert.Equal(t, got, sink.archived)
}

func TestFetchDetailsStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	getter := &fakeGetter{failOn: map[string]bool{"D-1-00001": true}}
	f := New(getter, newRotator(t, []string{"key-a"}, 50), &recordingSink{}, 0, nil)

	_, err := f.FetchDetails(ctx, []string{"D-1-00001", "D-1-00002"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestFetchDetailsEmptyInput(t *testing.T) {
	t.Parallel()

	f := New(&fakeGetter{}, newRotator(t, []string{"key-a"}, 50), &recordingSink{}, 0, nil)
	details, err := f.FetchDetails(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, details)
}
