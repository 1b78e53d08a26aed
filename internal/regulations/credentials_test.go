package regulations

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRotatorAssignsKeysInBlocks(t *testing.T) {
	t.Parallel()

	r, err := NewRotator([]string{"a", "b", "c"}, 2)
	require.NoError(t, err)

	want := []string{"a", "a", "b", "b", "c", "c", "a", "a"}
	for n, key := range want {
		require.Equal(t, key, r.KeyFor(n), "request %d", n)
	}
}

func TestRotatorSingleKey(t *testing.T) {
	t.Parallel()

	r, err := NewRotator([]string{"only"}, 50)
	require.NoError(t, err)

	require.Equal(t, "only", r.KeyFor(0))
	require.Equal(t, "only", r.KeyFor(49))
	require.Equal(t, "only", r.KeyFor(5000))
	require.Equal(t, "only", r.Primary())
}

func TestRotatorRejectsBadInput(t *testing.T) {
	t.Parallel()

	_, err := NewRotator(nil, 50)
	require.Error(t, err)

	_, err = NewRotator([]string{"a"}, 0)
	require.Error(t, err)
}

func TestRotatorCopiesKeyOrder(t *testing.T) {
	t.Parallel()

	keys := []string{"a", "b"}
	r, err := NewRotator(keys, 1)
	require.NoError(t, err)

	keys[0] = "mutated"
	require.Equal(t, "a", r.KeyFor(0))
}

func TestParentDocketID(t *testing.T) {
	t.Parallel()

	cases := []struct {
		commentID string
		want      string
	}{
		{"EPA-HQ-OAR-2021-0317-0001", "EPA-HQ-OAR-2021-0317"},
		{"FDA-2023-N-0123-4567", "FDA-2023-N-0123"},
		{"tiny", "tiny"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ParentDocketID(tc.commentID), tc.commentID)
	}
}
