package state

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommitErasureRootDeterministic(t *testing.T) {
	payload := []byte("work package payload")
	first := CommitErasureRoot(payload)
	second := CommitErasureRoot(payload)
	require.Equal(t, first, second)
	require.False(t, first.IsZero())
}

func TestCommitErasureRootBindsContent(t *testing.T) {
	a := CommitErasureRoot([]byte("payload a"))
	b := CommitErasureRoot([]byte("payload b"))
	require.NotEqual(t, a, b)

	// Empty payload commits to the zero polynomial, which is still a
	// distinct, non-zero root under the domain tag.
	empty := CommitErasureRoot(nil)
	require.NotEqual(t, a, empty)
	require.False(t, empty.IsZero())
}

func TestCommitErasureRootSpansMultipleBlobs(t *testing.T) {
	big := make([]byte, blobPayloadBytes+1)
	for i := range big {
		big[i] = byte(i)
	}
	root := CommitErasureRoot(big)
	require.NotEqual(t, root, CommitErasureRoot(big[:blobPayloadBytes]))
}
