package shuffle

import (
	"testing"

	"github.com/jamzig/jamzig-sub009/crypto"
	"github.com/stretchr/testify/require"
)

func TestOutsideInPalindromeIsIdentity(t *testing.T) {
	palindrome := []int{1, 2, 3, 2, 1}
	require.Equal(t, palindrome, OutsideIn(OutsideIn(palindrome)))
}

func TestOutsideInKnownSequence(t *testing.T) {
	got := OutsideIn([]int{0, 1, 2, 3, 4})
	require.Equal(t, []int{0, 4, 1, 3, 2}, got)
}

func TestFisherYatesIsPermutation(t *testing.T) {
	items := []int{0, 1, 2, 3, 4, 5, 6, 7}
	entropy := crypto.Blake2b256([]byte("seed"))
	out := FisherYates(items, entropy)
	require.ElementsMatch(t, items, out)
}

func TestFisherYatesDeterministic(t *testing.T) {
	items := []int{0, 1, 2, 3, 4, 5}
	entropy := crypto.Blake2b256([]byte("seed-2"))
	require.Equal(t, FisherYates(items, entropy), FisherYates(items, entropy))
}

func TestEntropySelectDeterministicAndInRange(t *testing.T) {
	entropy := crypto.Blake2b256([]byte("seed-3"))
	out := EntropySelect(entropy, 12, 6)
	require.Len(t, out, 12)
	for _, idx := range out {
		require.Less(t, idx, uint32(6))
	}
	require.Equal(t, out, EntropySelect(entropy, 12, 6))
}
