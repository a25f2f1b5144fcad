package merkle

import "github.com/jamzig/jamzig-sub009/crypto"

// ListRoot Merkleises an ordered sequence of leaf hashes into a single root
// (spec.md §4.6: "Merkleisation of per-service output roots in service-id
// order"). Unlike Dictionary.Root, a list's shape is fixed by its length,
// not by key bits: pairs are combined left-to-right, and an odd trailing
// leaf is carried up unchanged rather than duplicated, so the root of a
// one-element list is that leaf itself (spec.md §8 property 8 extends to
// this Merkleisation the same way it does to the state dictionary).
func ListRoot(leaves []crypto.Hash256) crypto.Hash256 {
	if len(leaves) == 0 {
		return crypto.Hash256{}
	}
	level := leaves
	for len(level) > 1 {
		next := make([]crypto.Hash256, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, branchHash(level[i], level[i+1]))
			} else {
				next = append(next, level[i])
			}
		}
		level = next
	}
	return level[0]
}
