package state

import "github.com/jamzig/jamzig-sub009/crypto"

// Disputes is ψ: four ordered key-sets over Ed25519 validator keys (spec.md
// §3). Package disputes checks a verdict target against all four sets
// before inserting it into Good, Bad or Wonky; an offender key is checked
// only against Punish before it is inserted there.
type Disputes struct {
	Good   EdKeySet // reports judged good
	Bad    EdKeySet // reports judged bad
	Wonky  EdKeySet // reports judged wonky (neither clearly good nor bad)
	Punish EdKeySet // offender keys moved here by a resolved bad/wonky verdict
}

// Clone returns a deep copy of d.
func (d Disputes) Clone() Disputes {
	return Disputes{
		Good:   d.Good.Clone(),
		Bad:    d.Bad.Clone(),
		Wonky:  d.Wonky.Clone(),
		Punish: d.Punish.Clone(),
	}
}

// EdKeySet is an ordered (ascending byte order), duplicate-free set of
// Ed25519 keys, matching the sorted-keys invariant codec.CheckSorted
// enforces on ordered-dictionary payloads.
type EdKeySet []crypto.Ed25519PublicKey

// Clone returns a deep copy of s.
func (s EdKeySet) Clone() EdKeySet {
	out := make(EdKeySet, len(s))
	copy(out, s)
	return out
}

// Contains reports whether key is a member.
func (s EdKeySet) Contains(key crypto.Ed25519PublicKey) bool {
	for _, k := range s {
		if k == key {
			return true
		}
	}
	return false
}

// Insert returns a new set with key inserted in sorted position. It does
// not check for duplicates; callers check membership first (spec.md §4.3
// invariant: verdict target must not already appear in any of the four
// sets), a verdict target against all four Disputes sets and an offender
// key against Punish.
func (s EdKeySet) Insert(key crypto.Ed25519PublicKey) EdKeySet {
	out := make(EdKeySet, 0, len(s)+1)
	inserted := false
	for _, k := range s {
		if !inserted && bytesGreater(k[:], key[:]) {
			out = append(out, key)
			inserted = true
		}
		out = append(out, k)
	}
	if !inserted {
		out = append(out, key)
	}
	return out
}

func bytesGreater(a, b []byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] > b[i]
		}
	}
	return false
}
