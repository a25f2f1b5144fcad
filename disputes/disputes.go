// Package disputes implements verdict/culprit/fault admission and offender
// accumulation (spec.md §4.3): validators vote a disputed work-report good,
// bad, or wonky; culprits and faults attach or contradict that judgement
// with a signed key that, once confirmed, moves into the permanent ψ.punish
// set.
package disputes

import (
	"github.com/jamzig/jamzig-sub009/crypto"
	"github.com/jamzig/jamzig-sub009/delta"
	"github.com/jamzig/jamzig-sub009/params"
	"github.com/jamzig/jamzig-sub009/state"
)

// Domain tags for the three signed-judgement message shapes. None of these
// are pinned by spec.md's crypto façade (§1 treats Ed25519 as opaque); they
// exist only so every verifier in this package hashes the same bytes a
// signer would have signed, the same role ringSealInputDomain plays for
// ticket seals in package safrole.
const (
	domainValid   = "jam_valid"
	domainInvalid = "jam_invalid"
	domainCulprit = "jam_culprit"
	domainFault   = "jam_fault"
)

// Outcome is the resolved classification of a Verdict.
type Outcome uint8

const (
	OutcomeGood Outcome = iota
	OutcomeBad
	OutcomeWonky
)

// ProcessDisputesExtrinsic admits a block's disputes extrinsic, applying
// every check in spec.md §4.3: verdicts are classified by quorum among the
// judging epoch's validator set, culprits/faults are checked against the
// verdicts they target, and every confirmed offender key moves into
// ψ'.punish. Reports in ρ matching a bad or wonky target are cleared.
func ProcessDisputesExtrinsic(p params.Params, d *delta.Delta, currentSlot uint32, ex state.DisputesExtrinsic) error {
	if len(ex.Verdicts) == 0 && len(ex.Culprits) == 0 && len(ex.Faults) == 0 {
		return nil
	}

	vk := d.GetValidators()
	ps := d.GetDisputes()
	currentEpoch := p.Epoch(currentSlot)

	outcomes := make(map[crypto.Hash256]Outcome, len(ex.Verdicts))
	for _, v := range ex.Verdicts {
		if resolved(ps, v.ReportHash) {
			return ErrVerdictAlreadyResolved
		}
		if v.EpochIndex != currentEpoch && v.EpochIndex+1 != currentEpoch {
			return ErrBadAgeOfJudgement
		}
		judges := vk.Current
		if v.EpochIndex+1 == currentEpoch {
			judges = vk.Previous
		}
		if uint32(len(v.Judgements)) < p.ValidatorsSuperMajority {
			return ErrQuorumNotMet
		}

		validCount := 0
		for ji, j := range v.Judgements {
			// Strictly increasing indices: a repeated judgement would let
			// one validator count toward quorum more than once.
			if ji > 0 && v.Judgements[ji-1].ValidatorIndex >= j.ValidatorIndex {
				return ErrJudgementsNotSorted
			}
			if j.ValidatorIndex >= uint32(len(judges)) {
				return ErrOffendersNotInValidators
			}
			signer := judges[j.ValidatorIndex]
			domain := domainInvalid
			if j.Vote {
				domain = domainValid
				validCount++
			}
			if err := crypto.Ed25519Verify(signer.Ed25519, judgementMessage(domain, v.ReportHash), j.Signature); err != nil {
				return ErrBadSignature
			}
		}

		invalidCount := len(v.Judgements) - validCount
		majority := p.ValidatorsCount/2 + 1
		outcome := OutcomeWonky
		switch {
		case uint32(invalidCount) >= p.ValidatorsSuperMajority:
			outcome = OutcomeBad
		case uint32(validCount) >= majority:
			outcome = OutcomeGood
		}
		outcomes[v.ReportHash] = outcome
	}

	for _, c := range ex.Culprits {
		if vk.Current.IndexOfEd25519(c.Key) < 0 && vk.Previous.IndexOfEd25519(c.Key) < 0 {
			return ErrOffendersNotInValidators
		}
		outcome, ok := outcomes[c.ReportHash]
		if !ok {
			outcome, ok = resolvedOutcome(ps, c.ReportHash)
		}
		if !ok {
			return ErrUnknownVerdictTarget
		}
		if outcome != OutcomeBad {
			return ErrCulpritTargetNotBad
		}
		if err := crypto.Ed25519Verify(c.Key, culpritMessage(c.ReportHash), c.Signature); err != nil {
			return ErrBadSignature
		}
	}

	for _, f := range ex.Faults {
		if vk.Current.IndexOfEd25519(f.Key) < 0 && vk.Previous.IndexOfEd25519(f.Key) < 0 {
			return ErrOffendersNotInValidators
		}
		outcome, ok := outcomes[f.ReportHash]
		if !ok {
			outcome, ok = resolvedOutcome(ps, f.ReportHash)
		}
		if !ok {
			return ErrUnknownVerdictTarget
		}
		if (outcome == OutcomeGood) != f.Vote {
			return ErrFaultDoesNotContradict
		}
		if err := crypto.Ed25519Verify(f.Key, faultMessage(f.ReportHash, f.Vote), f.Signature); err != nil {
			return ErrBadSignature
		}
	}

	psp := d.EnsureDisputes()
	for _, v := range ex.Verdicts {
		switch outcomes[v.ReportHash] {
		case OutcomeGood:
			psp.Good = psp.Good.Insert(dummyKeyFromHash(v.ReportHash))
		case OutcomeBad:
			psp.Bad = psp.Bad.Insert(dummyKeyFromHash(v.ReportHash))
		case OutcomeWonky:
			psp.Wonky = psp.Wonky.Insert(dummyKeyFromHash(v.ReportHash))
		}
		for _, j := range v.Judgements {
			if (outcomes[v.ReportHash] == OutcomeBad && j.Vote) || (outcomes[v.ReportHash] == OutcomeGood && !j.Vote) {
				judges := vk.Current
				if v.EpochIndex+1 == currentEpoch {
					judges = vk.Previous
				}
				key := judges[j.ValidatorIndex].Ed25519
				if !psp.Punish.Contains(key) {
					psp.Punish = psp.Punish.Insert(key)
				}
			}
		}
	}
	for _, c := range ex.Culprits {
		if !psp.Punish.Contains(c.Key) {
			psp.Punish = psp.Punish.Insert(c.Key)
		}
	}
	for _, f := range ex.Faults {
		if !psp.Punish.Contains(f.Key) {
			psp.Punish = psp.Punish.Insert(f.Key)
		}
	}

	clearPendingReports(d, ex.Verdicts, outcomes)
	return nil
}

// resolved reports whether reportHash already appears in any of ψ's four
// sets (spec.md §4.3 invariant: a verdict target is resolved at most once).
//
// ψ's sets hold Ed25519 offender keys, not report hashes; disputes reuses
// EdKeySet as a generic 32-byte ordered set for both roles, matching the
// report-hash-as-member encoding spec.md §6 assigns this entry.
func resolved(ps state.Disputes, reportHash crypto.Hash256) bool {
	key := dummyKeyFromHash(reportHash)
	return ps.Good.Contains(key) || ps.Bad.Contains(key) || ps.Wonky.Contains(key) || ps.Punish.Contains(key)
}

func resolvedOutcome(ps state.Disputes, reportHash crypto.Hash256) (Outcome, bool) {
	key := dummyKeyFromHash(reportHash)
	switch {
	case ps.Good.Contains(key):
		return OutcomeGood, true
	case ps.Bad.Contains(key):
		return OutcomeBad, true
	case ps.Wonky.Contains(key):
		return OutcomeWonky, true
	}
	return 0, false
}

// dummyKeyFromHash reinterprets a 32-byte report hash as an Ed25519PublicKey
// so it can live in the EdKeySet-typed Good/Bad/Wonky sets alongside actual
// offender keys, matching spec.md §6's shared 32-byte key-set encoding.
func dummyKeyFromHash(h crypto.Hash256) crypto.Ed25519PublicKey {
	return crypto.Ed25519PublicKey(h)
}

func judgementMessage(domain string, reportHash crypto.Hash256) []byte {
	out := make([]byte, 0, len(domain)+32)
	out = append(out, []byte(domain)...)
	out = append(out, reportHash[:]...)
	return out
}

func culpritMessage(reportHash crypto.Hash256) []byte {
	out := make([]byte, 0, len(domainCulprit)+32)
	out = append(out, []byte(domainCulprit)...)
	out = append(out, reportHash[:]...)
	return out
}

func faultMessage(reportHash crypto.Hash256, vote bool) []byte {
	out := make([]byte, 0, len(domainFault)+33)
	out = append(out, []byte(domainFault)...)
	out = append(out, reportHash[:]...)
	if vote {
		out = append(out, 1)
	} else {
		out = append(out, 0)
	}
	return out
}

// clearPendingReports drops any ρ entry whose report hashes to a bad or
// wonky target (spec.md §4.3: a confirmed-bad or confirmed-wonky report can
// no longer become available).
func clearPendingReports(d *delta.Delta, verdicts []state.Verdict, outcomes map[crypto.Hash256]Outcome) {
	targets := make(map[crypto.Hash256]struct{})
	for _, v := range verdicts {
		if o := outcomes[v.ReportHash]; o == OutcomeBad || o == OutcomeWonky {
			targets[v.ReportHash] = struct{}{}
		}
	}
	if len(targets) == 0 {
		return
	}
	pending := d.GetPending()
	changed := false
	for _, pr := range pending {
		if pr == nil {
			continue
		}
		if _, bad := targets[state.HashWorkReport(pr.Report)]; bad {
			changed = true
			break
		}
	}
	if !changed {
		return
	}
	pp := d.EnsurePending()
	for i, pr := range *pp {
		if pr == nil {
			continue
		}
		if _, bad := targets[state.HashWorkReport(pr.Report)]; bad {
			(*pp)[i] = nil
		}
	}
}
