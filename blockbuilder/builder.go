// Package blockbuilder synthesizes valid block sequences for fuzzing the
// state-transition function (spec.md §4.12). Given a deterministic PRNG
// seeded from a u64, it produces a genesis and successive blocks whose
// tickets, guarantees, and assurances pass real validation, simulating
// the full STF locally so every block's parent_state_root and the trace's
// expected post-roots are exact.
package blockbuilder

import (
	"crypto/ed25519"
	"encoding/binary"
	"fmt"
	"math/rand/v2"

	"github.com/holiman/uint256"

	"github.com/jamzig/jamzig-sub009/conformance"
	"github.com/jamzig/jamzig-sub009/crypto"
	"github.com/jamzig/jamzig-sub009/merkle"
	"github.com/jamzig/jamzig-sub009/params"
	"github.com/jamzig/jamzig-sub009/pvm"
	"github.com/jamzig/jamzig-sub009/reports"
	"github.com/jamzig/jamzig-sub009/shuffle"
	"github.com/jamzig/jamzig-sub009/state"
	"github.com/jamzig/jamzig-sub009/stf"
)

// maxTicketsPerBlock bounds how many ticket envelopes one synthesized
// block carries; small enough to spread submission across the epoch's
// open window, large enough to fill γ_a before the deadline.
const maxTicketsPerBlock = 3

// validatorSecrets holds one fuzz validator's signing material. Both keys
// are derived from the trace seed, so the same u64 always reproduces the
// same validator set and the same signatures.
type validatorSecrets struct {
	bander crypto.BandersnatchSecretKey
	edSeed [32]byte
}

type ticketKey struct {
	validator uint32
	attempt   uint8
}

// Builder produces one deterministic chain. It owns a private copy of the
// evolving state and applies every block it emits through the real
// stf.Orchestrator, so an emitted block is valid by construction.
type Builder struct {
	Params params.Params

	rng     *rand.Rand
	seed    uint64
	orch    *stf.Orchestrator
	secrets []validatorSecrets

	cur        *state.State
	lastHeader state.Header
	lastRoot   crypto.Hash256

	// usedTickets tracks (validator, attempt) pairs already submitted in
	// the current epoch: re-signing the same pair over the same epoch
	// entropy reproduces the same ticket id and would be rejected as
	// DuplicateTicket.
	usedTickets map[ticketKey]struct{}
}

// New builds a Builder for the given parameter set and trace seed. The
// genesis it starts from carries a small service table, per-core
// authorization pools, and one pending report awaiting availability, so
// synthesized traces exercise assurance promotion and accumulation, not
// just Safrole.
func New(p params.Params, seed uint64) (*Builder, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	secrets := make([]validatorSecrets, p.ValidatorsCount)
	validators := make(state.ValidatorSet, p.ValidatorsCount)
	for i := range validators {
		banderSeed := deriveSeed(seed, "jam_fuzz_bander", uint32(i))
		edSeed := deriveSeed(seed, "jam_fuzz_ed25519", uint32(i))
		secrets[i] = validatorSecrets{
			bander: crypto.NewBandersnatchSecretKey(banderSeed),
			edSeed: edSeed,
		}
		validators[i].Bandersnatch = secrets[i].bander.Public()
		pub := ed25519.NewKeyFromSeed(edSeed[:]).Public().(ed25519.PublicKey)
		copy(validators[i].Ed25519[:], pub)
		blsFill := crypto.Blake2b256([]byte("jam_fuzz_bls"), edSeed[:])
		copy(validators[i].BLS[:], blsFill[:])
		metaFill := crypto.Blake2b256([]byte("jam_fuzz_meta"), edSeed[:])
		copy(validators[i].Metadata[:], metaFill[:])
	}

	genesis, err := state.NewGenesis(validators, p.CoreCount, p.ValidatorsCount)
	if err != nil {
		return nil, err
	}
	seedGenesisContent(p, genesis, validators)

	b := &Builder{
		Params:      p,
		rng:         rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15)),
		seed:        seed,
		orch:        stf.New(p, &pvm.StubMachine{}, nil),
		secrets:     secrets,
		cur:         genesis,
		lastHeader:  state.Header{Slot: 0},
		usedTickets: make(map[ticketKey]struct{}),
	}
	b.lastRoot = merkle.EncodeState(genesis).Root()
	return b, nil
}

// seedGenesisContent populates the otherwise-empty genesis with the state
// a mid-life chain would carry: two service accounts (one with a requested
// preimage), authorization pool entries, and a pending report on core 0
// whose results target service 1.
func seedGenesisContent(p params.Params, genesis *state.State, validators state.ValidatorSet) {
	svc1 := state.NewServiceAccount()
	svc1.Balance = uint256.NewInt(1_000_000)
	svc1.MinGasAccumulate = uint256.NewInt(10_000)
	svc1.MinGasOnTransfer = uint256.NewInt(1_000)
	svc1.CodeHash = crypto.Blake2b256([]byte("jam_fuzz_service_1_code"))
	genesis.Services[1] = svc1

	svc2 := state.NewServiceAccount()
	svc2.Balance = uint256.NewInt(500_000)
	svc2.MinGasAccumulate = uint256.NewInt(10_000)
	svc2.MinGasOnTransfer = uint256.NewInt(1_000)
	svc2.CodeHash = crypto.Blake2b256([]byte("jam_fuzz_service_2_code"))
	genesis.Services[2] = svc2

	for core := range genesis.Auth.Pools {
		genesis.Auth.Pools[core] = state.AuthPool{
			crypto.Blake2b256([]byte("jam_fuzz_authorizer"), []byte{byte(core)}),
		}
	}

	payload := []byte("jam_fuzz_genesis_package")
	report := state.WorkReport{
		PackageSpec: state.PackageSpec{
			Hash:        crypto.Blake2b256(payload),
			Length:      uint32(len(payload)),
			ErasureRoot: state.CommitErasureRoot(payload),
		},
		CoreIndex:      0,
		AuthorizerHash: genesis.Auth.Pools[0][0],
		Results: []state.WorkResult{{
			ServiceID:     1,
			CodeHash:      svc1.CodeHash,
			PayloadHash:   crypto.Blake2b256(payload),
			AccumulateGas: 10_000,
			Status:        state.WorkResultOK,
		}},
	}
	genesis.Pending[0] = &state.PendingReport{
		Report:  report,
		Timeout: p.EpochLength * 4,
		GuarantorKeys: []crypto.Ed25519PublicKey{
			validators[0].Ed25519,
			validators[1].Ed25519,
		},
	}
}

// Genesis returns the trace's starting point: the genesis header, the full
// state dictionary an initialize message carries, and its root.
func (b *Builder) Genesis() (state.Header, merkle.Dictionary, crypto.Hash256) {
	dict := merkle.EncodeState(b.cur)
	return state.Header{Slot: 0}, dict, dict.Root()
}

// State returns a deep copy of the builder's current state, for assertions
// in property tests.
func (b *Builder) State() *state.State { return b.cur.Clone() }

// LastRoot returns the post-root of the most recently built block (or the
// genesis root before any block is built).
func (b *Builder) LastRoot() crypto.Hash256 { return b.lastRoot }

// NextBlock synthesizes the next valid block, applies it to the builder's
// private state through the real STF, and returns it with its post-root.
func (b *Builder) NextBlock() (state.Block, crypto.Hash256, error) {
	slot := uint32(b.cur.Slot) + 1
	// An occasional empty slot keeps traces from only ever exercising the
	// dense-chain path.
	if b.rng.Uint64()%8 == 0 {
		slot++
	}
	return b.buildAt(slot)
}

func (b *Builder) buildAt(slot uint32) (state.Block, crypto.Hash256, error) {
	boundary := b.Params.IsEpochBoundary(uint32(b.cur.Slot), slot)
	blockEntropy := crypto.Blake2b256([]byte("jam_fuzz_entropy"), u64le(b.seed), u32le(slot))

	// Mirror §4.9 step 3 so ticket inputs sign over the entropy the
	// verifier will actually use.
	entropy := b.cur.Entropy.Accumulate(blockEntropy[:])
	if boundary {
		entropy = entropy.Rotate()
		b.usedTickets = make(map[ticketKey]struct{})
	}

	header := state.Header{
		ParentHash:      b.lastHeader.Hash(),
		ParentStateRoot: b.lastRoot,
		Slot:            state.TimeSlot(slot),
		AuthorIndex:     uint32(b.rng.Uint64() % uint64(b.Params.ValidatorsCount)),
		BlockEntropy:    blockEntropy,
	}
	if boundary {
		header.EpochMark = b.epochMark(entropy)
		if tickets := b.ticketsMark(slot); tickets != nil {
			header.TicketsMark = tickets
		}
	}

	var ex state.Extrinsic
	var err error
	if ex.Tickets, err = b.buildTickets(slot, boundary, entropy); err != nil {
		return state.Block{}, crypto.Hash256{}, err
	}
	ex.Guarantees = b.buildGuarantees(slot, entropy)
	ex.Assurances = b.buildAssurances(header.ParentHash)
	ex.Preimages = b.buildPreimages(slot)

	block := state.Block{Header: header, Extrinsic: ex}
	post, root, err := b.orch.ImportBlock(b.cur, block)
	if err != nil {
		return state.Block{}, crypto.Hash256{}, fmt.Errorf("blockbuilder: synthesized block rejected at slot %d: %w", slot, err)
	}
	b.cur = post
	b.lastHeader = header
	b.lastRoot = root
	return block, root, nil
}

// buildTickets signs up to maxTicketsPerBlock fresh ticket envelopes for
// the current epoch, sorted by their derived ids as admission requires.
func (b *Builder) buildTickets(slot uint32, boundary bool, entropy state.Entropy) (state.TicketExtrinsic, error) {
	if b.Params.SlotInEpoch(slot) >= b.Params.TicketSubmissionEndEpochSlot {
		return nil, nil
	}
	// After a boundary the verifying ring is the rotated γ_k; with no
	// disputes in synthesized traces, offender zeroing never alters it.
	ring := b.cur.Safrole.NextEpochValidators.BandersnatchKeys()

	accumulated := len(b.cur.Safrole.Tickets)
	if boundary {
		accumulated = 0
	}
	capacity := int(b.Params.EpochLength) - accumulated
	want := maxTicketsPerBlock
	if capacity < want {
		want = capacity
	}
	if want <= 0 {
		return nil, nil
	}

	type signedTicket struct {
		id  [32]byte
		env state.TicketEnvelope
	}
	var signed []signedTicket
	for v := uint32(0); v < b.Params.ValidatorsCount && len(signed) < want; v++ {
		for a := uint8(0); a < b.Params.MaxTicketEntriesPerValidator && len(signed) < want; a++ {
			key := ticketKey{validator: v, attempt: a}
			if _, used := b.usedTickets[key]; used {
				continue
			}
			prover, err := crypto.NewRingProver(b.secrets[v].bander, ring, int(v))
			if err != nil {
				return nil, err
			}
			input := ticketSealInput(entropy[2], a)
			sig, id, err := prover.Sign(input, nil)
			if err != nil {
				return nil, err
			}
			b.usedTickets[key] = struct{}{}
			signed = append(signed, signedTicket{id: id, env: state.TicketEnvelope{Attempt: a, Signature: sig}})
		}
	}
	if len(signed) == 0 {
		return nil, nil
	}

	for i := 1; i < len(signed); i++ {
		for j := i; j > 0 && lessID(signed[j].id, signed[j-1].id); j-- {
			signed[j-1], signed[j] = signed[j], signed[j-1]
		}
	}
	out := make(state.TicketExtrinsic, len(signed))
	for i, s := range signed {
		out[i] = s.env
	}
	return out, nil
}

// buildGuarantees signs a fresh work report for each idle core (with a
// coin flip per core so traces also exercise empty-core blocks), anchored
// at the recent-history head and signed by the validators the current
// rotation assigns to that core.
func (b *Builder) buildGuarantees(slot uint32, entropy state.Entropy) state.GuaranteesExtrinsic {
	if len(b.cur.History) == 0 {
		return nil
	}
	anchor := b.cur.History[len(b.cur.History)-1]
	assignment := reports.AssignmentAt(b.Params, entropy[2], slot)

	var out state.GuaranteesExtrinsic
	for core := uint32(0); core < b.Params.CoreCount; core++ {
		if b.cur.Pending[core] != nil || b.rng.Uint64()%2 == 0 {
			continue
		}
		payload := append([]byte("jam_fuzz_package_"), u32le(slot)...)
		payload = append(payload, byte(core))
		report := state.WorkReport{
			PackageSpec: state.PackageSpec{
				Hash:        crypto.Blake2b256(payload),
				Length:      uint32(len(payload)),
				ErasureRoot: state.CommitErasureRoot(payload),
			},
			Context: state.Context{
				AnchorHeaderHash: anchor.HeaderHash,
				// The head entry's recorded root is patched to the new
				// block's parent_state_root before admission runs.
				AnchorStateRoot: b.lastRoot,
				AnchorTimeslot:  uint32(b.cur.Slot),
			},
			CoreIndex:      uint16(core),
			AuthorizerHash: b.cur.Auth.Pools[core][0],
			Results: []state.WorkResult{{
				ServiceID:     2,
				CodeHash:      b.cur.Services[2].CodeHash,
				PayloadHash:   crypto.Blake2b256(payload),
				AccumulateGas: 10_000,
				Status:        state.WorkResultOK,
			}},
		}
		reportHash := state.HashWorkReport(report)

		var sigs []state.GuaranteeSignature
		for vi, c := range assignment {
			if c != core {
				continue
			}
			sigs = append(sigs, state.GuaranteeSignature{
				ValidatorIndex: uint32(vi),
				Signature:      crypto.Ed25519Sign(b.secrets[vi].edSeed, reports.GuaranteeMessage(reportHash)),
			})
			if uint32(len(sigs)) == b.Params.MaxGuarantorsPerReport {
				break
			}
		}
		if uint32(len(sigs)) < b.Params.MinGuarantorsPerReport {
			continue
		}
		out = append(out, state.Guarantee{Report: report, Timeslot: slot, Signatures: sigs})
	}
	return out
}

// buildAssurances has every validator vouch for each currently-engaged
// core, enough to clear the super-majority threshold and promote the
// pending reports this block.
func (b *Builder) buildAssurances(parentHash crypto.Hash256) state.AssurancesExtrinsic {
	bitfield := make([]byte, b.Params.AvailBitfieldBytes)
	engaged := false
	for core := uint32(0); core < b.Params.CoreCount; core++ {
		if b.cur.Pending[core] != nil {
			bitfield[core/8] |= 1 << (7 - core%8)
			engaged = true
		}
	}
	if !engaged {
		return nil
	}

	out := make(state.AssurancesExtrinsic, b.Params.ValidatorsCount)
	for v := uint32(0); v < b.Params.ValidatorsCount; v++ {
		msg := make([]byte, 0, 13+32+len(bitfield))
		msg = append(msg, []byte("jam_available")...)
		msg = append(msg, parentHash[:]...)
		msg = append(msg, bitfield...)
		out[v] = state.Assurance{
			ParentHash:     parentHash,
			ValidatorIndex: v,
			Bitfield:       append([]byte(nil), bitfield...),
			Signature:      crypto.Ed25519Sign(b.secrets[v].edSeed, msg),
		}
	}
	return out
}

// buildPreimages occasionally provides a fresh preimage blob to service 1;
// uniqueness per slot keeps re-provision rejection from ever firing.
func (b *Builder) buildPreimages(slot uint32) state.PreimagesExtrinsic {
	if b.rng.Uint64()%4 != 0 {
		return nil
	}
	return state.PreimagesExtrinsic{{
		ServiceID: 1,
		Blob:      append([]byte("jam_fuzz_preimage_"), u32le(slot)...),
	}}
}

func (b *Builder) epochMark(entropy state.Entropy) *state.EpochMark {
	// Incoming validators are the staged γ_k; with no offenders in
	// synthesized traces the rotation promotes them unchanged.
	return &state.EpochMark{
		Entropy:    entropy[1],
		Validators: b.cur.Safrole.NextEpochValidators.BandersnatchKeys(),
	}
}

// ticketsMark mirrors RotateEpoch's sealing-key decision: present only
// when the closing epoch accumulated a full, on-time γ_a.
func (b *Builder) ticketsMark(newSlot uint32) *state.TicketsMark {
	priorSlotInEpoch := b.Params.SlotInEpoch(uint32(b.cur.Slot))
	consecutive := b.Params.Epoch(newSlot) == b.Params.Epoch(uint32(b.cur.Slot))+1
	if priorSlotInEpoch < b.Params.TicketSubmissionEndEpochSlot ||
		uint32(len(b.cur.Safrole.Tickets)) != b.Params.EpochLength ||
		!consecutive {
		return nil
	}
	return &state.TicketsMark{Tickets: shuffle.OutsideIn(b.cur.Safrole.Tickets)}
}

// BuildTrace synthesizes a full conformance trace of n blocks.
func (b *Builder) BuildTrace(n int) (conformance.Trace, error) {
	header, dict, root := b.Genesis()
	tr := conformance.Trace{
		GenesisHeader: header,
		GenesisState:  dict,
		GenesisRoot:   root,
		Blocks:        make([]state.Block, 0, n),
		PostRoots:     make([]crypto.Hash256, 0, n),
	}
	for i := 0; i < n; i++ {
		block, postRoot, err := b.NextBlock()
		if err != nil {
			return conformance.Trace{}, err
		}
		tr.Blocks = append(tr.Blocks, block)
		tr.PostRoots = append(tr.PostRoots, postRoot)
	}
	return tr, nil
}

func ticketSealInput(epochEntropy crypto.Hash256, attempt uint8) []byte {
	out := make([]byte, 0, 15+32+1)
	out = append(out, []byte("jam_ticket_seal")...)
	out = append(out, epochEntropy[:]...)
	out = append(out, attempt)
	return out
}

func deriveSeed(seed uint64, domain string, index uint32) [32]byte {
	return crypto.Blake2b256([]byte(domain), u64le(seed), u32le(index))
}

func lessID(a, b [32]byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func u32le(x uint32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], x)
	return buf[:]
}

func u64le(x uint64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], x)
	return buf[:]
}
