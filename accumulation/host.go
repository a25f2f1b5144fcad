package accumulation

import (
	"github.com/holiman/uint256"
	"github.com/jamzig/jamzig-sub009/crypto"
	"github.com/jamzig/jamzig-sub009/delta"
	"github.com/jamzig/jamzig-sub009/state"
)

// pendingTransfer is one emitted transfer queued for its on_transfer
// invocation, processed in FIFO order after every accumulate call in the
// current report batch has run (spec.md §4.6).
type pendingTransfer struct {
	From   state.ServiceID
	To     state.ServiceID
	Amount *uint256.Int
	Gas    uint64
	Data   []byte
}

// deltaHost implements pvm.Host against a Delta's staged δ′, the single
// point where a running program's storage/preimage/transfer/service-creation
// side effects land (spec.md §4.6).
type deltaHost struct {
	d         *delta.Delta
	nextID    state.ServiceID
	slot      uint32
	transfers []pendingTransfer
	touched   map[state.ServiceID]struct{}
	// current is the service whose entry point is executing right now; it
	// is the implicit sender of any transfer the call emits.
	current state.ServiceID
}

func newDeltaHost(d *delta.Delta, nextID state.ServiceID, slot uint32) *deltaHost {
	return &deltaHost{d: d, nextID: nextID, slot: slot, touched: make(map[state.ServiceID]struct{})}
}

func (h *deltaHost) ReadStorage(service state.ServiceID, key crypto.Hash256) ([]byte, bool) {
	services := h.d.GetServices()
	acct, ok := services[service]
	if !ok {
		return nil, false
	}
	v, ok := acct.Storage[key]
	return v, ok
}

func (h *deltaHost) WriteStorage(service state.ServiceID, key crypto.Hash256, value []byte) {
	services := *h.d.EnsureServices()
	acct, ok := services[service]
	if !ok {
		return
	}
	acct.Storage[key] = value
	h.touched[service] = struct{}{}
}

func (h *deltaHost) ReadPreimage(service state.ServiceID, hash crypto.Hash256) ([]byte, bool) {
	return h.ReadStorage(service, hash)
}

func (h *deltaHost) WritePreimageStatus(service state.ServiceID, hash crypto.Hash256, status state.PreimageStatus) {
	services := *h.d.EnsureServices()
	acct, ok := services[service]
	if !ok {
		return
	}
	acct.PreimageLookups[hash] = status
	h.touched[service] = struct{}{}
}

func (h *deltaHost) CreateService(codeHash crypto.Hash256, minGasAccumulate, minGasOnTransfer *uint256.Int) state.ServiceID {
	id := h.nextID
	h.nextID++
	acct := state.NewServiceAccount()
	acct.CodeHash = codeHash
	acct.MinGasAccumulate = new(uint256.Int).Set(minGasAccumulate)
	acct.MinGasOnTransfer = new(uint256.Int).Set(minGasOnTransfer)
	acct.CreationSlot = h.currentSlot()
	services := h.d.EnsureServices()
	(*services)[id] = acct
	return id
}

func (h *deltaHost) EmitTransfer(to state.ServiceID, amount *uint256.Int, gas uint64, data []byte) {
	h.transfers = append(h.transfers, pendingTransfer{
		From:   h.current,
		To:     to,
		Amount: new(uint256.Int).Set(amount),
		Gas:    gas,
		Data:   append([]byte(nil), data...),
	})
}

// currentSlot is set once per Accumulate invocation via newDeltaHost.
func (h *deltaHost) currentSlot() uint32 { return h.slot }
