package accumulation

import (
	"github.com/jamzig/jamzig-sub009/crypto"
	"github.com/jamzig/jamzig-sub009/delta"
	"github.com/jamzig/jamzig-sub009/state"
)

// ProcessPreimagesExtrinsic admits a block's preimages extrinsic into δ′
// (spec.md §4.9 step 8, ahead of Accumulation): each blob is content-hashed
// with Blake2b-256 and stored against its service's account, recording the
// slot it became available at. Providing the same (service, hash) pair
// twice is rejected.
func ProcessPreimagesExtrinsic(d *delta.Delta, currentSlot uint32, ex state.PreimagesExtrinsic) error {
	if len(ex) == 0 {
		return nil
	}
	services := *d.EnsureServices()
	for _, pre := range ex {
		acct, ok := services[pre.ServiceID]
		if !ok {
			return ErrServiceUnknown
		}
		hash := crypto.Blake2b256(pre.Blob)
		if _, provided := acct.Storage[hash]; provided {
			return ErrPreimageAlreadyProvided
		}
		acct.Storage[hash] = append([]byte(nil), pre.Blob...)
		status := acct.PreimageLookups[hash]
		status.Slots = append(status.Slots, currentSlot)
		acct.PreimageLookups[hash] = status
	}
	return nil
}
