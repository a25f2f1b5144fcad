package state

import (
	"encoding/binary"
	"fmt"
	"sync"

	goethkzg "github.com/crate-crypto/go-eth-kzg"

	"github.com/jamzig/jamzig-sub009/crypto"
)

// bytesPerFieldElement is the payload each 32-byte blob field element
// carries: the leading byte is left zero so the element is always a
// canonical scalar below the BLS modulus.
const bytesPerFieldElement = 31

// blobPayloadBytes is the payload capacity of one KZG blob (4096 field
// elements).
const blobPayloadBytes = 4096 * bytesPerFieldElement

// kzgContext initializes the embedded trusted-setup context once, on first
// use; the setup is compiled into the library, so a failure here is a
// build defect rather than a runtime condition.
var kzgContext = sync.OnceValue(func() *goethkzg.Context {
	ctx, err := goethkzg.NewContext4096Secure()
	if err != nil {
		panic(fmt.Sprintf("state: embedded KZG trusted setup failed to load: %v", err))
	}
	return ctx
})

// CommitErasureRoot derives a content-binding erasure-root commitment for
// a work package's payload: the payload is packed into KZG blobs (31
// payload bytes per field element, zero-padded), each blob is committed
// under the embedded trusted setup, and the commitments are folded together
// with the payload length into a single 32-byte root, so payloads that
// differ only in trailing zero bytes still commit differently. Unlike an opaque random hash, the result is a
// polynomial commitment a data-availability layer could open against.
func CommitErasureRoot(data []byte) crypto.Hash256 {
	ctx := kzgContext()

	nBlobs := len(data)/blobPayloadBytes + 1
	parts := make([][]byte, 0, nBlobs+1)
	parts = append(parts, []byte("jam_erasure_root"))
	var length [8]byte
	binary.LittleEndian.PutUint64(length[:], uint64(len(data)))
	parts = append(parts, length[:])
	for i := 0; i < nBlobs; i++ {
		var blob goethkzg.Blob
		start := i * blobPayloadBytes
		chunk := data[start:min(len(data), start+blobPayloadBytes)]
		for j := 0; j < len(chunk); j += bytesPerFieldElement {
			element := chunk[j:min(len(chunk), j+bytesPerFieldElement)]
			// Element layout: [0, payload..., zero padding].
			copy(blob[(j/bytesPerFieldElement)*32+1:], element)
		}
		commitment, err := ctx.BlobToKZGCommitment(&blob, 0)
		if err != nil {
			// Packing keeps every element canonical, so the only
			// commitment errors are setup-level ones.
			panic(fmt.Sprintf("state: KZG commitment failed: %v", err))
		}
		parts = append(parts, commitment[:])
	}
	return crypto.Blake2b256(parts...)
}
