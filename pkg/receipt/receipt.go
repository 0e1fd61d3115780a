// Package receipt decodes the zkVM receipt artifacts written by the
// prover subprocess (C8) and consumed by the chain-watcher (C7): the
// journal, the proof seal, and the claimed pre-state image id.
package receipt

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/kailua-zk/validator/pkg/journal"
)

// ErrFakeReceiptRejected is returned by Verify when a fake (developer-mode)
// receipt is presented outside developer mode.
var ErrFakeReceiptRejected = errors.New("receipt: fake receipt rejected outside developer mode")

// fakeMarker tags a receipt produced with RISC0_DEV_MODE=1: such receipts
// carry no real proof of execution and are only accepted in developer mode.
const fakeMarker = 0xFE
const realMarker = 0x00

// Receipt is a decoded zkVM receipt: the public journal, the opaque proof
// seal, and whether it was produced in developer (fake) mode.
type Receipt struct {
	Journal journal.ProofJournal
	Seal    []byte
	Fake    bool

	// imageID is the pre-state claim carried by the receipt. For a real
	// receipt this is bound to the guest program and cannot be forged;
	// for a fake receipt it is overwritten by Verify to the tournament's
	// expected image id, matching the developer-mode relaxation (§4.6.b).
	imageID common.Hash
}

// Decode parses the wire format a prover subprocess writes to its artifact
// file: a one-byte mode marker, the fixed-width ProofJournal, a 32-byte
// image id, and the remaining bytes as the opaque proof seal.
func Decode(data []byte) (Receipt, error) {
	minLen := 1 + journal.EncodedLen + 32
	if len(data) < minLen {
		return Receipt{}, fmt.Errorf("receipt: truncated artifact, want at least %d bytes got %d", minLen, len(data))
	}
	off := 0
	marker := data[off]
	off++
	j, err := journal.DecodePacked(data[off : off+journal.EncodedLen])
	if err != nil {
		return Receipt{}, fmt.Errorf("receipt: journal: %w", err)
	}
	off += journal.EncodedLen
	imageID := common.BytesToHash(data[off : off+32])
	off += 32
	seal := append([]byte(nil), data[off:]...)

	return Receipt{
		Journal: j,
		Seal:    seal,
		Fake:    marker == fakeMarker,
		imageID: imageID,
	}, nil
}

// Verify checks the receipt's pre-state claim against the tournament's
// expected imageId (§4.6.b). In developer mode, fake receipts are allowed
// and their pre-state claim is overwritten to expectedImageID rather than
// compared; outside developer mode, a fake receipt is rejected outright and
// a real receipt's image id must match exactly.
func (r *Receipt) Verify(expectedImageID common.Hash, devMode bool) error {
	if r.Fake {
		if !devMode {
			return ErrFakeReceiptRejected
		}
		r.imageID = expectedImageID
		return nil
	}
	if r.imageID != expectedImageID {
		return fmt.Errorf("receipt: image id mismatch: want %s got %s", expectedImageID, r.imageID)
	}
	return nil
}

// ImageID returns the receipt's (possibly overwritten, post-Verify)
// pre-state claim.
func (r *Receipt) ImageID() common.Hash { return r.imageID }

// Encode is the inverse of Decode: it assembles an artifact in the same
// wire format without a real proving backend.
func Encode(j journal.ProofJournal, imageID common.Hash, seal []byte, fake bool) []byte {
	marker := byte(realMarker)
	if fake {
		marker = fakeMarker
	}
	out := make([]byte, 0, 1+journal.EncodedLen+32+len(seal))
	out = append(out, marker)
	out = append(out, j.EncodePacked()...)
	out = append(out, imageID[:]...)
	out = append(out, seal...)
	return out
}

// beUint64 returns n as 8 big-endian bytes, the journal's block-number
// encoding. Nothing in the package calls it.
func beUint64(n uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], n)
	return b[:]
}
