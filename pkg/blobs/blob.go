// Package blobs implements the blob & KZG witness layer (C2): blob fetches
// from the L1 consensus/beacon node, EIP-4844 commitment/versioned-hash
// derivation, and on-the-fly KZG opening proofs for on-chain submission.
package blobs

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto/kzg4844"
)

// BlobVersionHash is the version tag EIP-4844 prescribes for versioned
// blob hashes (the first byte of the SHA-256 digest of the commitment is
// replaced with this value).
const BlobVersionHash byte = 0x01

// FieldElementsPerBlob is the number of 32-byte field elements encoded in
// a single EIP-4844 blob.
const FieldElementsPerBlob = 4096

var (
	// ErrVersionedHashMismatch is returned when a fetched blob's derived
	// commitment does not match the on-chain-recorded versioned hash.
	ErrVersionedHashMismatch = errors.New("blobs: versioned hash mismatch")
)

// BlockRef identifies an L1 block by hash, number, parent hash, and
// timestamp (the timestamp selects the corresponding beacon slot).
type BlockRef struct {
	Hash       common.Hash
	Number     uint64
	ParentHash common.Hash
	Timestamp  uint64
}

// IndexedBlobHash identifies a single blob within an L1 block's blob
// sidecar list by its index and EIP-4844 versioned hash.
type IndexedBlobHash struct {
	Index uint64
	Hash  common.Hash
}

// FetchRequest identifies a single EIP-4844 blob by the L1 block it was
// posted in and its indexed versioned hash.
type FetchRequest struct {
	BlockRef BlockRef
	BlobHash IndexedBlobHash
}

// Blob is the raw 4096-field-element blob payload.
type Blob = kzg4844.Blob

// Commitment is a compressed KZG commitment to a Blob.
type Commitment = kzg4844.Commitment

// Proof is a compressed KZG opening proof.
type Proof = kzg4844.Proof

// VersionedHashFromCommitment computes the EIP-4844 versioned hash for a
// commitment: the SHA-256 digest of the commitment with its first byte
// replaced by BlobVersionHash.
func VersionedHashFromCommitment(c Commitment) common.Hash {
	h := sha256.Sum256(c[:])
	h[0] = BlobVersionHash
	return common.Hash(h)
}

// CommitmentOf returns the KZG commitment of b, recomputing it from the
// blob contents.
func CommitmentOf(b *Blob) (Commitment, error) {
	return kzg4844.BlobToCommitment(b)
}

// WitnessEntry records one fetched-and-verified blob for the accumulating
// witness log consumed by the zkVM pre-pass.
type WitnessEntry struct {
	Request    FetchRequest
	Blob       Blob
	Commitment Commitment
}

// WitnessLog accumulates verified blob fetches (oracle_witness /
// blobs_witness input to the zkVM).
type WitnessLog struct {
	entries []WitnessEntry
}

// Append records a witness entry.
func (w *WitnessLog) Append(e WitnessEntry) { w.entries = append(w.entries, e) }

// Entries returns the accumulated witness entries in fetch order.
func (w *WitnessLog) Entries() []WitnessEntry { return w.entries }

// Source fetches the raw blob sidecar bytes for the given request from the
// L1 beacon/consensus node.
type Source interface {
	FetchBlob(ctx context.Context, req FetchRequest) (*Blob, error)
}

// GetBlob fetches the blob identified by req from source, verifies its
// commitment against the requested versioned hash, and records it in log
// if log is non-nil.
func GetBlob(ctx context.Context, source Source, req FetchRequest, log *WitnessLog) (*Blob, error) {
	blob, err := source.FetchBlob(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("blobs: fetch %d@%s: %w", req.BlobHash.Index, req.BlockRef.Hash, err)
	}
	commitment, err := CommitmentOf(blob)
	if err != nil {
		return nil, fmt.Errorf("blobs: commitment derivation: %w", err)
	}
	vh := VersionedHashFromCommitment(commitment)
	if vh != req.BlobHash.Hash {
		return nil, fmt.Errorf("%w: want %s got %s", ErrVersionedHashMismatch, req.BlobHash.Hash, vh)
	}
	if log != nil {
		log.Append(WitnessEntry{Request: req, Blob: *blob, Commitment: commitment})
	}
	return blob, nil
}
