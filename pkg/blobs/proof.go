package blobs

import (
	"fmt"

	"github.com/ethereum/go-ethereum/crypto/kzg4844"
)

// FieldElementAt returns the raw 32-byte field element stored at position
// pos within blob b (the blob's natural, non-bit-reversed storage order).
func FieldElementAt(b *Blob, pos int) ([32]byte, error) {
	const w = 32
	if pos < 0 || pos >= FieldElementsPerBlob {
		return [32]byte{}, fmt.Errorf("blobs: position %d out of range", pos)
	}
	var out [32]byte
	copy(out[:], b[pos*w:(pos+1)*w])
	return out, nil
}

// OpeningProof computes a KZG commitment and point-opening proof for blob
// b at position pos, returning the commitment, proof, and the claimed
// value (the field element at pos).
func OpeningProof(b *Blob, pos int) (Commitment, Proof, [32]byte, error) {
	commitment, err := CommitmentOf(b)
	if err != nil {
		return Commitment{}, Proof{}, [32]byte{}, fmt.Errorf("blobs: commitment: %w", err)
	}
	point := EvaluationPoint(pos)
	proof, claim, err := kzg4844.ComputeProof(b, point)
	if err != nil {
		return Commitment{}, Proof{}, [32]byte{}, fmt.Errorf("blobs: compute proof at %d: %w", pos, err)
	}
	return commitment, proof, claim, nil
}

// VerifyOpening checks a KZG opening proof for blob position pos against a
// previously derived commitment.
func VerifyOpening(commitment Commitment, pos int, claim [32]byte, proof Proof) error {
	point := EvaluationPoint(pos)
	if err := kzg4844.VerifyProof(commitment, point, claim, proof); err != nil {
		return fmt.Errorf("blobs: verify opening at %d: %w", pos, err)
	}
	return nil
}
