// Package proposal implements the proposal model and divergence locator
// (C4): per-proposal outputs, IO blob, commitment/proof derivation, and
// the first-divergence finder between two sibling proposals.
package proposal

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/kailua-zk/validator/pkg/blobs"
)

// ErrStructural is returned by DivergencePoint when one proposal's output
// sequence is a prefix of (or equal to) the other's: the spec treats this
// as a structural error, not a disagreement to locate.
var ErrStructural = errors.New("proposal: one sequence is a prefix of the other")

// IOBlob is the single EIP-4844 blob a proposal publishes alongside its
// output, encoding its sequence of intermediate output roots as field
// elements.
type IOBlob struct {
	VersionedHash common.Hash
	Blob          *blobs.Blob
}

// Proposal is the central tournament-tree entity (§3).
type Proposal struct {
	// Identity.
	Index       uint64
	GameAddress common.Address
	Parent      uint64 // meaningful only if HasParent is true (anchor has none)
	HasParent   bool
	Children    []uint64 // insertion-ordered by factory index
	Contender   *uint64  // sibling this proposal disputes at the parent's tournament

	// Outputs.
	OutputRoot        common.Hash
	OutputBlockNumber uint64
	IOFieldElements   []common.Hash // length = OutputBlockNumber - parent.OutputBlockNumber - 1

	// Data availability.
	L1Head common.Hash
	IOBlob IOBlob

	// parentOutputBlockNumberHint is the parent's OutputBlockNumber,
	// recorded when this proposal is linked into its parent. The
	// proposal database's store persists it alongside the proposal; it
	// exists only to support HasPreconditionFor's span computation.
	parentOutputBlockNumberHint int
}

// OutputAt returns the output root claimed at zero-based position pos
// within this proposal's output sequence: the intermediate field element
// if pos indexes one, or OutputRoot at the final position (I2).
func (p *Proposal) OutputAt(pos int) (common.Hash, error) {
	n := len(p.IOFieldElements)
	switch {
	case pos < 0 || pos > n:
		return common.Hash{}, fmt.Errorf("proposal: position %d out of range [0,%d]", pos, n)
	case pos == n:
		return p.OutputRoot, nil
	default:
		return p.IOFieldElements[pos], nil
	}
}

// Len returns the number of selectable output positions (one past the
// last intermediate element index is the final OutputRoot position).
func (p *Proposal) Len() int { return len(p.IOFieldElements) + 1 }

// DivergencePoint returns the smallest position at which p and other
// disagree (I3). It returns ErrStructural if no disagreement is found
// within the shorter length, i.e. one proposal's output sequence is a
// prefix of the other's or the two are identical.
func DivergencePoint(p, other *Proposal) (int, error) {
	limit := p.Len()
	if other.Len() < limit {
		limit = other.Len()
	}
	for i := 0; i < limit; i++ {
		a, err := p.OutputAt(i)
		if err != nil {
			return 0, err
		}
		b, err := other.OutputAt(i)
		if err != nil {
			return 0, err
		}
		if a != b {
			return i, nil
		}
	}
	return 0, ErrStructural
}

// HasPreconditionFor reports whether the opening at pos requires a
// precondition: true iff pos is strictly interior, i.e. both the
// preceding and succeeding openings are intermediate rather than
// endpoints (B1, B2).
func (p *Proposal) HasPreconditionFor(pos int) bool {
	span := int(p.OutputBlockNumber) - p.parentOutputBlockNumberHint
	return pos > 0 && pos+1 < span
}

// SetParentOutputBlockNumber records the parent's output block number for
// later HasPreconditionFor computations. Call this once, when the
// proposal is linked into its parent by the proposal database.
func (p *Proposal) SetParentOutputBlockNumber(n uint64) {
	p.parentOutputBlockNumberHint = int(n)
}

// ParentOutputBlockNumber returns the value last recorded by
// SetParentOutputBlockNumber.
func (p *Proposal) ParentOutputBlockNumber() uint64 {
	return uint64(p.parentOutputBlockNumberHint)
}

// IOBlobFor returns the stored IO blob: every position in a single
// proposal maps to the one IO blob.
func (p *Proposal) IOBlobFor(pos int) IOBlob { return p.IOBlob }

// IOCommitmentFor returns the KZG commitment over the proposal's IO blob.
func (p *Proposal) IOCommitmentFor(pos int) (blobs.Commitment, error) {
	if p.IOBlob.Blob == nil {
		return blobs.Commitment{}, fmt.Errorf("proposal %d: no IO blob", p.Index)
	}
	return blobs.CommitmentOf(p.IOBlob.Blob)
}

// IOProofFor returns a KZG opening proof over the proposal's IO blob at
// the evaluation point associated with pos.
func (p *Proposal) IOProofFor(pos int) (blobs.Commitment, blobs.Proof, common.Hash, error) {
	if p.IOBlob.Blob == nil {
		return blobs.Commitment{}, blobs.Proof{}, common.Hash{}, fmt.Errorf("proposal %d: no IO blob", p.Index)
	}
	c, pr, claim, err := blobs.OpeningProof(p.IOBlob.Blob, pos)
	return c, pr, common.Hash(claim), err
}

// ChildIndex returns the insertion rank of child within p's children, or
// false if child is not one of p's children (I5: strictly increasing in
// insertion order).
func (p *Proposal) ChildIndex(child uint64) (int, bool) {
	for i, c := range p.Children {
		if c == child {
			return i, true
		}
	}
	return 0, false
}
