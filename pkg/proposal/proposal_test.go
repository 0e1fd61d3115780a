package proposal

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func h(b byte) common.Hash {
	var out common.Hash
	out[31] = b
	return out
}

// I1: len(io_field_elements) = output_block_number - parent.output_block_number - 1.
func TestI1FieldElementLengthInvariant(t *testing.T) {
	parentBlock := uint64(100)
	p := &Proposal{
		OutputBlockNumber: 104,
		IOFieldElements:   []common.Hash{h(1), h(2), h(3)},
	}
	want := int(p.OutputBlockNumber - parentBlock - 1)
	if len(p.IOFieldElements) != want {
		t.Fatalf("got %d want %d", len(p.IOFieldElements), want)
	}
}

// I2: output_at(k) == io_field_elements[k] for k<n, == output_root for k==n.
func TestI2OutputAt(t *testing.T) {
	p := &Proposal{
		OutputRoot:      h(99),
		IOFieldElements: []common.Hash{h(1), h(2)},
	}
	for k, want := range p.IOFieldElements {
		got, err := p.OutputAt(k)
		if err != nil || got != want {
			t.Fatalf("OutputAt(%d) = %v, %v; want %v", k, got, err, want)
		}
	}
	got, err := p.OutputAt(len(p.IOFieldElements))
	if err != nil || got != p.OutputRoot {
		t.Fatalf("OutputAt(final) = %v, %v; want %v", got, err, p.OutputRoot)
	}
	if _, err := p.OutputAt(len(p.IOFieldElements) + 1); err == nil {
		t.Fatal("expected out-of-range error")
	}
}

// I3 / S1 / S2 / S3: divergence point semantics.
func TestDivergencePointScenarios(t *testing.T) {
	// S1: identical outputs -> structural "no disagreement" error.
	a := &Proposal{OutputRoot: h(9), IOFieldElements: []common.Hash{h(1), h(2), h(3)}}
	b := &Proposal{OutputRoot: h(9), IOFieldElements: []common.Hash{h(1), h(2), h(3)}}
	if _, err := DivergencePoint(a, b); !errors.Is(err, ErrStructural) {
		t.Fatalf("expected ErrStructural for identical sequences, got %v", err)
	}

	// S2: diverge at position 1.
	c := &Proposal{OutputRoot: h(9), IOFieldElements: []common.Hash{h(1), h(2), h(3)}}
	d := &Proposal{OutputRoot: h(8), IOFieldElements: []common.Hash{h(1), h(20), h(30)}}
	pos, err := DivergencePoint(c, d)
	if err != nil || pos != 1 {
		t.Fatalf("DivergencePoint = %d, %v; want 1, nil", pos, err)
	}

	// S3: differ only at the final output.
	e := &Proposal{OutputRoot: h(9), IOFieldElements: []common.Hash{h(1), h(2)}}
	f := &Proposal{OutputRoot: h(40), IOFieldElements: []common.Hash{h(1), h(2)}}
	pos, err = DivergencePoint(e, f)
	if err != nil || pos != 2 {
		t.Fatalf("DivergencePoint = %d, %v; want 2 (final position), nil", pos, err)
	}
}

// B3: empty io_field_elements, divergence at position 0 when roots differ.
func TestB3EmptyFieldElements(t *testing.T) {
	a := &Proposal{OutputRoot: h(1)}
	b := &Proposal{OutputRoot: h(2)}
	pos, err := DivergencePoint(a, b)
	if err != nil || pos != 0 {
		t.Fatalf("DivergencePoint = %d, %v; want 0, nil", pos, err)
	}
}

// B1/B2: precondition is absent at position 0 and at the final position.
func TestHasPreconditionForBoundaries(t *testing.T) {
	p := &Proposal{OutputBlockNumber: 105}
	p.SetParentOutputBlockNumber(100) // span = 5

	if p.HasPreconditionFor(0) {
		t.Fatal("position 0 must never require a precondition (B1)")
	}
	if p.HasPreconditionFor(4) {
		t.Fatal("final position must never require a precondition (B2)")
	}
	if !p.HasPreconditionFor(2) {
		t.Fatal("interior position should require a precondition")
	}
}

// I5: child_index is strictly increasing in insertion order.
func TestChildIndexOrdering(t *testing.T) {
	p := &Proposal{Children: []uint64{10, 20, 30}}
	for want, child := range p.Children {
		got, ok := p.ChildIndex(child)
		if !ok || got != want {
			t.Fatalf("ChildIndex(%d) = %d, %v; want %d, true", child, got, ok, want)
		}
	}
	if _, ok := p.ChildIndex(999); ok {
		t.Fatal("expected false for unknown child")
	}
}
