package treasury

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

type fakeContract struct {
	address           common.Address
	gameIndex         uint64
	bond              *big.Int
	paid              map[common.Address]*big.Int
	proposer          map[common.Address]common.Address
	eliminationRound  map[common.Address]uint64
	proposerCalls     int
	eliminationCalls  int
}

func (f *fakeContract) Address() common.Address                { return f.address }
func (f *fakeContract) GameIndex(context.Context) (uint64, error) { return f.gameIndex, nil }
func (f *fakeContract) ParticipationBond(context.Context) (*big.Int, error) {
	return f.bond, nil
}
func (f *fakeContract) PaidBonds(_ context.Context, a common.Address) (*big.Int, error) {
	return f.paid[a], nil
}
func (f *fakeContract) Proposer(_ context.Context, a common.Address) (common.Address, error) {
	f.proposerCalls++
	return f.proposer[a], nil
}
func (f *fakeContract) EliminationRound(_ context.Context, a common.Address) (uint64, error) {
	f.eliminationCalls++
	return f.eliminationRound[a], nil
}

func TestProposerOfIsReadThrough(t *testing.T) {
	addr := common.HexToAddress("0x1")
	proposerAddr := common.HexToAddress("0x2")
	fc := &fakeContract{
		bond:     big.NewInt(0),
		proposer: map[common.Address]common.Address{addr: proposerAddr},
	}
	tr, err := Init(context.Background(), fc)
	if err != nil {
		t.Fatalf("init: %v", err)
	}

	for i := 0; i < 3; i++ {
		p, err := tr.ProposerOf(context.Background(), addr)
		if err != nil {
			t.Fatalf("ProposerOf: %v", err)
		}
		if p != proposerAddr {
			t.Fatalf("got %s want %s", p, proposerAddr)
		}
	}
	if fc.proposerCalls != 1 {
		t.Fatalf("expected exactly one contract call, got %d", fc.proposerCalls)
	}
}

func TestEliminationRoundOfIsReadThrough(t *testing.T) {
	addr := common.HexToAddress("0x3")
	fc := &fakeContract{
		bond:             big.NewInt(0),
		eliminationRound: map[common.Address]uint64{addr: 7},
	}
	tr, err := Init(context.Background(), fc)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	for i := 0; i < 2; i++ {
		r, err := tr.EliminationRoundOf(context.Background(), addr)
		if err != nil {
			t.Fatalf("EliminationRoundOf: %v", err)
		}
		if r != 7 {
			t.Fatalf("got %d want 7", r)
		}
	}
	if fc.eliminationCalls != 1 {
		t.Fatalf("expected exactly one contract call, got %d", fc.eliminationCalls)
	}
}
