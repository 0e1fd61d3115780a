// Package treasury mirrors the on-chain treasury's bond and proposer
// registry state (C3): a read-through cache over Treasury contract calls.
package treasury

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/kailua-zk/validator/pkg/contracts"
)

// Treasury is a cached view of on-chain treasury state. Per-address maps
// are populated read-through on first query; writes mirror the chain. The
// chain-watcher owns the only instance (§5: no shared mutable state
// between tasks).
type Treasury struct {
	mu sync.Mutex

	Index             uint64
	Address           common.Address
	ParticipationBond *big.Int

	paidBond         map[common.Address]*big.Int
	claimProposer    map[common.Address]common.Address
	eliminationRound map[common.Address]uint64

	contract contracts.Treasury
}

// Init loads the treasury's static fields (index, participation bond) from
// the contract instance and returns a fresh Treasury with empty caches.
func Init(ctx context.Context, contract contracts.Treasury) (*Treasury, error) {
	bond, err := contract.ParticipationBond(ctx)
	if err != nil {
		return nil, fmt.Errorf("treasury: participation_bond: %w", err)
	}
	index, err := contract.GameIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("treasury: game_index: %w", err)
	}
	return &Treasury{
		Index:             index,
		Address:           contract.Address(),
		ParticipationBond: bond,
		paidBond:          make(map[common.Address]*big.Int),
		claimProposer:     make(map[common.Address]common.Address),
		eliminationRound:  make(map[common.Address]uint64),
		contract:          contract,
	}, nil
}

// FetchBond refreshes and returns the current participation bond.
func (t *Treasury) FetchBond(ctx context.Context) (*big.Int, error) {
	bond, err := t.contract.ParticipationBond(ctx)
	if err != nil {
		return nil, fmt.Errorf("treasury: participation_bond: %w", err)
	}
	t.mu.Lock()
	t.ParticipationBond = bond
	t.mu.Unlock()
	return bond, nil
}

// FetchBalance refreshes and returns the paid bond for addr, always
// re-querying the chain (mirrors the original's fetch_balance, which is
// not read-through).
func (t *Treasury) FetchBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	paid, err := t.contract.PaidBonds(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("treasury: paid_bonds(%s): %w", addr, err)
	}
	t.mu.Lock()
	t.paidBond[addr] = paid
	t.mu.Unlock()
	return paid, nil
}

// BondOf returns the last-fetched paid bond for addr, or nil if never
// fetched.
func (t *Treasury) BondOf(addr common.Address) *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.paidBond[addr]
}

// ProposerOf is read-through: returns the cached proposer for addr,
// querying the contract only on first access for that address.
func (t *Treasury) ProposerOf(ctx context.Context, addr common.Address) (common.Address, error) {
	t.mu.Lock()
	if p, ok := t.claimProposer[addr]; ok {
		t.mu.Unlock()
		return p, nil
	}
	t.mu.Unlock()

	p, err := t.contract.Proposer(ctx, addr)
	if err != nil {
		return common.Address{}, fmt.Errorf("treasury: proposer(%s): %w", addr, err)
	}
	t.mu.Lock()
	t.claimProposer[addr] = p
	t.mu.Unlock()
	return p, nil
}

// EliminationRoundOf is read-through: returns the cached elimination round
// for addr, querying the contract only on first access.
func (t *Treasury) EliminationRoundOf(ctx context.Context, addr common.Address) (uint64, error) {
	t.mu.Lock()
	if r, ok := t.eliminationRound[addr]; ok {
		t.mu.Unlock()
		return r, nil
	}
	t.mu.Unlock()

	r, err := t.contract.EliminationRound(ctx, addr)
	if err != nil {
		return 0, fmt.Errorf("treasury: elimination_round(%s): %w", addr, err)
	}
	t.mu.Lock()
	t.eliminationRound[addr] = r
	t.mu.Unlock()
	return r, nil
}
