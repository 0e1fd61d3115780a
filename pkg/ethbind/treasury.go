package ethbind

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var treasuryParsedABI = mustParseABI(treasuryABI)

// Treasury binds the on-chain treasury contract (mirrored by pkg/treasury).
type Treasury struct {
	backend *Backend
	addr    common.Address
}

// NewTreasury binds a Treasury at addr.
func NewTreasury(b *Backend, addr common.Address) *Treasury {
	return &Treasury{backend: b, addr: addr}
}

func (t *Treasury) Address() common.Address { return t.addr }

func (t *Treasury) GameIndex(ctx context.Context) (uint64, error) {
	var out []interface{}
	if err := t.backend.bound(t.addr, treasuryParsedABI).Call(callOpts(ctx), &out, "gameIndex"); err != nil {
		return 0, fmt.Errorf("ethbind: gameIndex: %w", err)
	}
	return out[0].(*big.Int).Uint64(), nil
}

func (t *Treasury) ParticipationBond(ctx context.Context) (*big.Int, error) {
	var out []interface{}
	if err := t.backend.bound(t.addr, treasuryParsedABI).Call(callOpts(ctx), &out, "participationBond"); err != nil {
		return nil, fmt.Errorf("ethbind: participationBond: %w", err)
	}
	return out[0].(*big.Int), nil
}

func (t *Treasury) PaidBonds(ctx context.Context, addr common.Address) (*big.Int, error) {
	var out []interface{}
	if err := t.backend.bound(t.addr, treasuryParsedABI).Call(callOpts(ctx), &out, "paidBonds", addr); err != nil {
		return nil, fmt.Errorf("ethbind: paidBonds(%s): %w", addr, err)
	}
	return out[0].(*big.Int), nil
}

func (t *Treasury) Proposer(ctx context.Context, addr common.Address) (common.Address, error) {
	var out []interface{}
	if err := t.backend.bound(t.addr, treasuryParsedABI).Call(callOpts(ctx), &out, "proposer", addr); err != nil {
		return common.Address{}, fmt.Errorf("ethbind: proposer(%s): %w", addr, err)
	}
	return out[0].(common.Address), nil
}

func (t *Treasury) EliminationRound(ctx context.Context, addr common.Address) (uint64, error) {
	var out []interface{}
	if err := t.backend.bound(t.addr, treasuryParsedABI).Call(callOpts(ctx), &out, "eliminationRound", addr); err != nil {
		return 0, fmt.Errorf("ethbind: eliminationRound(%s): %w", addr, err)
	}
	return out[0].(*big.Int).Uint64(), nil
}
