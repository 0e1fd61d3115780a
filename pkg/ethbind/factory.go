package ethbind

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/kailua-zk/validator/pkg/contracts"
)

var factoryParsedABI = mustParseABI(factoryABI)
var gameParsedABI = mustParseABI(gameABI)

// Factory binds the dispute-game factory contract.
type Factory struct {
	backend *Backend
	addr    common.Address
}

// NewFactory binds a Factory at addr.
func NewFactory(b *Backend, addr common.Address) *Factory {
	return &Factory{backend: b, addr: addr}
}

func (f *Factory) GameCount(ctx context.Context) (uint64, error) {
	var out []interface{}
	if err := f.backend.bound(f.addr, factoryParsedABI).Call(callOpts(ctx), &out, "gameCount"); err != nil {
		return 0, fmt.Errorf("ethbind: gameCount: %w", err)
	}
	return out[0].(*big.Int).Uint64(), nil
}

func (f *Factory) GameAtIndex(ctx context.Context, i uint64) (contracts.GameType, common.Address, error) {
	var out []interface{}
	if err := f.backend.bound(f.addr, factoryParsedABI).Call(callOpts(ctx), &out, "gameAtIndex", new(big.Int).SetUint64(i)); err != nil {
		return 0, common.Address{}, fmt.Errorf("ethbind: gameAtIndex(%d): %w", i, err)
	}
	return contracts.GameType(out[0].(uint32)), out[2].(common.Address), nil
}

func (f *Factory) GameImpl(ctx context.Context, gt contracts.GameType) (common.Address, error) {
	var out []interface{}
	if err := f.backend.bound(f.addr, factoryParsedABI).Call(callOpts(ctx), &out, "gameImpls", uint32(gt)); err != nil {
		return common.Address{}, fmt.Errorf("ethbind: gameImpls(%d): %w", gt, err)
	}
	return out[0].(common.Address), nil
}

func (f *Factory) OpenGame(addr common.Address) contracts.Game {
	return &Game{backend: f.backend, addr: addr}
}
