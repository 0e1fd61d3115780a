package ethbind

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/kailua-zk/validator/pkg/contracts"
)

// Game binds a single Kailua tournament instance.
type Game struct {
	backend *Backend
	addr    common.Address
}

// NewGame binds a Game at addr.
func NewGame(b *Backend, addr common.Address) *Game {
	return &Game{backend: b, addr: addr}
}

func (g *Game) Address() common.Address { return g.addr }

func (g *Game) call1Hash(ctx context.Context, method string) (common.Hash, error) {
	var out []interface{}
	if err := g.backend.bound(g.addr, gameParsedABI).Call(callOpts(ctx), &out, method); err != nil {
		return common.Hash{}, fmt.Errorf("ethbind: %s: %w", method, err)
	}
	return out[0].([32]byte), nil
}

func (g *Game) ParentGame(ctx context.Context) (common.Address, error) {
	var out []interface{}
	if err := g.backend.bound(g.addr, gameParsedABI).Call(callOpts(ctx), &out, "parentGame"); err != nil {
		return common.Address{}, fmt.Errorf("ethbind: parentGame: %w", err)
	}
	return out[0].(common.Address), nil
}

func (g *Game) L1Head(ctx context.Context) (common.Hash, error)    { return g.call1Hash(ctx, "l1Head") }
func (g *Game) RootClaim(ctx context.Context) (common.Hash, error) { return g.call1Hash(ctx, "rootClaim") }
func (g *Game) ImageID(ctx context.Context) (common.Hash, error)   { return g.call1Hash(ctx, "imageId") }
func (g *Game) ConfigHash(ctx context.Context) (common.Hash, error) {
	return g.call1Hash(ctx, "configHash")
}
func (g *Game) IOBlobVersionedHash(ctx context.Context) (common.Hash, error) {
	return g.call1Hash(ctx, "ioBlobVersionedHash")
}

func (g *Game) L2BlockNumber(ctx context.Context) (uint64, error) {
	var out []interface{}
	if err := g.backend.bound(g.addr, gameParsedABI).Call(callOpts(ctx), &out, "l2BlockNumber"); err != nil {
		return 0, fmt.Errorf("ethbind: l2BlockNumber: %w", err)
	}
	return out[0].(*big.Int).Uint64(), nil
}

func (g *Game) GameType(ctx context.Context) (contracts.GameType, error) {
	var out []interface{}
	if err := g.backend.bound(g.addr, gameParsedABI).Call(callOpts(ctx), &out, "gameType"); err != nil {
		return 0, fmt.Errorf("ethbind: gameType: %w", err)
	}
	return contracts.GameType(out[0].(uint32)), nil
}

func (g *Game) ProofStatus(ctx context.Context, u, v uint32) (uint8, error) {
	var out []interface{}
	if err := g.backend.bound(g.addr, gameParsedABI).Call(callOpts(ctx), &out, "proofStatus", u, v); err != nil {
		return 0, fmt.Errorf("ethbind: proofStatus(%d,%d): %w", u, v, err)
	}
	return out[0].(uint8), nil
}

func (g *Game) VerifyIntermediateOutput(ctx context.Context, pos uint64, value common.Hash, commitment, proof []byte) (bool, error) {
	var out []interface{}
	err := g.backend.bound(g.addr, gameParsedABI).Call(callOpts(ctx), &out, "verifyIntermediateOutput",
		new(big.Int).SetUint64(pos), value, commitment, proof)
	if err != nil {
		return false, fmt.Errorf("ethbind: verifyIntermediateOutput(%d): %w", pos, err)
	}
	return out[0].(bool), nil
}

func (g *Game) Prove(ctx context.Context, req contracts.ProveRequest) (common.Hash, error) {
	indices := [3]uint32{req.U, req.V, uint32(req.ChallengePos)}
	sideOutputs := [2][32]byte{req.SideOutputs[0], req.SideOutputs[1]}

	tx, err := g.backend.bound(g.addr, gameParsedABI).Transact(g.backend.opts, "prove",
		indices, req.Seal, [32]byte(req.AgreedOutput), sideOutputs, [32]byte(req.ClaimedOutput),
		req.Commitments, req.Proofs)
	if err != nil {
		return common.Hash{}, fmt.Errorf("ethbind: prove: %w", err)
	}
	return tx.Hash(), nil
}
