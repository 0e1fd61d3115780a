// Package contracts declares the method-level contracts the validator core
// invokes on-chain (§6): the dispute-game factory, a Kailua game/tournament
// instance, the treasury, and the L1/L2 read providers. These are thin
// abigen-style wrappers (go-ethereum's accounts/abi/bind conventions) over
// bound contract instances; the binding generation itself (solc/abigen
// output) is out of scope per spec §1 and is represented here as the
// interfaces the rest of the core programs against.
package contracts

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// GameType identifies a dispute-game factory game implementation.
type GameType uint32

// KailuaGameType is the factory game type registered for Kailua tournament
// games.
const KailuaGameType GameType = 0xCAFE

// Factory is the dispute-game factory contract (read methods only; the
// core never creates games itself).
type Factory interface {
	// GameCount returns the total number of games ever created.
	GameCount(ctx context.Context) (uint64, error)
	// GameAtIndex returns the game's type and proxy address for factory
	// slot i; the creation timestamp is not returned.
	GameAtIndex(ctx context.Context, i uint64) (gameType GameType, addr common.Address, err error)
	// GameImpl returns the registered implementation address for gt.
	GameImpl(ctx context.Context, gt GameType) (common.Address, error)
	// OpenGame binds a Game instance to a proxy address returned by
	// GameAtIndex.
	OpenGame(addr common.Address) Game
}

// Registry is the anchor-state registry contract. Only its dispute-game
// factory address is exposed; the anchor proposal is not read from it.
type Registry interface {
	DisputeGameFactory(ctx context.Context) (common.Address, error)
}

// Game is a single Kailua dispute-game/tournament instance.
type Game interface {
	Address() common.Address
	ParentGame(ctx context.Context) (common.Address, error)
	L1Head(ctx context.Context) (common.Hash, error)
	RootClaim(ctx context.Context) (common.Hash, error)
	L2BlockNumber(ctx context.Context) (uint64, error)
	GameType(ctx context.Context) (GameType, error)
	ImageID(ctx context.Context) (common.Hash, error)
	ConfigHash(ctx context.Context) (common.Hash, error)

	// IOBlobVersionedHash returns the versioned hash of the blob this
	// proposal published alongside its output (index 0: one IO blob per
	// proposal).
	IOBlobVersionedHash(ctx context.Context) (common.Hash, error)

	// ProofStatus reports the on-chain dispute status between child ranks
	// u and v within this tournament; zero means unresolved.
	ProofStatus(ctx context.Context, u, v uint32) (uint8, error)

	// VerifyIntermediateOutput checks an on-chain KZG opening for an
	// intermediate output at pos.
	VerifyIntermediateOutput(ctx context.Context, pos uint64, value common.Hash, commitment, proof []byte) (bool, error)

	// Prove submits a proof for the dispute between child ranks
	// indices[0]=u and indices[1]=v at challenge position indices[2].
	Prove(ctx context.Context, req ProveRequest) (txHash common.Hash, err error)
}

// ProveRequest is the argument bundle for the on-chain prove() method.
//
// Commitments and Proofs carry a variable-length (0, 1, or 2 element) KZG
// opening per side: an opening at the agreed position (ChallengePos-1) is
// present whenever ChallengePos > 0, and an opening at ChallengePos itself
// is present whenever that position isn't the side's final claim. When
// both are present, index 0 is the agreed-position opening and index 1 is
// the claimed-position opening.
type ProveRequest struct {
	U, V          uint32
	ChallengePos  uint64
	Seal          []byte
	AgreedOutput  common.Hash
	SideOutputs   [2]common.Hash // [contender_out, proposal_out]
	ClaimedOutput common.Hash
	Commitments   [2][][]byte // [contender, proposal]
	Proofs        [2][][]byte // [contender, proposal]
}

// Treasury is the on-chain treasury contract mirrored by pkg/treasury.
type Treasury interface {
	Address() common.Address
	GameIndex(ctx context.Context) (uint64, error)
	ParticipationBond(ctx context.Context) (*big.Int, error)
	PaidBonds(ctx context.Context, addr common.Address) (*big.Int, error)
	Proposer(ctx context.Context, addr common.Address) (common.Address, error)
	EliminationRound(ctx context.Context, addr common.Address) (uint64, error)
}

// L2RollupReader reads committed L2 outputs and blocks, abstracting the L2
// execution and rollup-node RPC surface.
type L2RollupReader interface {
	OutputAtBlock(ctx context.Context, number uint64) (common.Hash, error)
	BlockHashByNumber(ctx context.Context, number uint64) (common.Hash, error)
}

// L1Reader abstracts the L1 execution node's block lookups.
type L1Reader interface {
	BlockByHash(ctx context.Context, hash common.Hash) (BlockHeader, error)
	BlockByNumber(ctx context.Context, number uint64) (BlockHeader, error)
}

// BlockHeader is the minimal L1 block metadata the core needs.
type BlockHeader struct {
	Hash       common.Hash
	Number     uint64
	ParentHash common.Hash
	Timestamp  uint64
}
