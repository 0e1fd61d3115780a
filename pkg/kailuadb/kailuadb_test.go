package kailuadb

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/kailua-zk/validator/pkg/blobs"
	"github.com/kailua-zk/validator/pkg/contracts"
	"github.com/kailua-zk/validator/pkg/proposal"
	"github.com/kailua-zk/validator/pkg/treasury"
)

// ---- fakes -----------------------------------------------------------

type fakeGame struct {
	addr          common.Address
	parent        common.Address
	l1Head        common.Hash
	rootClaim     common.Hash
	blockNumber   uint64
	gameType      contracts.GameType
	blobHash      common.Hash
}

func (g *fakeGame) Address() common.Address                    { return g.addr }
func (g *fakeGame) ParentGame(context.Context) (common.Address, error) { return g.parent, nil }
func (g *fakeGame) L1Head(context.Context) (common.Hash, error)        { return g.l1Head, nil }
func (g *fakeGame) RootClaim(context.Context) (common.Hash, error)     { return g.rootClaim, nil }
func (g *fakeGame) L2BlockNumber(context.Context) (uint64, error)      { return g.blockNumber, nil }
func (g *fakeGame) GameType(context.Context) (contracts.GameType, error) {
	return g.gameType, nil
}
func (g *fakeGame) ImageID(context.Context) (common.Hash, error)   { return common.Hash{}, nil }
func (g *fakeGame) ConfigHash(context.Context) (common.Hash, error) { return common.Hash{}, nil }
func (g *fakeGame) IOBlobVersionedHash(context.Context) (common.Hash, error) {
	return g.blobHash, nil
}
func (g *fakeGame) ProofStatus(context.Context, uint32, uint32) (uint8, error) { return 0, nil }
func (g *fakeGame) VerifyIntermediateOutput(context.Context, uint64, common.Hash, []byte, []byte) (bool, error) {
	return true, nil
}
func (g *fakeGame) Prove(context.Context, contracts.ProveRequest) (common.Hash, error) {
	return common.Hash{}, nil
}

type fakeFactory struct {
	games []*fakeGame
	byAddr map[common.Address]*fakeGame
}

func newFakeFactory(games []*fakeGame) *fakeFactory {
	f := &fakeFactory{games: games, byAddr: map[common.Address]*fakeGame{}}
	for _, g := range games {
		f.byAddr[g.addr] = g
	}
	return f
}

func (f *fakeFactory) GameCount(context.Context) (uint64, error) { return uint64(len(f.games)), nil }
func (f *fakeFactory) GameAtIndex(_ context.Context, i uint64) (contracts.GameType, common.Address, error) {
	g := f.games[i]
	return g.gameType, g.addr, nil
}
func (f *fakeFactory) GameImpl(context.Context, contracts.GameType) (common.Address, error) {
	return common.Address{}, nil
}
func (f *fakeFactory) OpenGame(addr common.Address) contracts.Game { return f.byAddr[addr] }

type fakeL1Reader struct {
	blocks map[common.Hash]contracts.BlockHeader
}

func (r *fakeL1Reader) BlockByHash(_ context.Context, hash common.Hash) (contracts.BlockHeader, error) {
	return r.blocks[hash], nil
}
func (r *fakeL1Reader) BlockByNumber(context.Context, uint64) (contracts.BlockHeader, error) {
	return contracts.BlockHeader{}, nil
}

type fakeL2Reader struct {
	outputs map[uint64]common.Hash
}

func (r *fakeL2Reader) OutputAtBlock(_ context.Context, n uint64) (common.Hash, error) {
	return r.outputs[n], nil
}
func (r *fakeL2Reader) BlockHashByNumber(context.Context, uint64) (common.Hash, error) {
	return common.Hash{}, nil
}

type fakeBlobSource struct {
	blobs map[common.Hash]*blobs.Blob
}

func (s *fakeBlobSource) FetchBlob(_ context.Context, req blobs.FetchRequest) (*blobs.Blob, error) {
	return s.blobs[req.BlobHash.Hash], nil
}

// buildBlobWithElements returns a blob whose natural-order field elements
// at positions 0..len(elems) equal elems, and its versioned hash.
func buildBlobWithElements(elems []common.Hash) (*blobs.Blob, common.Hash) {
	var b blobs.Blob
	for i, e := range elems {
		copy(b[i*32:(i+1)*32], e[:])
	}
	c, err := blobs.CommitmentOf(&b)
	if err != nil {
		panic(err)
	}
	return &b, blobs.VersionedHashFromCommitment(c)
}

func TestLoadProposalsLinksChildAndElectsContender(t *testing.T) {
	ctx := context.Background()

	anchor := &proposal.Proposal{Index: 0, OutputBlockNumber: 100, OutputRoot: common.HexToHash("0xa0")}
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	tr := &treasury.Treasury{}
	db, err := Init(ctx, store, tr, common.Address{}, anchor)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	out101 := common.HexToHash("0xbeef01")
	want := proposal.FieldReduce(out101)
	blob, blobHash := buildBlobWithElements([]common.Hash{want})

	gameAddr := common.HexToAddress("0x1")
	game := &fakeGame{
		addr:        gameAddr,
		parent:      common.Address{}, // matches anchor's zero address
		l1Head:      common.HexToHash("0x10"),
		rootClaim:   common.HexToHash("0xc1"),
		blockNumber: 102,
		gameType:    contracts.KailuaGameType,
		blobHash:    blobHash,
	}
	factory := newFakeFactory([]*fakeGame{game})
	l1 := &fakeL1Reader{blocks: map[common.Hash]contracts.BlockHeader{
		game.l1Head: {Hash: game.l1Head, Number: 900, Timestamp: 123456},
	}}
	l2 := &fakeL2Reader{outputs: map[uint64]common.Hash{101: out101}}
	bs := &fakeBlobSource{blobs: map[common.Hash]*blobs.Blob{blobHash: blob}}

	added, err := db.LoadProposals(ctx, factory, l1, l2, bs)
	if err != nil {
		t.Fatalf("LoadProposals: %v", err)
	}
	if len(added) != 1 {
		t.Fatalf("expected 1 new proposal, got %d", len(added))
	}

	p, ok := db.GetLocalProposal(added[0])
	if !ok {
		t.Fatal("expected proposal to be present")
	}
	if p.Parent != anchor.Index {
		t.Fatalf("expected parent %d, got %d", anchor.Index, p.Parent)
	}
	if len(anchor.Children) != 1 || anchor.Children[0] != p.Index {
		t.Fatalf("expected anchor to link child %d, got %v", p.Index, anchor.Children)
	}
	if p.Contender != nil {
		t.Fatalf("first child should have no contender, got %v", *p.Contender)
	}
	if db.NextFactoryIndex() != 1 {
		t.Fatalf("expected next_factory_index 1, got %d", db.NextFactoryIndex())
	}
}
