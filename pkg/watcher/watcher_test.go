package watcher

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/kailua-zk/validator/pkg/blobs"
	"github.com/kailua-zk/validator/pkg/contracts"
	"github.com/kailua-zk/validator/pkg/journal"
	"github.com/kailua-zk/validator/pkg/proposal"
	"github.com/kailua-zk/validator/pkg/receipt"
)

type stubGame struct {
	addr         common.Address
	proofStatus  uint8
	imageID      common.Hash
	configHash   common.Hash
	verifyResult bool
	proveCalled  bool
	lastReq      contracts.ProveRequest
}

func (g *stubGame) Address() common.Address                            { return g.addr }
func (g *stubGame) ParentGame(context.Context) (common.Address, error) { return common.Address{}, nil }
func (g *stubGame) L1Head(context.Context) (common.Hash, error)        { return common.Hash{}, nil }
func (g *stubGame) RootClaim(context.Context) (common.Hash, error)     { return common.Hash{}, nil }
func (g *stubGame) L2BlockNumber(context.Context) (uint64, error)      { return 0, nil }
func (g *stubGame) GameType(context.Context) (contracts.GameType, error) {
	return contracts.KailuaGameType, nil
}
func (g *stubGame) ImageID(context.Context) (common.Hash, error)    { return g.imageID, nil }
func (g *stubGame) ConfigHash(context.Context) (common.Hash, error) { return g.configHash, nil }
func (g *stubGame) IOBlobVersionedHash(context.Context) (common.Hash, error) {
	return common.Hash{}, nil
}
func (g *stubGame) ProofStatus(context.Context, uint32, uint32) (uint8, error) {
	return g.proofStatus, nil
}
func (g *stubGame) VerifyIntermediateOutput(context.Context, uint64, common.Hash, []byte, []byte) (bool, error) {
	return g.verifyResult, nil
}
func (g *stubGame) Prove(_ context.Context, req contracts.ProveRequest) (common.Hash, error) {
	g.proveCalled = true
	g.lastReq = req
	return common.HexToHash("0xabc"), nil
}

func buildBlob(elems []common.Hash) *blobs.Blob {
	var b blobs.Blob
	for i, e := range elems {
		copy(b[i*32:(i+1)*32], e[:])
	}
	return &b
}

func makeTestTree() (parent, contender, p *proposal.Proposal) {
	parentAddr := common.HexToAddress("0xp")
	parent = &proposal.Proposal{Index: 0, GameAddress: parentAddr, OutputBlockNumber: 100, OutputRoot: common.HexToHash("0xa0")}

	contender = &proposal.Proposal{
		Index: 1, GameAddress: common.HexToAddress("0x1"), Parent: 0, HasParent: true,
		OutputRoot: common.HexToHash("0xc1"), OutputBlockNumber: 101,
		L1Head: common.HexToHash("0x10"),
		IOBlob: proposal.IOBlob{VersionedHash: common.HexToHash("0xb1"), Blob: buildBlob(nil)},
	}
	contender.SetParentOutputBlockNumber(100)

	p = &proposal.Proposal{
		Index: 2, GameAddress: common.HexToAddress("0x2"), Parent: 0, HasParent: true,
		OutputRoot: common.HexToHash("0xc2"), OutputBlockNumber: 101,
		L1Head: common.HexToHash("0x11"),
		IOBlob: proposal.IOBlob{VersionedHash: common.HexToHash("0xb2"), Blob: buildBlob(nil)},
	}
	p.SetParentOutputBlockNumber(100)

	parent.Children = []uint64{1, 2}
	idx := uint64(1)
	p.Contender = &idx
	return
}

func TestVerifyOutputAtFinalPosition(t *testing.T) {
	_, _, p := makeTestTree()
	if err := verifyOutputAt(context.Background(), &stubGame{verifyResult: true}, p, p.Len()-1); err != nil {
		t.Fatalf("expected final-position check to pass: %v", err)
	}
}

func TestVerifyOutputAtIntermediateCallsOnChainHelper(t *testing.T) {
	elems := []common.Hash{common.HexToHash("0xaa")}
	prop := &proposal.Proposal{
		IOFieldElements: elems,
		OutputRoot:      common.HexToHash("0xbb"),
		IOBlob:          proposal.IOBlob{Blob: buildBlob(elems)},
	}
	game := &stubGame{verifyResult: true}
	if err := verifyOutputAt(context.Background(), game, prop, 0); err != nil {
		t.Fatalf("expected intermediate check to pass: %v", err)
	}
	game.verifyResult = false
	if err := verifyOutputAt(context.Background(), game, prop, 0); err == nil {
		t.Fatal("expected error when on-chain verification rejects opening")
	}
}

func TestBuildProposalMsgSetsPreconditionOnlyWhenInterior(t *testing.T) {
	parent, contender, p := makeTestTree()

	msgFinal := buildProposalMsg(p.Index, parent, contender, p, 0)
	if msgFinal.Precondition != nil {
		t.Fatal("position 0 of a one-block span has no precondition")
	}

	contender.IOFieldElements = []common.Hash{common.HexToHash("0x01"), common.HexToHash("0x02")}
	contender.OutputBlockNumber = 104
	p.IOFieldElements = []common.Hash{common.HexToHash("0x01"), common.HexToHash("0x03")}
	p.OutputBlockNumber = 104

	pos, err := proposal.DivergencePoint(contender, p)
	if err != nil {
		t.Fatalf("DivergencePoint: %v", err)
	}
	if pos != 1 {
		t.Fatalf("expected divergence at position 1, got %d", pos)
	}
	if !p.HasPreconditionFor(pos) {
		t.Fatal("expected position 1 of a 4-span to be interior")
	}
	msg := buildProposalMsg(p.Index, parent, contender, p, pos)
	if msg.Precondition == nil {
		t.Fatal("expected precondition to be set for an interior position")
	}
	if msg.Precondition.V.BlockHash != p.L1Head {
		t.Fatalf("precondition V block hash = %s, want %s", msg.Precondition.V.BlockHash, p.L1Head)
	}
}

func TestCrossCheckReportsMismatchButProveStillFires(t *testing.T) {
	parent, contender, p := makeTestTree()
	game := &stubGame{addr: parent.GameAddress, proofStatus: 0, imageID: common.HexToHash("0xdead"), verifyResult: true}
	w := &Watcher{DevMode: true, L2: &fakeL2{outputs: map[uint64]common.Hash{101: p.OutputRoot}}}

	j := journal.ProofJournal{
		L1Head:               p.L1Head,
		AgreedL2OutputRoot:   common.HexToHash("0xffff"), // deliberately wrong
		ClaimedL2OutputRoot:  p.OutputRoot,
		ClaimedL2BlockNumber: parent.OutputBlockNumber + 1,
		ConfigHash:           game.configHash,
	}
	rc, err := receipt.Decode(receipt.Encode(j, common.Hash{}, []byte("seal"), true))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if err := w.crossCheck(context.Background(), game, parent, contender, p, &rc); err == nil {
		t.Fatal("expected cross-check to report the deliberately wrong agreed root")
	}

	req, err := w.buildProveRequest(0, 1, 0, contender, p, &rc)
	if err != nil {
		t.Fatalf("buildProveRequest: %v", err)
	}
	if _, err := game.Prove(context.Background(), req); err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if !game.proveCalled {
		t.Fatal("expected Prove to be called even though cross-check mismatched")
	}
}

type fakeL2 struct {
	outputs map[uint64]common.Hash
}

func (f *fakeL2) OutputAtBlock(_ context.Context, n uint64) (common.Hash, error) {
	return f.outputs[n], nil
}
func (f *fakeL2) BlockHashByNumber(context.Context, uint64) (common.Hash, error) {
	return common.Hash{}, nil
}
