package prover

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/kailua-zk/validator/pkg/channel"
)

func TestBuildArgsOmitsPreconditionFlagsWhenNil(t *testing.T) {
	p := &Prover{Config: Config{L2ChainID: 10, Native: true}}
	req := channel.ProposalMsg{
		L1Head:               common.HexToHash("0x1"),
		AgreedL2OutputRoot:   common.HexToHash("0x2"),
		ClaimedL2OutputRoot:  common.HexToHash("0x3"),
		ClaimedL2BlockNumber: 42,
	}
	args := p.buildArgs(req, common.HexToHash("0x4"))
	joined := strings.Join(args, " ")
	if strings.Contains(joined, "--u-block-hash") {
		t.Fatal("did not expect precondition flags without a Precondition")
	}
	if !strings.Contains(joined, "--native") {
		t.Fatal("expected --native flag to be present")
	}
	if strings.Contains(joined, "-v") {
		t.Fatal("did not expect a verbosity flag at Verbosity=0")
	}
}

func TestBuildArgsIncludesPreconditionAndVerbosity(t *testing.T) {
	p := &Prover{Config: Config{Verbosity: 3}}
	req := channel.ProposalMsg{
		Precondition: &channel.Precondition{
			U: channel.PreconditionBlob{BlockHash: common.HexToHash("0xaa"), BlobKZGHash: common.HexToHash("0xbb")},
			V: channel.PreconditionBlob{BlockHash: common.HexToHash("0xcc"), BlobKZGHash: common.HexToHash("0xdd")},
		},
	}
	args := p.buildArgs(req, common.Hash{})
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "--u-block-hash") || !strings.Contains(joined, "--v-blob-kzg-hash") {
		t.Fatal("expected precondition flags to be present")
	}
	if !strings.Contains(joined, "-vvv") {
		t.Fatalf("expected -vvv verbosity flag, got %q", joined)
	}
}

func TestPreconditionOutputMatchesNilAndSet(t *testing.T) {
	if got := preconditionOutput(nil); got != (common.Hash{}) {
		t.Fatalf("expected zero hash for nil precondition, got %s", got)
	}
	pc := &channel.Precondition{
		U: channel.PreconditionBlob{BlockHash: common.HexToHash("0x1"), BlobKZGHash: common.HexToHash("0x2")},
		V: channel.PreconditionBlob{BlockHash: common.HexToHash("0x3"), BlobKZGHash: common.HexToHash("0x4")},
	}
	got := preconditionOutput(pc)
	if got == (common.Hash{}) {
		t.Fatal("expected a non-zero precondition hash")
	}
}
