package journal

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func sampleJournal() ProofJournal {
	return ProofJournal{
		PreconditionOutput:   common.HexToHash("0x1"),
		L1Head:               common.HexToHash("0x2"),
		AgreedL2OutputRoot:   common.HexToHash("0x3"),
		ClaimedL2OutputRoot:  common.HexToHash("0x4"),
		ClaimedL2BlockNumber: 12345,
		ConfigHash:           common.HexToHash("0x5"),
	}
}

// R3: EncodePacked/DecodePacked round-trips, length is exactly 168 bytes.
func TestRoundTripAndLength(t *testing.T) {
	j := sampleJournal()
	enc := j.EncodePacked()
	if len(enc) != EncodedLen || EncodedLen != 168 {
		t.Fatalf("expected 168-byte encoding, got %d (EncodedLen=%d)", len(enc), EncodedLen)
	}
	dec, err := DecodePacked(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dec != j {
		t.Fatalf("round-trip mismatch: got %+v want %+v", dec, j)
	}
}

func TestDecodePackedRejectsWrongLength(t *testing.T) {
	if _, err := DecodePacked(make([]byte, EncodedLen-1)); err == nil {
		t.Fatal("expected error for short input")
	}
	if _, err := DecodePacked(make([]byte, EncodedLen+1)); err == nil {
		t.Fatal("expected error for long input")
	}
}

// R2: distinct inputs should not collide (modulo Keccak collisions) and
// the suffix must flip with dev mode.
func TestProofFileNameVariesWithInputsAndDevMode(t *testing.T) {
	base := ArtifactNameParams{
		FPVMImageID:          common.HexToHash("0xaa"),
		PreconditionOutput:   common.HexToHash("0xbb"),
		L1Head:               common.HexToHash("0xcc"),
		ClaimedL2OutputRoot:  common.HexToHash("0xdd"),
		ClaimedL2BlockNumber: 100,
		AgreedL2OutputRoot:   common.HexToHash("0xee"),
		ProverVersion:        "1.2.3",
	}
	name1 := ProofFileName(base)

	changed := base
	changed.ClaimedL2BlockNumber = 101
	name2 := ProofFileName(changed)
	if name1 == name2 {
		t.Fatal("expected different file names for different block numbers")
	}

	devBase := base
	devBase.DevMode = true
	devName := ProofFileName(devBase)
	if devName == name1 {
		t.Fatal("expected different names for dev vs production mode")
	}
	if got := devName[len(devName)-4:]; got != "fake" {
		t.Fatalf("expected .fake suffix, got %q", got)
	}
	if got := name1[len(name1)-3:]; got != "zkp" {
		t.Fatalf("expected .zkp suffix, got %q", got)
	}
}
