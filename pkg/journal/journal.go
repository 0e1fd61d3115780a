// Package journal implements the proof journal & artifact naming (C9): the
// canonical binary encoding of a zkVM receipt's public outputs, and the
// content-addressed proof-artifact file naming rule (§6).
package journal

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/kailua-zk/validator/pkg/oracle"
)

// EncodedLen is the fixed packed length of a ProofJournal: 32+32+32+32+8+32.
const EncodedLen = 32 + 32 + 32 + 32 + 8 + 32

// ProofJournal is the packed public output of a zkVM receipt.
type ProofJournal struct {
	PreconditionOutput   common.Hash
	L1Head               common.Hash
	AgreedL2OutputRoot   common.Hash
	ClaimedL2OutputRoot  common.Hash
	ClaimedL2BlockNumber uint64
	ConfigHash           common.Hash
}

// EncodePacked serializes j as a fixed-width concatenation in the listed
// field order (R3).
func (j ProofJournal) EncodePacked() []byte {
	out := make([]byte, 0, EncodedLen)
	out = append(out, j.PreconditionOutput[:]...)
	out = append(out, j.L1Head[:]...)
	out = append(out, j.AgreedL2OutputRoot[:]...)
	out = append(out, j.ClaimedL2OutputRoot[:]...)
	var bn [8]byte
	binary.BigEndian.PutUint64(bn[:], j.ClaimedL2BlockNumber)
	out = append(out, bn[:]...)
	out = append(out, j.ConfigHash[:]...)
	return out
}

// DecodePacked parses the fixed-width encoding produced by EncodePacked.
func DecodePacked(data []byte) (ProofJournal, error) {
	if len(data) != EncodedLen {
		return ProofJournal{}, fmt.Errorf("journal: expected %d bytes, got %d", EncodedLen, len(data))
	}
	var j ProofJournal
	off := 0
	j.PreconditionOutput = common.BytesToHash(data[off : off+32])
	off += 32
	j.L1Head = common.BytesToHash(data[off : off+32])
	off += 32
	j.AgreedL2OutputRoot = common.BytesToHash(data[off : off+32])
	off += 32
	j.ClaimedL2OutputRoot = common.BytesToHash(data[off : off+32])
	off += 32
	j.ClaimedL2BlockNumber = binary.BigEndian.Uint64(data[off : off+8])
	off += 8
	j.ConfigHash = common.BytesToHash(data[off : off+32])
	return j, nil
}

// ArtifactNameParams is the input to ProofFileName.
type ArtifactNameParams struct {
	FPVMImageID          common.Hash
	PreconditionOutput   common.Hash
	L1Head               common.Hash
	ClaimedL2OutputRoot  common.Hash
	ClaimedL2BlockNumber uint64
	AgreedL2OutputRoot   common.Hash
	ProverVersion        string
	DevMode              bool
}

// ProofFileName computes the content-addressed proof-artifact file name
// (§6, bit-exact): "risc0-{VERSION}-{HEX}.{SUFFIX}" where HEX is the hex
// encoding of keccak256(FPVM_ID || precondition_output || l1_head ||
// claimed_l2_output_root || be64(claimed_l2_block_number) ||
// agreed_l2_output_root), and SUFFIX is "fake" in developer mode or "zkp"
// otherwise.
func ProofFileName(p ArtifactNameParams) string {
	suffix := "zkp"
	if p.DevMode {
		suffix = "fake"
	}
	var bn [8]byte
	binary.BigEndian.PutUint64(bn[:], p.ClaimedL2BlockNumber)

	digest := oracle.Keccak256(
		p.FPVMImageID[:],
		p.PreconditionOutput[:],
		p.L1Head[:],
		p.ClaimedL2OutputRoot[:],
		bn[:],
		p.AgreedL2OutputRoot[:],
	)
	return fmt.Sprintf("risc0-%s-%x.%s", p.ProverVersion, digest, suffix)
}
