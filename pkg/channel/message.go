package channel

import "github.com/ethereum/go-ethereum/common"

// PreconditionBlob is one half of a precondition-validation blob pair
// (§4.6 step e, precondition_hash over both siblings' IO blobs).
type PreconditionBlob struct {
	BlockHash   common.Hash
	BlobKZGHash common.Hash
}

// Precondition carries the two siblings' blob identifiers needed to prove
// consistency of the adversarial IO data, when the challenge position is
// interior (HasPreconditionFor).
type Precondition struct {
	U, V PreconditionBlob
}

// ProposalMsg requests a proof for a contender/proposal match.
type ProposalMsg struct {
	Index                uint64
	Precondition         *Precondition
	L1Head               common.Hash
	AgreedL2HeadHash     common.Hash
	AgreedL2OutputRoot   common.Hash
	ClaimedL2BlockNumber uint64
	ClaimedL2OutputRoot  common.Hash
}

// ProofMsg carries a completed zkVM receipt back to the chain-watcher.
type ProofMsg struct {
	Index   uint64
	Receipt []byte // serialized receipt, deserialized by the caller
}

// Message is the duplex channel's payload: exactly one of Proposal or
// Proof is set.
type Message struct {
	Proposal *ProposalMsg
	Proof    *ProofMsg
}
