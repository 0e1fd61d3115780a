package proposal

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/kailua-zk/validator/pkg/oracle"
)

// PreconditionHash binds the two siblings' published IO blobs together
// (§4.6 step e): keccak256 over each side's L1 block hash and blob
// versioned hash, contender first. This is what proof_journal.precondition_output
// must equal whenever has_precondition_for(challenge_position) holds.
func PreconditionHash(contenderL1Head, contenderBlobHash, proposalL1Head, proposalBlobHash common.Hash) common.Hash {
	return common.Hash(oracle.Keccak256(
		contenderL1Head[:],
		contenderBlobHash[:],
		proposalL1Head[:],
		proposalBlobHash[:],
	))
}
