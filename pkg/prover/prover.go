// Package prover implements the prover-driver task (C8): it awaits proof
// requests over the duplex channel, spawns the external zkVM prover
// subprocess, and returns completed proofs.
package prover

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/kailua-zk/validator/pkg/channel"
	"github.com/kailua-zk/validator/pkg/journal"
	"github.com/kailua-zk/validator/pkg/log"
	"github.com/kailua-zk/validator/pkg/proposal"
)

var logger = log.Default().Module("prover")

// Interval bounds the restart rate between loop iterations (§4.7 step 6).
const Interval = time.Second

// Config bundles the fixed invocation parameters the prover-driver
// threads onto every subprocess spawn, independent of the requested
// proof's own fields.
type Config struct {
	// ProverPath is the external prover binary (e.g. kailua-host).
	ProverPath string
	FPVMImageID common.Hash
	ConfigHash  common.Hash

	L2ChainID      uint64
	L1NodeAddress  string
	L1BeaconAddress string
	L2NodeAddress  string
	OpNodeAddress  string
	DataDir        string
	Native         bool
	Verbosity      int // number of 'v' characters after '-'; 0 disables the flag

	// DevMode mirrors RISC0_DEV_MODE=1, propagated to the subprocess
	// environment; fake receipts get the "fake" artifact suffix (§6).
	DevMode bool

	ProverVersion string
}

// Prover drives the await-spawn-report loop.
type Prover struct {
	Config   Config
	Endpoint *channel.Endpoint[channel.Message]
}

// Run processes proof requests until the endpoint is closed, or until ctx
// is found cancelled after a request has been handled. A Recv waiting for
// the next request does not observe ctx.
func (p *Prover) Run(ctx context.Context) error {
	for {
		msg, err := p.Endpoint.Recv()
		if err != nil {
			return err // ErrClosed: peer shut down, exit cleanly
		}
		if msg.Proposal == nil {
			continue
		}
		if err := p.handleRequest(ctx, *msg.Proposal); err != nil {
			logger.Warn("proof request failed", "index", msg.Proposal.Index, "err", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(Interval):
		}
	}
}

func (p *Prover) handleRequest(ctx context.Context, req channel.ProposalMsg) error {
	agreedHeadHash := req.AgreedL2HeadHash

	fileName := journal.ProofFileName(journal.ArtifactNameParams{
		FPVMImageID:          p.Config.FPVMImageID,
		PreconditionOutput:   preconditionOutput(req.Precondition),
		L1Head:               req.L1Head,
		ClaimedL2OutputRoot:  req.ClaimedL2OutputRoot,
		ClaimedL2BlockNumber: req.ClaimedL2BlockNumber,
		AgreedL2OutputRoot:   req.AgreedL2OutputRoot,
		ProverVersion:        p.Config.ProverVersion,
		DevMode:              p.Config.DevMode,
	})
	artifactPath := fmt.Sprintf("%s/%s", p.Config.DataDir, fileName)

	args := p.buildArgs(req, agreedHeadHash)

	cmd := exec.CommandContext(ctx, p.Config.ProverPath, args...)
	cmd.Env = os.Environ()
	if p.Config.DevMode {
		cmd.Env = append(cmd.Env, "RISC0_DEV_MODE=1")
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logger.Info("spawning prover", "index", req.Index, "artifact", fileName)
	if err := cmd.Run(); err != nil {
		logger.Warn("prover exited non-zero", "index", req.Index, "err", err, "stderr", stderr.String())
		return nil // logged, not propagated: the loop continues (§4.7 step 4)
	}

	data, err := os.ReadFile(artifactPath)
	if err != nil {
		return fmt.Errorf("prover: read artifact %s: %w", artifactPath, err)
	}

	p.Endpoint.Send(channel.Message{Proof: &channel.ProofMsg{Index: req.Index, Receipt: data}})
	return nil
}

func (p *Prover) buildArgs(req channel.ProposalMsg, agreedHeadHash common.Hash) []string {
	args := []string{
		"--l1-head", req.L1Head.Hex(),
		"--agreed-l2-head-hash", agreedHeadHash.Hex(),
		"--agreed-l2-output-root", req.AgreedL2OutputRoot.Hex(),
		"--claimed-l2-output-root", req.ClaimedL2OutputRoot.Hex(),
		"--claimed-l2-block-number", fmt.Sprintf("%d", req.ClaimedL2BlockNumber),
		"--l2-chain-id", fmt.Sprintf("%d", p.Config.L2ChainID),
		"--l1-node-address", p.Config.L1NodeAddress,
		"--l1-beacon-address", p.Config.L1BeaconAddress,
		"--l2-node-address", p.Config.L2NodeAddress,
		"--op-node-address", p.Config.OpNodeAddress,
		"--data-dir", p.Config.DataDir,
	}
	if p.Config.Native {
		args = append(args, "--native")
	}
	if req.Precondition != nil {
		args = append(args,
			"--u-block-hash", req.Precondition.U.BlockHash.Hex(),
			"--u-blob-kzg-hash", req.Precondition.U.BlobKZGHash.Hex(),
			"--v-block-hash", req.Precondition.V.BlockHash.Hex(),
			"--v-blob-kzg-hash", req.Precondition.V.BlobKZGHash.Hex(),
		)
	}
	if p.Config.Verbosity > 0 {
		args = append(args, "-"+strings.Repeat("v", p.Config.Verbosity))
	}
	return args
}

// preconditionOutput mirrors proposal.PreconditionHash so the artifact file
// name is content-addressed on the same precondition the subprocess will
// independently derive and embed in its journal.
func preconditionOutput(pc *channel.Precondition) common.Hash {
	if pc == nil {
		return common.Hash{}
	}
	return proposal.PreconditionHash(pc.U.BlockHash, pc.U.BlobKZGHash, pc.V.BlockHash, pc.V.BlobKZGHash)
}
