// Package ethbind provides thin go-ethereum accounts/abi/bind-backed
// implementations of the pkg/contracts interfaces (§6: "on-chain
// contracts"). The bindings are hand-assembled from minimal ABI
// fragments rather than abigen-generated, since generating bindings from
// Solidity sources is out of scope (§1); the wiring pattern (bind.BoundContract
// over an ethclient.Client) is the one abigen itself produces.
package ethbind

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// factoryABI covers the dispute-game factory's read surface used by §6.
const factoryABI = `[
	{"name":"gameCount","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
	{"name":"gameAtIndex","type":"function","stateMutability":"view","inputs":[{"type":"uint256"}],"outputs":[{"type":"uint32"},{"type":"uint64"},{"type":"address"}]},
	{"name":"gameImpls","type":"function","stateMutability":"view","inputs":[{"type":"uint32"}],"outputs":[{"type":"address"}]}
]`

// gameABI covers a single Kailua tournament instance.
const gameABI = `[
	{"name":"parentGame","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"address"}]},
	{"name":"l1Head","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"bytes32"}]},
	{"name":"rootClaim","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"bytes32"}]},
	{"name":"l2BlockNumber","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
	{"name":"gameType","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"uint32"}]},
	{"name":"imageId","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"bytes32"}]},
	{"name":"configHash","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"bytes32"}]},
	{"name":"ioBlobVersionedHash","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"bytes32"}]},
	{"name":"proofStatus","type":"function","stateMutability":"view","inputs":[{"type":"uint32"},{"type":"uint32"}],"outputs":[{"type":"uint8"}]},
	{"name":"verifyIntermediateOutput","type":"function","stateMutability":"view","inputs":[{"type":"uint256"},{"type":"bytes32"},{"type":"bytes"},{"type":"bytes"}],"outputs":[{"type":"bool"}]},
	{"name":"prove","type":"function","stateMutability":"nonpayable","inputs":[{"type":"uint32[3]"},{"type":"bytes"},{"type":"bytes32"},{"type":"bytes32[2]"},{"type":"bytes32"},{"type":"bytes[][2]"},{"type":"bytes[][2]"}],"outputs":[]}
]`

// treasuryABI covers the treasury contract's read surface.
const treasuryABI = `[
	{"name":"gameIndex","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
	{"name":"participationBond","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
	{"name":"paidBonds","type":"function","stateMutability":"view","inputs":[{"type":"address"}],"outputs":[{"type":"uint256"}]},
	{"name":"proposer","type":"function","stateMutability":"view","inputs":[{"type":"address"}],"outputs":[{"type":"address"}]},
	{"name":"eliminationRound","type":"function","stateMutability":"view","inputs":[{"type":"address"}],"outputs":[{"type":"uint256"}]}
]`

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic("ethbind: invalid embedded abi: " + err.Error())
	}
	return parsed
}

// Backend adapts an ethclient.Client to bind.ContractBackend, plus the
// TransactOpts signer used for prove() submissions.
type Backend struct {
	client *ethclient.Client
	opts   *bind.TransactOpts
}

// NewBackend wraps an RPC-connected client and the signer used for prove()
// submissions. opts may be nil for a read-only backend.
func NewBackend(client *ethclient.Client, opts *bind.TransactOpts) *Backend {
	return &Backend{client: client, opts: opts}
}

func (b *Backend) bound(addr common.Address, parsed abi.ABI) *bind.BoundContract {
	return bind.NewBoundContract(addr, parsed, b.client, b.client, b.client)
}

func callOpts(ctx context.Context) *bind.CallOpts {
	return &bind.CallOpts{Context: ctx}
}
