package ethbind

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
)

// RollupReader binds the L2 rollup endpoint's JSON-RPC methods
// output_at_block and get_block_by_number; block lookup by hash is not
// bound.
type RollupReader struct {
	client *rpc.Client
}

// NewRollupReader dials the rollup node's JSON-RPC endpoint.
func NewRollupReader(ctx context.Context, url string) (*RollupReader, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("ethbind: dial rollup node: %w", err)
	}
	return &RollupReader{client: client}, nil
}

func (r *RollupReader) OutputAtBlock(ctx context.Context, number uint64) (common.Hash, error) {
	var out common.Hash
	if err := r.client.CallContext(ctx, &out, "optimism_outputAtBlock", number); err != nil {
		return common.Hash{}, fmt.Errorf("ethbind: output_at_block(%d): %w", number, err)
	}
	return out, nil
}

type rollupBlockHeader struct {
	Hash common.Hash `json:"hash"`
}

func (r *RollupReader) BlockHashByNumber(ctx context.Context, number uint64) (common.Hash, error) {
	var out rollupBlockHeader
	if err := r.client.CallContext(ctx, &out, "eth_getBlockByNumber", rpcBlockNumber(number), false); err != nil {
		return common.Hash{}, fmt.Errorf("ethbind: get_block_by_number(%d): %w", number, err)
	}
	return out.Hash, nil
}

func rpcBlockNumber(n uint64) string {
	return fmt.Sprintf("0x%x", n)
}
