package ethbind

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/kailua-zk/validator/pkg/contracts"
)

// L1Reader binds the L1 execution node over ethclient.
type L1Reader struct {
	client *ethclient.Client
}

// NewL1Reader dials the L1 execution node's JSON-RPC endpoint.
func NewL1Reader(ctx context.Context, url string) (*L1Reader, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("ethbind: dial l1 node: %w", err)
	}
	return &L1Reader{client: client}, nil
}

func (r *L1Reader) BlockByHash(ctx context.Context, hash common.Hash) (contracts.BlockHeader, error) {
	h, err := r.client.HeaderByHash(ctx, hash)
	if err != nil {
		return contracts.BlockHeader{}, fmt.Errorf("ethbind: block by hash: %w", err)
	}
	return headerToBlockHeader(h), nil
}

func (r *L1Reader) BlockByNumber(ctx context.Context, number uint64) (contracts.BlockHeader, error) {
	h, err := r.client.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return contracts.BlockHeader{}, fmt.Errorf("ethbind: block by number: %w", err)
	}
	return headerToBlockHeader(h), nil
}

func headerToBlockHeader(h *types.Header) contracts.BlockHeader {
	return contracts.BlockHeader{
		Hash:       h.Hash(),
		Number:     h.Number.Uint64(),
		ParentHash: h.ParentHash,
		Timestamp:  h.Time,
	}
}
