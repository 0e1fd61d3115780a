package ethbind

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// NewTransactor builds a keyed TransactOpts for submitting prove()
// transactions, bound to the L1 chain's id so signatures can't replay
// across networks.
func NewTransactor(ctx context.Context, client *ethclient.Client, privateKeyHex string) (*bind.TransactOpts, error) {
	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("ethbind: parse private key: %w", err)
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("ethbind: fetch chain id: %w", err)
	}
	opts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("ethbind: build transactor: %w", err)
	}
	return opts, nil
}
