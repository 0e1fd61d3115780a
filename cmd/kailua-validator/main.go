// Command kailua-validator runs the two cooperating validator-core tasks
// (chain-watcher and prover-driver) against a Kailua dispute-game
// deployment.
//
// Usage:
//
//	kailua-validator [flags]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/sync/errgroup"

	"github.com/kailua-zk/validator/pkg/channel"
	"github.com/kailua-zk/validator/pkg/ethbind"
	"github.com/kailua-zk/validator/pkg/kailuadb"
	"github.com/kailua-zk/validator/pkg/log"
	"github.com/kailua-zk/validator/pkg/proposal"
	"github.com/kailua-zk/validator/pkg/prover"
	"github.com/kailua-zk/validator/pkg/treasury"
	"github.com/kailua-zk/validator/pkg/watcher"
)

var logger = log.Default().Module("main")

// Config bundles every CLI-settable parameter (§6).
type Config struct {
	DataDir string

	FactoryAddress  string
	TreasuryAddress string

	AnchorIndex       uint64
	AnchorOutputRoot  string
	AnchorBlockNumber uint64

	L1NodeAddress   string
	L1BeaconAddress string
	L2NodeAddress   string
	OpNodeAddress   string

	SecondsPerSlot uint64
	GenesisTime    uint64

	ProverPath    string
	ProverVersion string
	FPVMImageID   string
	ConfigHash    string
	L2ChainID     uint64
	Native        bool
	Verbosity     int

	ChannelCapacity uint64
	PrivateKeyHex   string
}

func defaultConfig() Config {
	return Config{
		DataDir:         "./kailua-data",
		SecondsPerSlot:  12,
		ProverPath:      "kailua-host",
		ProverVersion:   "v1",
		L2ChainID:       10,
		ChannelCapacity: 4096,
	}
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, exit, code := parseFlags(args)
	if exit {
		return code
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := start(ctx, cfg); err != nil {
		logger.Error("exiting", "err", err)
		return 1
	}
	return 0
}

func parseFlags(args []string) (Config, bool, int) {
	cfg := defaultConfig()
	fs := newFlagSet(&cfg)
	showVersion := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cfg, true, 2
	}
	if *showVersion {
		fmt.Println("kailua-validator dev")
		return cfg, true, 0
	}
	return cfg, false, 0
}

func newFlagSet(cfg *Config) *flagSet {
	fs := newCustomFlagSet("kailua-validator")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "local state directory")
	fs.StringVar(&cfg.FactoryAddress, "factory-address", cfg.FactoryAddress, "dispute game factory address")
	fs.StringVar(&cfg.TreasuryAddress, "treasury-address", cfg.TreasuryAddress, "treasury contract address")
	fs.Uint64Var(&cfg.AnchorIndex, "anchor-index", cfg.AnchorIndex, "factory index of the anchor proposal")
	fs.StringVar(&cfg.AnchorOutputRoot, "anchor-output-root", cfg.AnchorOutputRoot, "anchor proposal's output root")
	fs.Uint64Var(&cfg.AnchorBlockNumber, "anchor-block-number", cfg.AnchorBlockNumber, "anchor proposal's L2 block number")
	fs.StringVar(&cfg.L1NodeAddress, "l1-node-address", cfg.L1NodeAddress, "L1 execution node RPC endpoint")
	fs.StringVar(&cfg.L1BeaconAddress, "l1-beacon-address", cfg.L1BeaconAddress, "L1 beacon node REST endpoint")
	fs.StringVar(&cfg.L2NodeAddress, "l2-node-address", cfg.L2NodeAddress, "L2 execution node RPC endpoint")
	fs.StringVar(&cfg.OpNodeAddress, "op-node-address", cfg.OpNodeAddress, "rollup node RPC endpoint")
	fs.Uint64Var(&cfg.SecondsPerSlot, "seconds-per-slot", cfg.SecondsPerSlot, "L1 beacon chain slot duration")
	fs.Uint64Var(&cfg.GenesisTime, "genesis-time", cfg.GenesisTime, "L1 beacon chain genesis timestamp")
	fs.StringVar(&cfg.ProverPath, "prover-path", cfg.ProverPath, "external prover subprocess path")
	fs.StringVar(&cfg.ProverVersion, "prover-version", cfg.ProverVersion, "prover version tag for artifact naming")
	fs.StringVar(&cfg.FPVMImageID, "fpvm-image-id", cfg.FPVMImageID, "expected zkVM guest image id")
	fs.StringVar(&cfg.ConfigHash, "config-hash", cfg.ConfigHash, "expected rollup config hash")
	fs.Uint64Var(&cfg.L2ChainID, "l2-chain-id", cfg.L2ChainID, "L2 chain id")
	fs.BoolVar(&cfg.Native, "native", cfg.Native, "run the prover in native (non-zkVM) mode")
	fs.IntVar(&cfg.Verbosity, "verbosity", cfg.Verbosity, "prover subprocess verbosity (0 disables -v flags)")
	fs.Uint64Var(&cfg.ChannelCapacity, "channel-capacity", cfg.ChannelCapacity, "duplex channel bound (§4.5)")
	fs.StringVar(&cfg.PrivateKeyHex, "private-key", cfg.PrivateKeyHex, "hex-encoded key used to sign prove() submissions")
	return fs
}

func start(ctx context.Context, cfg Config) error {
	devMode := os.Getenv("RISC0_DEV_MODE") == "1"

	store, err := kailuadb.NewStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	l1, err := ethbind.NewL1Reader(ctx, cfg.L1NodeAddress)
	if err != nil {
		return fmt.Errorf("dial l1 node: %w", err)
	}
	l2, err := ethbind.NewRollupReader(ctx, cfg.L2NodeAddress)
	if err != nil {
		return fmt.Errorf("dial l2 node: %w", err)
	}
	l1Client, err := ethclient.DialContext(ctx, cfg.L1NodeAddress)
	if err != nil {
		return fmt.Errorf("dial l1 node for contract calls: %w", err)
	}
	var opts *bind.TransactOpts
	if cfg.PrivateKeyHex != "" {
		opts, err = ethbind.NewTransactor(ctx, l1Client, cfg.PrivateKeyHex)
		if err != nil {
			return fmt.Errorf("build transactor: %w", err)
		}
	}
	backend := ethbind.NewBackend(l1Client, opts)
	factory := ethbind.NewFactory(backend, common.HexToAddress(cfg.FactoryAddress))
	treasuryContract := ethbind.NewTreasury(backend, common.HexToAddress(cfg.TreasuryAddress))
	blobSource := ethbind.NewBeaconBlobSource(cfg.L1BeaconAddress, cfg.SecondsPerSlot, cfg.GenesisTime)

	tr, err := treasury.Init(ctx, treasuryContract)
	if err != nil {
		return fmt.Errorf("init treasury: %w", err)
	}

	anchor := &proposal.Proposal{
		Index:             cfg.AnchorIndex,
		OutputRoot:        common.HexToHash(cfg.AnchorOutputRoot),
		OutputBlockNumber: cfg.AnchorBlockNumber,
	}
	db, err := kailuadb.Init(ctx, store, tr, common.Address{}, anchor)
	if err != nil {
		return fmt.Errorf("init proposal database: %w", err)
	}

	a, b := channel.NewPair[channel.Message](int(cfg.ChannelCapacity))

	w := &watcher.Watcher{
		DB:         db,
		Factory:    factory,
		L1:         l1,
		L2:         l2,
		BlobSource: blobSource,
		Endpoint:   a,
		DevMode:    devMode,
	}
	p := &prover.Prover{
		Config: prover.Config{
			ProverPath:      cfg.ProverPath,
			FPVMImageID:     common.HexToHash(cfg.FPVMImageID),
			ConfigHash:      common.HexToHash(cfg.ConfigHash),
			L2ChainID:       cfg.L2ChainID,
			L1NodeAddress:   cfg.L1NodeAddress,
			L1BeaconAddress: cfg.L1BeaconAddress,
			L2NodeAddress:   cfg.L2NodeAddress,
			OpNodeAddress:   cfg.OpNodeAddress,
			DataDir:         cfg.DataDir,
			Native:          cfg.Native,
			Verbosity:       cfg.Verbosity,
			DevMode:         devMode,
			ProverVersion:   cfg.ProverVersion,
		},
		Endpoint: b,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(gctx) })
	g.Go(func() error { return p.Run(gctx) })
	return g.Wait()
}
