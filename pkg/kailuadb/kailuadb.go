// Package kailuadb implements the proposal database (C5): factory scan,
// tournament linkage, contender election, and on-disk persistence.
package kailuadb

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/kailua-zk/validator/pkg/blobs"
	"github.com/kailua-zk/validator/pkg/contracts"
	"github.com/kailua-zk/validator/pkg/errs"
	"github.com/kailua-zk/validator/pkg/log"
	"github.com/kailua-zk/validator/pkg/proposal"
	"github.com/kailua-zk/validator/pkg/treasury"
)

var logger = log.Default().Module("kailuadb")

// KailuaDB owns the full reconstructed tournament tree. Per §5, it is
// owned exclusively by the chain-watcher task; no other task touches it.
type KailuaDB struct {
	Treasury *treasury.Treasury

	proposals        map[uint64]*proposal.Proposal
	byAddress        map[common.Address]uint64
	nextFactoryIndex uint64
	anchor           uint64

	store *Store
}

// Init builds a KailuaDB holding only the given anchor proposal, then
// loads any previously persisted state from store.
func Init(ctx context.Context, store *Store, tr *treasury.Treasury, anchorAddr common.Address, anchorProposal *proposal.Proposal) (*KailuaDB, error) {
	db := &KailuaDB{
		Treasury:  tr,
		proposals: map[uint64]*proposal.Proposal{anchorProposal.Index: anchorProposal},
		byAddress: map[common.Address]uint64{anchorAddr: anchorProposal.Index},
		anchor:    anchorProposal.Index,
		store:     store,
	}
	if store != nil {
		if err := store.Load(db); err != nil {
			return nil, fmt.Errorf("kailuadb: load persisted state: %w", err)
		}
	}
	return db, nil
}

// GetLocalProposal returns the proposal at the given local index, if any.
func (db *KailuaDB) GetLocalProposal(index uint64) (*proposal.Proposal, bool) {
	p, ok := db.proposals[index]
	return p, ok
}

// NextFactoryIndex returns the exclusive upper bound of factory slots
// already classified.
func (db *KailuaDB) NextFactoryIndex() uint64 { return db.nextFactoryIndex }

// LoadProposals scans factory slots [NextFactoryIndex, gameCount) and
// returns the local indices of newly linked proposals (§4.4).
func (db *KailuaDB) LoadProposals(ctx context.Context, factory contracts.Factory, l1 contracts.L1Reader, l2 contracts.L2RollupReader, blobSource blobs.Source) ([]uint64, error) {
	gameCount, err := factory.GameCount(ctx)
	if err != nil {
		return nil, errs.AsTransient(fmt.Errorf("kailuadb: gameCount: %w", err))
	}

	var added []uint64
	for slot := db.nextFactoryIndex; slot < gameCount; slot++ {
		gt, addr, err := factory.GameAtIndex(ctx, slot)
		if err != nil {
			return added, errs.AsTransient(fmt.Errorf("kailuadb: gameAtIndex(%d): %w", slot, err))
		}
		if gt != contracts.KailuaGameType {
			db.nextFactoryIndex = slot + 1
			continue
		}

		game := factory.OpenGame(addr)
		parentAddr, err := game.ParentGame(ctx)
		if err != nil {
			return added, errs.AsTransient(fmt.Errorf("kailuadb: parentGame(%s): %w", addr, err))
		}
		parentIndex, ok := db.byAddress[parentAddr]
		if !ok {
			// Parent not yet classified: defer this slot and retry next scan.
			logger.Debug("deferring slot with unresolved parent", "slot", slot, "parent", parentAddr)
			break
		}
		parent := db.proposals[parentIndex]

		p, err := db.buildProposal(ctx, slot, addr, game, parent, l1, l2, blobSource)
		if err != nil {
			if errs.Classify(err) == errs.Transient {
				return added, err
			}
			logger.Warn("skipping malformed proposal slot", "slot", slot, "err", err)
			db.nextFactoryIndex = slot + 1
			continue
		}

		db.proposals[p.Index] = p
		db.byAddress[addr] = p.Index
		parent.Children = append(parent.Children, p.Index)
		db.electContender(parent, p)

		added = append(added, p.Index)
		db.nextFactoryIndex = slot + 1
	}

	if db.store != nil {
		if err := db.store.Save(db); err != nil {
			logger.Warn("failed to persist proposal database", "err", err)
		}
	}
	return added, nil
}

func (db *KailuaDB) buildProposal(ctx context.Context, slot uint64, addr common.Address, game contracts.Game, parent *proposal.Proposal, l1 contracts.L1Reader, l2 contracts.L2RollupReader, blobSource blobs.Source) (*proposal.Proposal, error) {
	l1Head, err := game.L1Head(ctx)
	if err != nil {
		return nil, errs.AsTransient(fmt.Errorf("l1Head: %w", err))
	}
	l1HeadBlock, err := l1.BlockByHash(ctx, l1Head)
	if err != nil {
		return nil, errs.AsTransient(fmt.Errorf("l1 block %s: %w", l1Head, err))
	}
	outputRoot, err := game.RootClaim(ctx)
	if err != nil {
		return nil, errs.AsTransient(fmt.Errorf("rootClaim: %w", err))
	}
	outputBlockNumber, err := game.L2BlockNumber(ctx)
	if err != nil {
		return nil, errs.AsTransient(fmt.Errorf("l2BlockNumber: %w", err))
	}
	if outputBlockNumber <= parent.OutputBlockNumber {
		return nil, errs.AsDataInconsistent(fmt.Errorf("non-increasing output block number at slot %d", slot))
	}

	versionedHash, err := game.IOBlobVersionedHash(ctx)
	if err != nil {
		return nil, errs.AsTransient(fmt.Errorf("ioBlobVersionedHash: %w", err))
	}

	req := blobs.FetchRequest{
		BlockRef: blobs.BlockRef{
			Hash:       l1Head,
			Number:     l1HeadBlock.Number,
			ParentHash: l1HeadBlock.ParentHash,
			Timestamp:  l1HeadBlock.Timestamp,
		},
		BlobHash: blobs.IndexedBlobHash{Index: 0, Hash: versionedHash},
	}
	blob, err := blobs.GetBlob(ctx, blobSource, req, nil)
	if err != nil {
		return nil, errs.AsDataInconsistent(fmt.Errorf("io blob fetch/verify: %w", err))
	}

	n := int(outputBlockNumber - parent.OutputBlockNumber - 1)
	fieldElements := make([]common.Hash, n)
	for i := 0; i < n; i++ {
		blockNum := parent.OutputBlockNumber + 1 + uint64(i)
		liveOutput, err := l2.OutputAtBlock(ctx, blockNum)
		if err != nil {
			return nil, errs.AsTransient(fmt.Errorf("output_at_block(%d): %w", blockNum, err))
		}
		fe, err := blobs.FieldElementAt(blob, i)
		if err != nil {
			return nil, errs.AsDataInconsistent(fmt.Errorf("field element %d: %w", i, err))
		}
		want := proposal.FieldReduce(liveOutput)
		got := common.Hash(fe)
		if got != want {
			return nil, errs.AsDataInconsistent(fmt.Errorf("io field element %d mismatch: chain %s blob %s", i, want, got))
		}
		fieldElements[i] = got
	}

	p := &proposal.Proposal{
		Index:             slot,
		GameAddress:       addr,
		Parent:            parent.Index,
		HasParent:         true,
		OutputRoot:        outputRoot,
		OutputBlockNumber: outputBlockNumber,
		IOFieldElements:   fieldElements,
		L1Head:            l1Head,
		IOBlob:            proposal.IOBlob{VersionedHash: versionedHash, Blob: blob},
	}
	p.SetParentOutputBlockNumber(parent.OutputBlockNumber)
	return p, nil
}

// electContender designates child's contender: the earliest sibling (by
// insertion order) that disagrees with child somewhere in its output
// sequence (§4.4 step 6). A child with no disagreeing predecessor has a
// nil contender.
func (db *KailuaDB) electContender(parent, child *proposal.Proposal) {
	for _, siblingIndex := range parent.Children[:len(parent.Children)-1] {
		sibling := db.proposals[siblingIndex]
		if _, err := proposal.DivergencePoint(sibling, child); err == nil {
			idx := siblingIndex
			child.Contender = &idx
			return
		}
	}
}
