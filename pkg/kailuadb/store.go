package kailuadb

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/kailua-zk/validator/pkg/blobs"
	"github.com/kailua-zk/validator/pkg/proposal"
)

// snapshotFile is the append-only on-disk representation's current file
// name within a Store's directory. Persistence is "any serialization
// format... provided round-trip is lossless" (§6); we use go-ethereum's
// rlp package, already a wired dependency, rather than hand-rolling a
// codec.
const snapshotFile = "proposals.rlp"

// Store persists a KailuaDB snapshot to a directory on disk.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir, creating it if necessary.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("kailuadb: create store dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// persistedProposal is the RLP-encodable mirror of proposal.Proposal.
type persistedProposal struct {
	Index             uint64
	GameAddress       common.Address
	Parent            uint64
	HasParent         bool
	Children          []uint64
	Contender         *uint64
	OutputRoot        common.Hash
	OutputBlockNumber uint64
	IOFieldElements   []common.Hash
	L1Head            common.Hash
	IOBlobHash        common.Hash
	IOBlobBytes       blobs.Blob
	ParentOutputBlock uint64
}

// snapshot is the top-level RLP document.
type snapshot struct {
	NextFactoryIndex uint64
	Anchor           uint64
	Proposals        []persistedProposal
}

// Save writes db's full state to disk, overwriting any prior snapshot.
// Persistence is append-only in spirit (every write is a complete,
// self-consistent replacement of the prior file; partial writes never
// leave a torn snapshot because the new file is written to a temp path
// and renamed into place).
func (s *Store) Save(db *KailuaDB) error {
	snap := snapshot{
		NextFactoryIndex: db.nextFactoryIndex,
		Anchor:           db.anchor,
	}
	for _, p := range db.proposals {
		snap.Proposals = append(snap.Proposals, toPersisted(p))
	}

	data, err := rlp.EncodeToBytes(&snap)
	if err != nil {
		return fmt.Errorf("kailuadb: encode snapshot: %w", err)
	}

	path := filepath.Join(s.dir, snapshotFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("kailuadb: write snapshot: %w", err)
	}
	return os.Rename(tmp, path)
}

// Load populates db from the persisted snapshot, if one exists. A missing
// file is not an error: the database keeps only the anchor it was built
// with.
func (s *Store) Load(db *KailuaDB) error {
	path := filepath.Join(s.dir, snapshotFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("kailuadb: read snapshot: %w", err)
	}

	var snap snapshot
	if err := rlp.DecodeBytes(data, &snap); err != nil {
		return fmt.Errorf("kailuadb: decode snapshot: %w", err)
	}

	db.nextFactoryIndex = snap.NextFactoryIndex
	db.anchor = snap.Anchor
	for _, pp := range snap.Proposals {
		p := fromPersisted(pp)
		db.proposals[p.Index] = p
		db.byAddress[p.GameAddress] = p.Index
	}
	return nil
}

func toPersisted(p *proposal.Proposal) persistedProposal {
	pp := persistedProposal{
		Index:             p.Index,
		GameAddress:       p.GameAddress,
		Parent:            p.Parent,
		HasParent:         p.HasParent,
		Children:          append([]uint64(nil), p.Children...),
		Contender:         p.Contender,
		OutputRoot:        p.OutputRoot,
		OutputBlockNumber: p.OutputBlockNumber,
		IOFieldElements:   append([]common.Hash(nil), p.IOFieldElements...),
		L1Head:            p.L1Head,
		IOBlobHash:        p.IOBlob.VersionedHash,
		ParentOutputBlock: p.ParentOutputBlockNumber(),
	}
	if p.IOBlob.Blob != nil {
		pp.IOBlobBytes = *p.IOBlob.Blob
	}
	return pp
}

func fromPersisted(pp persistedProposal) *proposal.Proposal {
	blob := pp.IOBlobBytes
	p := &proposal.Proposal{
		Index:             pp.Index,
		GameAddress:       pp.GameAddress,
		Parent:            pp.Parent,
		HasParent:         pp.HasParent,
		Children:          pp.Children,
		Contender:         pp.Contender,
		OutputRoot:        pp.OutputRoot,
		OutputBlockNumber: pp.OutputBlockNumber,
		IOFieldElements:   pp.IOFieldElements,
		L1Head:            pp.L1Head,
		IOBlob:            proposal.IOBlob{VersionedHash: pp.IOBlobHash, Blob: &blob},
	}
	p.SetParentOutputBlockNumber(pp.ParentOutputBlock)
	return p
}
