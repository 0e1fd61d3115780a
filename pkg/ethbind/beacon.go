package ethbind

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/crypto/kzg4844"

	"github.com/kailua-zk/validator/pkg/blobs"
)

// BeaconBlobSource fetches EIP-4844 blob sidecars from an L1 beacon node's
// REST API by slot, matching the requested versioned hash among the
// block's sidecars.
type BeaconBlobSource struct {
	baseURL    string
	httpClient *http.Client
	// secondsPerSlot and genesisTime convert an L1 block timestamp to a
	// beacon slot, matching the convention every consensus client exposes.
	secondsPerSlot uint64
	genesisTime    uint64
}

// NewBeaconBlobSource returns a Source backed by the beacon node at
// baseURL (e.g. http://localhost:5052).
func NewBeaconBlobSource(baseURL string, secondsPerSlot, genesisTime uint64) *BeaconBlobSource {
	return &BeaconBlobSource{
		baseURL:        baseURL,
		httpClient:     http.DefaultClient,
		secondsPerSlot: secondsPerSlot,
		genesisTime:    genesisTime,
	}
}

func (s *BeaconBlobSource) slotForTimestamp(ts uint64) uint64 {
	if ts < s.genesisTime {
		return 0
	}
	return (ts - s.genesisTime) / s.secondsPerSlot
}

type beaconSidecarResponse struct {
	Data []struct {
		Index         string `json:"index"`
		Blob          string `json:"blob"`
		KZGCommitment string `json:"kzg_commitment"`
	} `json:"data"`
}

// FetchBlob implements blobs.Source.
func (s *BeaconBlobSource) FetchBlob(ctx context.Context, req blobs.FetchRequest) (*blobs.Blob, error) {
	slot := s.slotForTimestamp(req.BlockRef.Timestamp)
	url := fmt.Sprintf("%s/eth/v1/beacon/blob_sidecars/%d", s.baseURL, slot)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ethbind: build blob sidecar request: %w", err)
	}
	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ethbind: fetch blob sidecars: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ethbind: beacon node returned status %d", resp.StatusCode)
	}

	var parsed beaconSidecarResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("ethbind: decode blob sidecar response: %w", err)
	}

	for _, sidecar := range parsed.Data {
		var commitment kzg4844.Commitment
		if err := decodeHexFixed(sidecar.KZGCommitment, commitment[:]); err != nil {
			continue
		}
		if blobs.VersionedHashFromCommitment(commitment) != req.BlobHash.Hash {
			continue
		}
		var blob blobs.Blob
		if err := decodeHexFixed(sidecar.Blob, blob[:]); err != nil {
			return nil, fmt.Errorf("ethbind: decode blob payload: %w", err)
		}
		return &blob, nil
	}
	return nil, fmt.Errorf("ethbind: no sidecar in slot %d matches versioned hash %s", slot, req.BlobHash.Hash)
}

func decodeHexFixed(s string, dst []byte) error {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if len(s) != len(dst)*2 {
		return fmt.Errorf("ethbind: hex length %d, want %d", len(s), len(dst)*2)
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("ethbind: decode hex: %w", err)
	}
	copy(dst, decoded)
	return nil
}
