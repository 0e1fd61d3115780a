// Package oracle implements the host/guest preimage oracle protocol (C1,
// C10): a caching, validated request/response channel that lets proof
// computation fetch preimages (keccak, sha256, KZG blob) and emit hints to
// the host, with at-most-once effects and content-binding verification.
package oracle

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// KeyType is the one-byte tag identifying how a PreimageKey's content hash
// was derived.
type KeyType byte

const (
	// KeyTypeInvalid is the zero value and never valid on the wire.
	KeyTypeInvalid KeyType = iota
	// KeyTypeLocal addresses local, bootstrapped key-value pairs.
	KeyTypeLocal
	// KeyTypeKeccak256 binds the value to keccak256(value).
	KeyTypeKeccak256
	// KeyTypeGlobalGeneric is opaque, without a content-binding check.
	KeyTypeGlobalGeneric
	// KeyTypeSha256 binds the value to sha256(value).
	KeyTypeSha256
	// KeyTypeBlob addresses an EIP-4844 blob; binding is verified by the
	// blob layer, not here.
	KeyTypeBlob
)

// KeySize is the length in bytes of an encoded PreimageKey.
const KeySize = 32

// ErrInvalidPreimage is returned by Validate when a fetched value does not
// bind to its key's content hash.
var ErrInvalidPreimage = errors.New("oracle: invalid preimage for key")

// Key is a 32-byte preimage key: one byte key-type tag followed by a
// 31-byte content hash.
type Key [KeySize]byte

// NewKey builds a Key from a 32-byte digest and a key type, truncating the
// digest's leading byte in favor of the type tag (the digest's first byte
// is dropped, matching the 31-byte content-hash convention).
func NewKey(digest [32]byte, kt KeyType) Key {
	var k Key
	k[0] = byte(kt)
	copy(k[1:], digest[1:])
	return k
}

// Type returns the key-type tag.
func (k Key) Type() KeyType { return KeyType(k[0]) }

// String renders the key as 0x-prefixed hex.
func (k Key) String() string { return fmt.Sprintf("0x%x", [KeySize]byte(k)) }

// Validate checks that value binds to key per its key type. Blob keys and
// any other opaque key types are accepted without a content-binding check
// here: Blob validation happens in the blob/KZG witness layer, per the
// oracle client's cooperating-layer split.
func Validate(key Key, value []byte) error {
	switch key.Type() {
	case KeyTypeKeccak256:
		h := Keccak256(value)
		if !matches(key, h) {
			return fmt.Errorf("%w: keccak256 mismatch for %s", ErrInvalidPreimage, key)
		}
	case KeyTypeSha256:
		h := Sha256(value)
		if !matches(key, h) {
			return fmt.Errorf("%w: sha256 mismatch for %s", ErrInvalidPreimage, key)
		}
	case KeyTypeBlob:
		return nil
	default:
		return nil
	}
	return nil
}

func matches(key Key, digest [32]byte) bool {
	var want Key
	want[0] = byte(key.Type())
	copy(want[1:], digest[1:])
	return want == key
}

// Keccak256 returns the Keccak-256 digest of data.
func Keccak256(data ...[]byte) [32]byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	var out [32]byte
	copy(out[:], d.Sum(nil))
	return out
}

// Sha256 returns the SHA-256 digest of data.
func Sha256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// beUint64 returns n as 8 big-endian bytes, for assembling keys from
// block numbers/indices. Nothing in the package calls it.
func beUint64(n uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], n)
	return b[:]
}
