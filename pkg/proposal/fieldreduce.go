package proposal

import "github.com/ethereum/go-ethereum/common"

// FieldReduce encodes a 32-byte output root as a field element of the
// BLS12-381 scalar field by clearing the top three bits of the
// most-significant byte. The scalar field modulus is just under 2^255, so
// masking those bits guarantees the result is a canonical field element
// while preserving the rest of the hash as the "field-reduced encoding"
// invariant (I1a) requires.
func FieldReduce(h common.Hash) common.Hash {
	out := h
	out[0] &= 0x1f
	return out
}
