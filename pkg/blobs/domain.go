package blobs

import "math/big"

// blsModulus is the order of the BLS12-381 scalar field, matching the
// modulus used by the EIP-4844 evaluation domain.
var blsModulus, _ = new(big.Int).SetString(
	"52435875175126190479447740508185965837690552500527637822603658699938581184513", 10)

// primitiveRootOfUnity is a generator of the 2^32-order multiplicative
// subgroup of the BLS12-381 scalar field, as used to derive the blob
// evaluation domain's roots of unity.
var primitiveRootOfUnity, _ = new(big.Int).SetString(
	"10238227357739495823651030575849232062558860180284477541189508159991286009131", 10)

// domainRootOfUnity is the primitive FieldElementsPerBlob-th root of
// unity: g^(2^32/FieldElementsPerBlob) mod p, since g has order 2^32.
var domainRootOfUnity = func() *big.Int {
	exp := new(big.Int).Lsh(big.NewInt(1), 32)
	exp.Div(exp, big.NewInt(FieldElementsPerBlob))
	return new(big.Int).Exp(primitiveRootOfUnity, exp, blsModulus)
}()

// bitReverse12 reverses the low 12 bits of i (log2(FieldElementsPerBlob)).
func bitReverse12(i uint32) uint32 {
	var r uint32
	for b := 0; b < 12; b++ {
		r = (r << 1) | (i & 1)
		i >>= 1
	}
	return r
}

// EvaluationPoint returns the evaluation-domain field element corresponding
// to blob position pos, in 32-byte big-endian form, as required by
// crypto/kzg4844.ComputeProof. The blob's field elements are stored in
// natural order but committed over a bit-reversal-permuted domain, per
// EIP-4844.
func EvaluationPoint(pos int) [32]byte {
	idx := bitReverse12(uint32(pos))
	z := new(big.Int).Exp(domainRootOfUnity, big.NewInt(int64(idx)), blsModulus)
	var out [32]byte
	zb := z.Bytes()
	copy(out[32-len(zb):], zb)
	return out
}
