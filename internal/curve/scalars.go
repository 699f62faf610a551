package curve

import (
	"filippo.io/edwards25519"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// SecpAddScalars computes a + b modulo the secp256k1 group order.
func SecpAddScalars(a, b *secp256k1.ModNScalar) *secp256k1.ModNScalar {
	return new(secp256k1.ModNScalar).Add2(a, b)
}

// EdAddScalars computes a + b modulo the ed25519 group order.
func EdAddScalars(a, b *edwards25519.Scalar) *edwards25519.Scalar {
	return edwards25519.NewScalar().Add(a, b)
}
