// Package curve implements the scalar and point arithmetic shared by the
// stealth, pedersen and viewkey packages: secp256k1 via the decred engine,
// ed25519 via filippo.io/edwards25519, domain-separated hashing to scalars,
// and the deterministic secp256k1-to-ed25519 key bridge.
package curve

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

const (
	// SecpPointLen is the length of a compressed secp256k1 point.
	SecpPointLen = 33
	// ScalarLen is the length of a serialized scalar on either curve.
	ScalarLen = 32
)

var (
	// ErrPointNotOnCurve is returned when point bytes do not decode to a
	// valid curve point.
	ErrPointNotOnCurve = errors.New("point not on curve")
	// ErrScalarOutOfRange is returned when scalar bytes are zero or not
	// reduced modulo the group order.
	ErrScalarOutOfRange = errors.New("scalar out of range")
)

// RandomSecpScalar generates a cryptographically secure random secp256k1
// scalar in [1, n).
func RandomSecpScalar() (*secp256k1.ModNScalar, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate scalar: %w", err)
	}
	return &priv.Key, nil
}

// SecpScalarFromBytes parses a 32-byte secp256k1 scalar. Zero and values at
// or above the group order are rejected.
func SecpScalarFromBytes(b []byte) (*secp256k1.ModNScalar, error) {
	if len(b) != ScalarLen {
		return nil, fmt.Errorf("%w: scalar must be %d bytes, got %d", ErrScalarOutOfRange, ScalarLen, len(b))
	}
	s := new(secp256k1.ModNScalar)
	if overflow := s.SetByteSlice(b); overflow {
		return nil, ErrScalarOutOfRange
	}
	if s.IsZero() {
		return nil, ErrScalarOutOfRange
	}
	return s, nil
}

// ParseSecpPoint parses a compressed secp256k1 point.
func ParseSecpPoint(b []byte) (*secp256k1.PublicKey, error) {
	if len(b) != SecpPointLen {
		return nil, fmt.Errorf("%w: point must be %d bytes, got %d", ErrPointNotOnCurve, SecpPointLen, len(b))
	}
	pub, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPointNotOnCurve, err)
	}
	return pub, nil
}

// SecpBaseMult computes k*G.
func SecpBaseMult(k *secp256k1.ModNScalar) *secp256k1.PublicKey {
	var p secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(k, &p)
	p.ToAffine()
	return secp256k1.NewPublicKey(&p.X, &p.Y)
}

// SecpECDH computes the Diffie-Hellman shared point k*P and returns its
// compressed encoding. Both sides of a stealth exchange hash this value.
func SecpECDH(k *secp256k1.ModNScalar, p *secp256k1.PublicKey) []byte {
	var pj, sj secp256k1.JacobianPoint
	p.AsJacobian(&pj)
	secp256k1.ScalarMultNonConst(k, &pj, &sj)
	sj.ToAffine()
	return secp256k1.NewPublicKey(&sj.X, &sj.Y).SerializeCompressed()
}

// SecpAddScalarBase computes P + k*G, the stealth public key construction.
func SecpAddScalarBase(p *secp256k1.PublicKey, k *secp256k1.ModNScalar) *secp256k1.PublicKey {
	var pj, kg, sum secp256k1.JacobianPoint
	p.AsJacobian(&pj)
	secp256k1.ScalarBaseMultNonConst(k, &kg)
	secp256k1.AddNonConst(&pj, &kg, &sum)
	sum.ToAffine()
	return secp256k1.NewPublicKey(&sum.X, &sum.Y)
}

// HashToSecpScalar hashes domain-separated data to a secp256k1 scalar via
// SHA-256, reduced modulo the group order.
func HashToSecpScalar(domain string, data []byte) *secp256k1.ModNScalar {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write(data)
	digest := h.Sum(nil)

	s := new(secp256k1.ModNScalar)
	s.SetByteSlice(digest)
	return s
}
