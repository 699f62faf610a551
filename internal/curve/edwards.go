package curve

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"io"

	"filippo.io/edwards25519"
)

// EdPointLen is the length of an encoded ed25519 point.
const EdPointLen = 32

// bridgeDomain versions the secp256k1-to-ed25519 key bridge. Changing it
// changes every derived ed25519 keypair, so it is fixed per scheme ID.
const bridgeDomain = "SIP-ED25519-BRIDGE-V1"

// BridgeSeed maps a secp256k1 scalar to a 32-byte ed25519 seed. The mapping
// is deterministic: the same secp256k1 scalar always yields the same seed,
// and therefore the same ed25519 keypair via Ed25519KeyFromSeed.
func BridgeSeed(secpScalar []byte) [32]byte {
	h := sha256.New()
	h.Write([]byte(bridgeDomain))
	h.Write(secpScalar)
	var seed [32]byte
	copy(seed[:], h.Sum(nil))
	return seed
}

// Ed25519KeyFromSeed expands a 32-byte seed into an ed25519 keypair per
// RFC 8032: the secret scalar is the clamped lower half of SHA-512(seed)
// and the public key is its scalar-base multiple. Public keys produced this
// way are byte compatible with standard ed25519 (and Solana) keys.
func Ed25519KeyFromSeed(seed [32]byte) (*edwards25519.Scalar, *edwards25519.Point, error) {
	h := sha512.Sum512(seed[:])
	s, err := edwards25519.NewScalar().SetBytesWithClamping(h[:32])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to clamp seed scalar: %w", err)
	}
	return s, new(edwards25519.Point).ScalarBaseMult(s), nil
}

// RandomEdScalar generates a uniformly random ed25519 scalar.
func RandomEdScalar() (*edwards25519.Scalar, error) {
	var wide [64]byte
	if _, err := io.ReadFull(rand.Reader, wide[:]); err != nil {
		return nil, fmt.Errorf("failed to generate scalar: %w", err)
	}
	s, err := edwards25519.NewScalar().SetUniformBytes(wide[:])
	if err != nil {
		return nil, fmt.Errorf("failed to reduce scalar: %w", err)
	}
	return s, nil
}

// EdScalarFromBytes parses a canonical 32-byte ed25519 scalar, rejecting
// zero: a zero key's public half is the identity point.
func EdScalarFromBytes(b []byte) (*edwards25519.Scalar, error) {
	if len(b) != ScalarLen {
		return nil, fmt.Errorf("%w: scalar must be %d bytes, got %d", ErrScalarOutOfRange, ScalarLen, len(b))
	}
	s, err := edwards25519.NewScalar().SetCanonicalBytes(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScalarOutOfRange, err)
	}
	if s.Equal(edwards25519.NewScalar()) == 1 {
		return nil, fmt.Errorf("%w: zero scalar", ErrScalarOutOfRange)
	}
	return s, nil
}

// ParseEdPoint parses an encoded ed25519 point.
func ParseEdPoint(b []byte) (*edwards25519.Point, error) {
	if len(b) != EdPointLen {
		return nil, fmt.Errorf("%w: point must be %d bytes, got %d", ErrPointNotOnCurve, EdPointLen, len(b))
	}
	p, err := new(edwards25519.Point).SetBytes(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPointNotOnCurve, err)
	}
	return p, nil
}

// EdBaseMult computes k*B for the ed25519 base point B.
func EdBaseMult(k *edwards25519.Scalar) *edwards25519.Point {
	return new(edwards25519.Point).ScalarBaseMult(k)
}

// EdECDH computes the Diffie-Hellman shared point k*P and returns its
// 32-byte encoding.
func EdECDH(k *edwards25519.Scalar, p *edwards25519.Point) []byte {
	return new(edwards25519.Point).ScalarMult(k, p).Bytes()
}

// EdAddScalarBase computes P + k*B, the stealth public key construction on
// the edwards curve.
func EdAddScalarBase(p *edwards25519.Point, k *edwards25519.Scalar) *edwards25519.Point {
	return new(edwards25519.Point).Add(p, new(edwards25519.Point).ScalarBaseMult(k))
}

// HashToEdScalar hashes domain-separated data to an ed25519 scalar. The
// digest is widened to 64 bytes via SHA-512 so the reduction modulo the
// group order is uniform.
func HashToEdScalar(domain string, data []byte) *edwards25519.Scalar {
	h := sha512.New()
	h.Write([]byte(domain))
	h.Write(data)
	digest := h.Sum(nil)

	// SetUniformBytes only fails on wrong input length; digest is 64 bytes.
	s, err := edwards25519.NewScalar().SetUniformBytes(digest)
	if err != nil {
		panic(fmt.Sprintf("sha512 digest rejected: %v", err))
	}
	return s
}
