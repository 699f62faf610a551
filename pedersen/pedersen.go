// Package pedersen implements Pedersen commitments on secp256k1: hiding,
// binding commitments to amounts that support homomorphic addition, plus
// the balance-verification hook into an external range-proof system.
package pedersen

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// hDomain seeds the NUMS derivation of the second generator H. The string
// is published so anyone can verify H has no known discrete log relative
// to G.
const hDomain = "SIP-PEDERSEN-GENERATOR-H-v1"

// CommitmentLen is the length of a serialized commitment point.
const CommitmentLen = 33

var (
	// ErrInvalidCommitment is returned when commitment bytes do not decode
	// to a curve point.
	ErrInvalidCommitment = errors.New("invalid commitment")
	// ErrInvalidBlinding is returned when blinding bytes are not a valid
	// nonzero scalar.
	ErrInvalidBlinding = errors.New("invalid blinding factor")
)

// generatorH is the independent generator, derived once at startup.
var generatorH = generateH()

// generateH derives H by hashing the published seed to candidate
// x-coordinates until one lands on the curve. Nobody knows log_G(H), which
// is what makes the commitment binding.
func generateH() *secp256k1.JacobianPoint {
	for counter := 0; counter < 256; counter++ {
		input := fmt.Sprintf("%s:%d", hDomain, counter)
		hash := sha256.Sum256([]byte(input))

		pointBytes := make([]byte, CommitmentLen)
		pointBytes[0] = 0x02 // compressed, even y
		copy(pointBytes[1:], hash[:])

		pubKey, err := secp256k1.ParsePubKey(pointBytes)
		if err == nil {
			var result secp256k1.JacobianPoint
			pubKey.AsJacobian(&result)
			return &result
		}
	}

	panic("failed to generate H point - this should never happen")
}

// Blinding is the secret factor that hides a committed value. Whoever
// creates a commitment owns its blinding: losing it makes the commitment
// un-openable, leaking it breaks hiding for that commitment.
type Blinding struct {
	s secp256k1.ModNScalar
}

// NewBlinding draws a cryptographically secure random blinding factor.
func NewBlinding() (*Blinding, error) {
	var buf [32]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return nil, fmt.Errorf("failed to generate blinding: %w", err)
	}
	defer clear(buf[:])

	b := new(Blinding)
	b.s.SetBytes(&buf)
	if b.s.IsZero() {
		return nil, fmt.Errorf("%w: zero blinding scalar - investigate RNG", ErrInvalidBlinding)
	}
	return b, nil
}

// BlindingFromBytes parses a 32-byte blinding factor.
func BlindingFromBytes(data []byte) (*Blinding, error) {
	if len(data) != 32 {
		return nil, fmt.Errorf("%w: must be 32 bytes, got %d", ErrInvalidBlinding, len(data))
	}
	b := new(Blinding)
	if overflow := b.s.SetByteSlice(data); overflow {
		return nil, fmt.Errorf("%w: not reduced modulo group order", ErrInvalidBlinding)
	}
	if b.s.IsZero() {
		return nil, fmt.Errorf("%w: zero scalar", ErrInvalidBlinding)
	}
	return b, nil
}

// Bytes returns the serialized blinding factor.
func (b *Blinding) Bytes() []byte {
	buf := b.s.Bytes()
	return buf[:]
}

// Zeroize wipes the blinding scalar from memory.
func (b *Blinding) Zeroize() { b.s.Zero() }

// SumBlindings adds blinding factors modulo the group order, matching the
// homomorphic sum of their commitments. A sum that cancels to zero is
// rejected: zero is not a valid blinding, and committing under it yields
// the point at infinity which has no wire encoding.
func SumBlindings(bs ...*Blinding) (*Blinding, error) {
	sum := new(Blinding)
	for _, b := range bs {
		sum.s.Add(&b.s)
	}
	if sum.s.IsZero() {
		return nil, fmt.Errorf("%w: blindings cancel to zero", ErrInvalidBlinding)
	}
	return sum, nil
}

// SubBlindings computes a - b modulo the group order, rejecting a zero
// result for the same reason as SumBlindings.
func SubBlindings(a, b *Blinding) (*Blinding, error) {
	diff := new(Blinding)
	diff.s.Set(&b.s)
	diff.s.Negate()
	diff.s.Add(&a.s)
	if diff.s.IsZero() {
		return nil, fmt.Errorf("%w: blindings cancel to zero", ErrInvalidBlinding)
	}
	return diff, nil
}

// Commitment is the public point of a Pedersen commitment C = v*G + r*H.
// The point alone leaks nothing about v; the pair (v, r) opens it.
type Commitment struct {
	p secp256k1.JacobianPoint // affine, normalized
}

// Bytes returns the 33-byte compressed wire encoding of the commitment.
func (c *Commitment) Bytes() []byte {
	return secp256k1.NewPublicKey(&c.p.X, &c.p.Y).SerializeCompressed()
}

// Hex returns the 0x-prefixed hex encoding of the commitment.
func (c *Commitment) Hex() string { return hexutil.Encode(c.Bytes()) }

// Equal reports whether two commitments are the same point, in constant
// time over the serialized encoding.
func (c *Commitment) Equal(other *Commitment) bool {
	return subtle.ConstantTimeCompare(c.Bytes(), other.Bytes()) == 1
}

// ParseCommitment decodes a 33-byte compressed commitment point.
func ParseCommitment(data []byte) (*Commitment, error) {
	if len(data) != CommitmentLen {
		return nil, fmt.Errorf("%w: must be %d bytes, got %d", ErrInvalidCommitment, CommitmentLen, len(data))
	}
	pub, err := secp256k1.ParsePubKey(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCommitment, err)
	}

	c := new(Commitment)
	pub.AsJacobian(&c.p)
	return c, nil
}

// valueScalar converts an amount to a scalar. Amounts are base-unit uint64
// integers; the full 64-bit range fits well below the group order.
func valueScalar(value uint64) *secp256k1.ModNScalar {
	var buf [32]byte
	binary.BigEndian.PutUint64(buf[24:], value)
	s := new(secp256k1.ModNScalar)
	s.SetBytes(&buf)
	return s
}

// Commit commits to a value under a fresh random blinding factor and
// returns both. The caller is solely responsible for retaining the
// blinding.
func Commit(value uint64) (*Commitment, *Blinding, error) {
	blinding, err := NewBlinding()
	if err != nil {
		return nil, nil, err
	}
	return CommitWith(value, blinding), blinding, nil
}

// CommitWith commits to a value under a caller-supplied blinding factor:
// C = value*G + blinding*H.
func CommitWith(value uint64, blinding *Blinding) *Commitment {
	c := new(Commitment)

	if value == 0 {
		// Only the blinding contributes: C = r*H.
		secp256k1.ScalarMultNonConst(&blinding.s, generatorH, &c.p)
	} else {
		v := valueScalar(value)
		defer v.Zero()

		var vG, rH secp256k1.JacobianPoint
		secp256k1.ScalarBaseMultNonConst(v, &vG)
		secp256k1.ScalarMultNonConst(&blinding.s, generatorH, &rH)
		secp256k1.AddNonConst(&vG, &rH, &c.p)
	}

	c.p.ToAffine()
	return c
}

// Open verifies that a commitment opens to the given value and blinding by
// recomputing value*G + blinding*H and comparing in constant time.
func Open(c *Commitment, value uint64, blinding *Blinding) bool {
	expected := CommitWith(value, blinding)
	return c.Equal(expected)
}

// Sum adds commitments homomorphically: the result commits to the sum of
// the values under the sum of the blindings.
func Sum(cs ...*Commitment) (*Commitment, error) {
	if len(cs) == 0 {
		return nil, fmt.Errorf("%w: no commitments to sum", ErrInvalidCommitment)
	}

	sum := new(Commitment)
	sum.p = cs[0].p
	for _, c := range cs[1:] {
		var next secp256k1.JacobianPoint
		cp := c.p
		secp256k1.AddNonConst(&sum.p, &cp, &next)
		sum.p = next
	}

	sum.p.ToAffine()
	return sum, nil
}

// Sub subtracts commitments homomorphically: C1 - C2 commits to v1-v2
// under r1-r2.
func Sub(a, b *Commitment) *Commitment {
	neg := b.p
	neg.Y.Negate(1)
	neg.Y.Normalize()

	diff := new(Commitment)
	ap := a.p
	secp256k1.AddNonConst(&ap, &neg, &diff.p)
	diff.p.ToAffine()
	return diff
}

// Generators returns the compressed encodings of G and H for external
// proof systems that must commit against the same points.
func Generators() (g, h []byte) {
	gJac := new(secp256k1.JacobianPoint)
	one := new(secp256k1.ModNScalar).SetInt(1)
	secp256k1.ScalarBaseMultNonConst(one, gJac)
	gJac.ToAffine()
	hCopy := *generatorH

	return secp256k1.NewPublicKey(&gJac.X, &gJac.Y).SerializeCompressed(),
		secp256k1.NewPublicKey(&hCopy.X, &hCopy.Y).SerializeCompressed()
}
