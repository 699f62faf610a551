// Package stealth implements one-time stealth addresses: meta-address
// generation and encoding, sender-side address derivation, recipient-side
// recognition and private key recovery, and announcement scanning with
// view-tag filtering.
package stealth

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/sip-protocol/sip-go/internal/curve"
)

var (
	// ErrInvalidMetaAddress is returned when a meta-address string or its
	// keys are malformed.
	ErrInvalidMetaAddress = errors.New("invalid stealth meta-address")
	// ErrInvalidAnnouncement is returned when an announcement field cannot
	// be decoded.
	ErrInvalidAnnouncement = errors.New("invalid announcement")
	// ErrUnknownChain is returned when a chain is not present in the registry.
	ErrUnknownChain = errors.New("unknown chain")
	// ErrSchemeMismatch is returned when a scheme ID is unknown or does not
	// match the keys it is used with.
	ErrSchemeMismatch = errors.New("scheme mismatch")
	// ErrNotRecipient is returned when private key derivation is attempted
	// for a stealth address that does not belong to the key material.
	ErrNotRecipient = errors.New("stealth address does not belong to this key material")

	// ErrPointNotOnCurve is returned when key bytes do not decode to a
	// valid curve point.
	ErrPointNotOnCurve = curve.ErrPointNotOnCurve
	// ErrScalarOutOfRange is returned when private key bytes are zero or
	// not reduced modulo the group order.
	ErrScalarOutOfRange = curve.ErrScalarOutOfRange
)

// Domain separation tags for the two hashes over the ECDH shared secret.
// The stealth scalar and the view tag use distinct tags so revealing one
// byte of the tag hash leaks nothing about the scalar; both are recomputed
// from the same shared secret, so view-tag filtering can never produce a
// false negative. The tags are versioned by scheme ID: any change requires
// a new scheme.
const (
	scalarDomain  = "SIP-STEALTH-SCALAR-V1"
	viewTagDomain = "SIP-STEALTH-VIEWTAG-V1"
)

// StealthAddress is a one-time payment destination produced by the sender
// from a recipient's meta-address and a fresh ephemeral scalar.
type StealthAddress struct {
	// Scheme is the derivation scheme the address was produced under.
	Scheme SchemeID
	// Address is the chain-native address string of the stealth public key.
	Address string
	// PublicKey is the encoded stealth public key.
	PublicKey []byte
	// EphemeralPublicKey is the sender's ephemeral public key the recipient
	// needs to recognize the address.
	EphemeralPublicKey []byte
	// ViewTag is the first byte of the tag hash, published so scanners can
	// reject non-matching announcements with a single byte compare.
	ViewTag byte
}

// viewTagOf computes the published view tag for a shared secret.
func viewTagOf(shared []byte) byte {
	h := sha256.New()
	h.Write([]byte(viewTagDomain))
	h.Write(shared)
	return h.Sum(nil)[0]
}

// GenerateStealthAddress derives a fresh one-time stealth address for the
// recipient behind the meta-address. Each call draws a new ephemeral
// scalar, so repeated payments to the same meta-address are unlinkable.
func GenerateStealthAddress(meta *MetaAddress) (*StealthAddress, error) {
	scheme := meta.Scheme()
	if scheme != meta.Viewing.Scheme() {
		return nil, fmt.Errorf("%w: spending and viewing keys disagree", ErrSchemeMismatch)
	}

	switch scheme {
	case SchemeSecp256k1:
		return generateSecp(meta)
	case SchemeEd25519:
		return generateEd(meta)
	default:
		return nil, fmt.Errorf("%w: scheme %d", ErrSchemeMismatch, uint8(scheme))
	}
}

func generateSecp(meta *MetaAddress) (*StealthAddress, error) {
	spendPub, err := curve.ParseSecpPoint(meta.Spending.b)
	if err != nil {
		return nil, fmt.Errorf("spending key: %w", err)
	}

	viewPub, err := curve.ParseSecpPoint(meta.Viewing.b)
	if err != nil {
		return nil, fmt.Errorf("viewing key: %w", err)
	}

	r, err := curve.RandomSecpScalar()
	if err != nil {
		return nil, err
	}
	defer r.Zero()

	ephemeral := curve.SecpBaseMult(r).SerializeCompressed()
	shared := curve.SecpECDH(r, viewPub)
	defer clear(shared)

	h := curve.HashToSecpScalar(scalarDomain, shared)
	defer h.Zero()

	stealthPub := curve.SecpAddScalarBase(spendPub, h).SerializeCompressed()
	address, err := addressOf(SchemeSecp256k1, stealthPub)
	if err != nil {
		return nil, err
	}

	return &StealthAddress{
		Scheme:             SchemeSecp256k1,
		Address:            address,
		PublicKey:          stealthPub,
		EphemeralPublicKey: ephemeral,
		ViewTag:            viewTagOf(shared),
	}, nil
}

func generateEd(meta *MetaAddress) (*StealthAddress, error) {
	spendPub, err := curve.ParseEdPoint(meta.Spending.b)
	if err != nil {
		return nil, fmt.Errorf("spending key: %w", err)
	}

	viewPub, err := curve.ParseEdPoint(meta.Viewing.b)
	if err != nil {
		return nil, fmt.Errorf("viewing key: %w", err)
	}

	r, err := curve.RandomEdScalar()
	if err != nil {
		return nil, err
	}

	ephemeral := curve.EdBaseMult(r).Bytes()
	shared := curve.EdECDH(r, viewPub)
	defer clear(shared)

	h := curve.HashToEdScalar(scalarDomain, shared)
	stealthPub := curve.EdAddScalarBase(spendPub, h).Bytes()

	address, err := addressOf(SchemeEd25519, stealthPub)
	if err != nil {
		return nil, err
	}

	return &StealthAddress{
		Scheme:             SchemeEd25519,
		Address:            address,
		PublicKey:          stealthPub,
		EphemeralPublicKey: ephemeral,
		ViewTag:            viewTagOf(shared),
	}, nil
}

// CheckStealthAddress reports whether an announced stealth address belongs
// to the holder of the given keys. The view tag is compared first so
// non-matching announcements cost one hash and a byte compare; the full
// point derivation and address comparison is the authoritative check and
// runs only on a tag match.
//
// Only the viewing private key and the spending public key are needed, so a
// scanner holding a copied viewing key can recognize payments without any
// spend capability.
func CheckStealthAddress(ann *Announcement, spend SpendingPublicKey, view *ViewingPrivateKey) (bool, error) {
	if !ann.SchemeID.Valid() {
		return false, fmt.Errorf("%w: scheme %d", ErrSchemeMismatch, uint8(ann.SchemeID))
	}
	if ann.SchemeID != spend.scheme || ann.SchemeID != view.scheme {
		return false, fmt.Errorf("%w: announcement is %s, keys are %s", ErrSchemeMismatch, ann.SchemeID, spend.scheme)
	}

	ephemeral, err := ann.ephemeralBytes()
	if err != nil {
		return false, err
	}

	shared, err := sharedSecret(view, ephemeral)
	if err != nil {
		return false, err
	}
	defer clear(shared)

	// Cheap pre-filter. A mismatch here is a definitive non-match because
	// the tag is a pure function of the shared secret.
	if viewTagOf(shared) != ann.ViewTag {
		return false, nil
	}

	expectedPub, err := stealthPubFromShared(ann.SchemeID, spend.b, shared)
	if err != nil {
		return false, err
	}

	expectedAddr, err := addressOf(ann.SchemeID, expectedPub)
	if err != nil {
		return false, err
	}

	return expectedAddr == ann.StealthAddress, nil
}

// sharedSecret recomputes the sender's ECDH output from the recipient side:
// viewingPriv * ephemeralPub.
func sharedSecret(view *ViewingPrivateKey, ephemeral []byte) ([]byte, error) {
	switch view.scheme {
	case SchemeSecp256k1:
		k, err := curve.SecpScalarFromBytes(view.d)
		if err != nil {
			return nil, fmt.Errorf("viewing key: %w", err)
		}
		defer k.Zero()

		point, err := curve.ParseSecpPoint(ephemeral)
		if err != nil {
			return nil, fmt.Errorf("ephemeral key: %w", err)
		}
		return curve.SecpECDH(k, point), nil
	case SchemeEd25519:
		k, err := curve.EdScalarFromBytes(view.d)
		if err != nil {
			return nil, fmt.Errorf("viewing key: %w", err)
		}

		point, err := curve.ParseEdPoint(ephemeral)
		if err != nil {
			return nil, fmt.Errorf("ephemeral key: %w", err)
		}
		return curve.EdECDH(k, point), nil
	default:
		return nil, fmt.Errorf("%w: scheme %d", ErrSchemeMismatch, uint8(view.scheme))
	}
}

// stealthPubFromShared recomputes spendingPub + H(shared)*G.
func stealthPubFromShared(scheme SchemeID, spendPub, shared []byte) ([]byte, error) {
	switch scheme {
	case SchemeSecp256k1:
		point, err := curve.ParseSecpPoint(spendPub)
		if err != nil {
			return nil, fmt.Errorf("spending key: %w", err)
		}

		h := curve.HashToSecpScalar(scalarDomain, shared)
		defer h.Zero()

		return curve.SecpAddScalarBase(point, h).SerializeCompressed(), nil
	case SchemeEd25519:
		point, err := curve.ParseEdPoint(spendPub)
		if err != nil {
			return nil, fmt.Errorf("spending key: %w", err)
		}
		return curve.EdAddScalarBase(point, curve.HashToEdScalar(scalarDomain, shared)).Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: scheme %d", ErrSchemeMismatch, uint8(scheme))
	}
}

// StealthPrivateKey is the one-time private key controlling a single
// stealth address. For ed25519 schemes the bytes are a raw group scalar,
// not an RFC 8032 seed; signing layers must use it as such.
type StealthPrivateKey struct {
	scheme SchemeID
	d      []byte
	pub    []byte
}

// Scheme returns the derivation scheme of the key.
func (k *StealthPrivateKey) Scheme() SchemeID { return k.scheme }

// Bytes returns a copy of the private scalar.
func (k *StealthPrivateKey) Bytes() []byte { return append([]byte(nil), k.d...) }

// PublicKey returns the encoded stealth public key.
func (k *StealthPrivateKey) PublicKey() []byte { return append([]byte(nil), k.pub...) }

// Address returns the chain-native address string of the key.
func (k *StealthPrivateKey) Address() (string, error) {
	return addressOf(k.scheme, k.pub)
}

// Zeroize wipes the private scalar from memory.
func (k *StealthPrivateKey) Zeroize() { clear(k.d) }

// DeriveStealthPrivateKey recovers the one-time private key for an
// announced stealth address: spendingPriv + H(shared) modulo the group
// order. It verifies ownership first and returns ErrNotRecipient if the
// announcement does not belong to the key material.
func DeriveStealthPrivateKey(ann *Announcement, km *KeyMaterial) (*StealthPrivateKey, error) {
	ok, err := CheckStealthAddress(ann, km.Spending.Public(), &km.Viewing)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotRecipient
	}

	ephemeral, err := ann.ephemeralBytes()
	if err != nil {
		return nil, err
	}

	shared, err := sharedSecret(&km.Viewing, ephemeral)
	if err != nil {
		return nil, err
	}
	defer clear(shared)

	switch km.Spending.scheme {
	case SchemeSecp256k1:
		spend, err := curve.SecpScalarFromBytes(km.Spending.d)
		if err != nil {
			return nil, fmt.Errorf("spending key: %w", err)
		}
		defer spend.Zero()

		h := curve.HashToSecpScalar(scalarDomain, shared)
		defer h.Zero()

		sum := curve.SecpAddScalars(spend, h)
		defer sum.Zero()

		db := sum.Bytes()
		return &StealthPrivateKey{
			scheme: SchemeSecp256k1,
			d:      db[:],
			pub:    curve.SecpBaseMult(sum).SerializeCompressed(),
		}, nil
	case SchemeEd25519:
		spend, err := curve.EdScalarFromBytes(km.Spending.d)
		if err != nil {
			return nil, fmt.Errorf("spending key: %w", err)
		}

		sum := curve.EdAddScalars(spend, curve.HashToEdScalar(scalarDomain, shared))
		return &StealthPrivateKey{
			scheme: SchemeEd25519,
			d:      sum.Bytes(),
			pub:    curve.EdBaseMult(sum).Bytes(),
		}, nil
	default:
		return nil, fmt.Errorf("%w: scheme %d", ErrSchemeMismatch, uint8(km.Spending.scheme))
	}
}

// validatePoint checks that encoded public key bytes decode to a point on
// the scheme's curve.
func validatePoint(scheme SchemeID, b []byte) error {
	switch scheme {
	case SchemeSecp256k1:
		_, err := curve.ParseSecpPoint(b)
		return err
	case SchemeEd25519:
		_, err := curve.ParseEdPoint(b)
		return err
	default:
		return fmt.Errorf("%w: scheme %d", ErrSchemeMismatch, uint8(scheme))
	}
}
