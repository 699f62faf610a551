package stealth

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/tyler-smith/go-bip32"

	"github.com/sip-protocol/sip-go/internal/curve"
)

// Spending and viewing keys are distinct types on purpose: a function that
// needs spend capability cannot accept a viewing key by accident, and a
// scanner built from a copied viewing private key can never reach a
// spending private key through the type system.

// SpendingPrivateKey controls funds sent to stealth addresses derived from
// the matching meta-address.
type SpendingPrivateKey struct {
	scheme SchemeID
	d      []byte
	pub    []byte
}

// ViewingPrivateKey grants the ability to recognize incoming stealth
// addresses without spend capability. It may be copied to a scanner or
// auditor; the spending key must not.
type ViewingPrivateKey struct {
	scheme SchemeID
	d      []byte
	pub    []byte
}

// SpendingPublicKey is the public half of a spending key.
type SpendingPublicKey struct {
	scheme SchemeID
	b      []byte
}

// ViewingPublicKey is the public half of a viewing key.
type ViewingPublicKey struct {
	scheme SchemeID
	b      []byte
}

// Scheme returns the derivation scheme the key belongs to.
func (k *SpendingPrivateKey) Scheme() SchemeID { return k.scheme }
func (k *ViewingPrivateKey) Scheme() SchemeID  { return k.scheme }
func (k SpendingPublicKey) Scheme() SchemeID   { return k.scheme }
func (k ViewingPublicKey) Scheme() SchemeID    { return k.scheme }

// Bytes returns a copy of the serialized private scalar.
func (k *SpendingPrivateKey) Bytes() []byte { return append([]byte(nil), k.d...) }
func (k *ViewingPrivateKey) Bytes() []byte  { return append([]byte(nil), k.d...) }

// Bytes returns a copy of the encoded public key.
func (k SpendingPublicKey) Bytes() []byte { return append([]byte(nil), k.b...) }
func (k ViewingPublicKey) Bytes() []byte  { return append([]byte(nil), k.b...) }

// Hex returns the 0x-prefixed hex encoding of the public key.
func (k SpendingPublicKey) Hex() string { return hexutil.Encode(k.b) }
func (k ViewingPublicKey) Hex() string  { return hexutil.Encode(k.b) }

// Public returns the public half of the key.
func (k *SpendingPrivateKey) Public() SpendingPublicKey {
	return SpendingPublicKey{scheme: k.scheme, b: append([]byte(nil), k.pub...)}
}

// Public returns the public half of the key.
func (k *ViewingPrivateKey) Public() ViewingPublicKey {
	return ViewingPublicKey{scheme: k.scheme, b: append([]byte(nil), k.pub...)}
}

// Zeroize wipes the private scalar from memory. The key is unusable after.
func (k *SpendingPrivateKey) Zeroize() { clear(k.d) }

// Zeroize wipes the private scalar from memory. The key is unusable after.
func (k *ViewingPrivateKey) Zeroize() { clear(k.d) }

// KeyMaterial is the recipient-held pair of private keys behind a
// meta-address. The two keys are generated independently: leaking the
// viewing key never compromises spend capability and vice versa.
type KeyMaterial struct {
	Spending SpendingPrivateKey
	Viewing  ViewingPrivateKey
}

// Zeroize wipes both private scalars.
func (km *KeyMaterial) Zeroize() {
	km.Spending.Zeroize()
	km.Viewing.Zeroize()
}

// MetaAddress returns the publicly shareable meta-address for the material.
func (km *KeyMaterial) MetaAddress(chain string) *MetaAddress {
	return &MetaAddress{
		Chain:    chain,
		Spending: km.Spending.Public(),
		Viewing:  km.Viewing.Public(),
	}
}

// GenerateKeyMaterial generates fresh spending and viewing keypairs on the
// curve the registry maps the chain to.
func GenerateKeyMaterial(reg Registry, chain string) (*KeyMaterial, error) {
	scheme, err := reg.SchemeFor(chain)
	if err != nil {
		return nil, err
	}

	spendD, spendPub, err := generateKeypair(scheme)
	if err != nil {
		return nil, fmt.Errorf("failed to generate spending key: %w", err)
	}

	viewD, viewPub, err := generateKeypair(scheme)
	if err != nil {
		clear(spendD)
		return nil, fmt.Errorf("failed to generate viewing key: %w", err)
	}

	return &KeyMaterial{
		Spending: SpendingPrivateKey{scheme: scheme, d: spendD, pub: spendPub},
		Viewing:  ViewingPrivateKey{scheme: scheme, d: viewD, pub: viewPub},
	}, nil
}

// KeyMaterialFromSeed deterministically derives key material from a seed.
// The spending key is BIP-32 child m/0' of the seed's master key and the
// viewing key is m/1', so replaying the same seed always reproduces the
// same meta-address. For ed25519 chains the BIP-32 scalars are bridged to
// ed25519 seeds afterwards; the bridge is fixed per scheme ID.
func KeyMaterialFromSeed(reg Registry, chain string, seed []byte) (*KeyMaterial, error) {
	scheme, err := reg.SchemeFor(chain)
	if err != nil {
		return nil, err
	}

	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("failed to derive master key: %w", err)
	}

	spendNode, err := master.NewChildKey(bip32.FirstHardenedChild)
	if err != nil {
		return nil, fmt.Errorf("failed to derive spending node: %w", err)
	}

	viewNode, err := master.NewChildKey(bip32.FirstHardenedChild + 1)
	if err != nil {
		return nil, fmt.Errorf("failed to derive viewing node: %w", err)
	}

	spendD, spendPub, err := keypairFromSecpBytes(scheme, spendNode.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to derive spending key: %w", err)
	}

	viewD, viewPub, err := keypairFromSecpBytes(scheme, viewNode.Key)
	if err != nil {
		clear(spendD)
		return nil, fmt.Errorf("failed to derive viewing key: %w", err)
	}

	return &KeyMaterial{
		Spending: SpendingPrivateKey{scheme: scheme, d: spendD, pub: spendPub},
		Viewing:  ViewingPrivateKey{scheme: scheme, d: viewD, pub: viewPub},
	}, nil
}

// KeyMaterialFromBytes reconstructs key material from serialized private
// scalars, validating them against the scheme's group order. The bytes are
// what Bytes() returned: secp256k1 scalars for scheme 1, bridged ed25519
// scalars for scheme 2.
func KeyMaterialFromBytes(scheme SchemeID, spendPriv, viewPriv []byte) (*KeyMaterial, error) {
	if !scheme.Valid() {
		return nil, fmt.Errorf("%w: scheme %d", ErrSchemeMismatch, uint8(scheme))
	}

	spendD, spendPub, err := keypairFromScalarBytes(scheme, spendPriv)
	if err != nil {
		return nil, fmt.Errorf("invalid spending key: %w", err)
	}

	viewD, viewPub, err := keypairFromScalarBytes(scheme, viewPriv)
	if err != nil {
		clear(spendD)
		return nil, fmt.Errorf("invalid viewing key: %w", err)
	}

	return &KeyMaterial{
		Spending: SpendingPrivateKey{scheme: scheme, d: spendD, pub: spendPub},
		Viewing:  ViewingPrivateKey{scheme: scheme, d: viewD, pub: viewPub},
	}, nil
}

// generateKeypair draws a fresh random keypair for the scheme. Scheme 2
// roots in a random secp256k1 scalar and bridges it, so the construction
// matches seed-derived keys.
func generateKeypair(scheme SchemeID) (d []byte, pub []byte, err error) {
	k, err := curve.RandomSecpScalar()
	if err != nil {
		return nil, nil, err
	}
	defer k.Zero()

	kb := k.Bytes()
	defer clear(kb[:])

	return keypairFromSecpBytes(scheme, kb[:])
}

// keypairFromSecpBytes builds scheme-native key material from a secp256k1
// scalar: used directly for scheme 1, bridged to an ed25519 seed for
// scheme 2.
func keypairFromSecpBytes(scheme SchemeID, secpScalar []byte) (d []byte, pub []byte, err error) {
	k, err := curve.SecpScalarFromBytes(secpScalar)
	if err != nil {
		return nil, nil, err
	}
	defer k.Zero()

	switch scheme {
	case SchemeSecp256k1:
		kb := k.Bytes()
		return kb[:], curve.SecpBaseMult(k).SerializeCompressed(), nil
	case SchemeEd25519:
		seed := curve.BridgeSeed(secpScalar)
		defer clear(seed[:])

		s, p, err := curve.Ed25519KeyFromSeed(seed)
		if err != nil {
			return nil, nil, err
		}
		return s.Bytes(), p.Bytes(), nil
	default:
		return nil, nil, fmt.Errorf("%w: scheme %d", ErrSchemeMismatch, uint8(scheme))
	}
}

// keypairFromScalarBytes rebuilds a keypair from a scheme-native scalar.
func keypairFromScalarBytes(scheme SchemeID, scalar []byte) (d []byte, pub []byte, err error) {
	switch scheme {
	case SchemeSecp256k1:
		k, err := curve.SecpScalarFromBytes(scalar)
		if err != nil {
			return nil, nil, err
		}
		defer k.Zero()

		kb := k.Bytes()
		return kb[:], curve.SecpBaseMult(k).SerializeCompressed(), nil
	case SchemeEd25519:
		s, err := curve.EdScalarFromBytes(scalar)
		if err != nil {
			return nil, nil, err
		}
		return s.Bytes(), curve.EdBaseMult(s).Bytes(), nil
	default:
		return nil, nil, fmt.Errorf("%w: scheme %d", ErrSchemeMismatch, uint8(scheme))
	}
}
