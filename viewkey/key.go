// Package viewkey implements the hierarchical viewing-key system: one-way
// derivation of scoped child keys from a master key, key-hash identifiers,
// and authenticated encryption of transaction details for auditors.
package viewkey

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/crypto/hkdf"

	"github.com/sip-protocol/sip-go/internal/curve"
)

// RootPath is the path of a master viewing key.
const RootPath = "m"

// Domain separation tags for key derivation and the payload key schedule.
// Fixed per protocol version: changing either breaks every derived key or
// payload already in the wild.
const (
	deriveDomain = "SIP-VIEWKEY-DERIVE-V1"
	aeadDomain   = "SIP-VIEWKEY-AEAD-V1"
)

var (
	// ErrAuthentication is returned when AEAD tag verification fails.
	// Decryption fails closed: no partial plaintext is ever returned.
	ErrAuthentication = errors.New("payload authentication failed")
	// ErrKeyMismatch is returned when a payload's viewing-key hash does not
	// match the key attempting decryption.
	ErrKeyMismatch = errors.New("payload is not addressed to this viewing key")
	// ErrInvalidPayload is returned when an encrypted payload is malformed.
	ErrInvalidPayload = errors.New("invalid encrypted payload")
	// ErrInvalidKey is returned when viewing key bytes are not valid.
	ErrInvalidKey = errors.New("invalid viewing key")
	// ErrInvalidPath is returned when a derivation sub-path is empty or
	// contains a path separator.
	ErrInvalidPath = errors.New("invalid derivation path")
)

// Key is a viewing key in the hierarchy. Derivation is one-way: a child
// cannot recompute its parent's scalar, and siblings cannot compute each
// other. Revocation and expiry are policy state kept by external tooling;
// the key itself is pure cryptographic material.
type Key struct {
	path string
	d    []byte
	pub  []byte
	hash [32]byte
}

// PublicKey is the shareable half of a viewing key: enough to encrypt
// payloads to the key and to tag them with its hash, with no read access.
type PublicKey struct {
	b    []byte
	hash [32]byte
}

// Generate creates a fresh master viewing key at path "m".
func Generate() (*Key, error) {
	k, err := curve.RandomSecpScalar()
	if err != nil {
		return nil, fmt.Errorf("failed to generate viewing key: %w", err)
	}
	defer k.Zero()

	kb := k.Bytes()
	defer clear(kb[:])

	return KeyFromBytes(RootPath, kb[:])
}

// KeyFromBytes reconstructs a viewing key from its serialized scalar, as
// returned by Bytes.
func KeyFromBytes(path string, d []byte) (*Key, error) {
	s, err := curve.SecpScalarFromBytes(d)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	defer s.Zero()

	pub := curve.SecpBaseMult(s).SerializeCompressed()
	sb := s.Bytes()

	return &Key{
		path: path,
		d:    sb[:],
		pub:  pub,
		hash: sha256.Sum256(pub),
	}, nil
}

// Derive deterministically derives the child key at subPath. The child
// scalar is HKDF output keyed on the parent scalar, so deriving is cheap
// and repeatable but walking the hierarchy upward or sideways requires the
// respective parent's secret.
func (k *Key) Derive(subPath string) (*Key, error) {
	if subPath == "" || strings.Contains(subPath, "/") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, subPath)
	}

	childPath := k.path + "/" + subPath
	reader := hkdf.New(sha256.New, k.d, []byte(deriveDomain), []byte(childPath))

	// Rejection-sample until the candidate is a valid nonzero scalar. The
	// first candidate is accepted with overwhelming probability.
	var candidate [32]byte
	defer clear(candidate[:])
	for attempt := 0; attempt < 128; attempt++ {
		if _, err := io.ReadFull(reader, candidate[:]); err != nil {
			return nil, fmt.Errorf("failed to derive child key: %w", err)
		}
		child, err := KeyFromBytes(childPath, candidate[:])
		if err == nil {
			return child, nil
		}
	}
	return nil, fmt.Errorf("failed to derive child key at %q: no valid scalar", childPath)
}

// Path returns the hierarchical path of the key, e.g. "m/auditor/2025".
func (k *Key) Path() string { return k.path }

// Bytes returns a copy of the private scalar.
func (k *Key) Bytes() []byte { return append([]byte(nil), k.d...) }

// Hash returns the public key-hash identifier, SHA-256 of the compressed
// public key. It tags payloads without revealing anything about the key.
func (k *Key) Hash() [32]byte { return k.hash }

// Public returns the shareable public half of the key.
func (k *Key) Public() PublicKey {
	return PublicKey{b: append([]byte(nil), k.pub...), hash: k.hash}
}

// Zeroize wipes the private scalar from memory. The key is unusable after.
func (k *Key) Zeroize() { clear(k.d) }

// PublicKeyFromBytes parses a compressed viewing public key.
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	if _, err := curve.ParseSecpPoint(b); err != nil {
		return PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return PublicKey{b: append([]byte(nil), b...), hash: sha256.Sum256(b)}, nil
}

// Bytes returns the compressed public key.
func (p PublicKey) Bytes() []byte { return append([]byte(nil), p.b...) }

// Hash returns the key-hash identifier.
func (p PublicKey) Hash() [32]byte { return p.hash }

// Hex returns the 0x-prefixed hex encoding of the public key.
func (p PublicKey) Hex() string { return hexutil.Encode(p.b) }
