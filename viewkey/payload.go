package viewkey

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/sip-protocol/sip-go/internal/curve"
)

const (
	// NonceLen is the XChaCha20-Poly1305 nonce length.
	NonceLen = chacha20poly1305.NonceSizeX
	// TagLen is the Poly1305 authentication tag length.
	TagLen = chacha20poly1305.Overhead
)

// Payload is an encrypted transaction-detail blob. Sealed is the wire
// format nonce || ciphertext || tag; the ephemeral public key and the
// viewing-key hash travel alongside it so a holder can cheaply check
// whether the payload is addressed to a key it has before attempting
// decryption.
type Payload struct {
	ViewingKeyHash     [32]byte
	EphemeralPublicKey []byte
	Sealed             []byte
}

// deriveAEADKey derives the symmetric key from the ECDH shared point via
// HKDF, bound to the recipient's key hash.
func deriveAEADKey(shared []byte, keyHash [32]byte) ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	reader := hkdf.New(sha256.New, shared, []byte(aeadDomain), keyHash[:])
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("failed to derive payload key: %w", err)
	}
	return key, nil
}

// Encrypt seals a plaintext for holders of the viewing key. A fresh
// ephemeral scalar is drawn per payload; the symmetric key is the HKDF of
// the ECDH between it and the viewing public key, and the key hash is
// bound as associated data so a payload cannot be re-tagged for a
// different key.
func Encrypt(plaintext []byte, to PublicKey) (*Payload, error) {
	toPoint, err := curve.ParseSecpPoint(to.b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	e, err := curve.RandomSecpScalar()
	if err != nil {
		return nil, err
	}
	defer e.Zero()

	ephemeralPub := curve.SecpBaseMult(e).SerializeCompressed()

	shared := curve.SecpECDH(e, toPoint)
	defer clear(shared)

	key, err := deriveAEADKey(shared, to.hash)
	if err != nil {
		return nil, err
	}
	defer clear(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	sealed := make([]byte, NonceLen, NonceLen+len(plaintext)+TagLen)
	if _, err := io.ReadFull(rand.Reader, sealed[:NonceLen]); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed = aead.Seal(sealed, sealed[:NonceLen], plaintext, to.hash[:])

	return &Payload{
		ViewingKeyHash:     to.hash,
		EphemeralPublicKey: ephemeralPub,
		Sealed:             sealed,
	}, nil
}

// Decrypt opens a payload with the viewing private key. It fails closed: a
// key-hash mismatch returns ErrKeyMismatch before any curve work, and a
// tag verification failure returns ErrAuthentication, never partial
// plaintext.
func (k *Key) Decrypt(p *Payload) ([]byte, error) {
	if p.ViewingKeyHash != k.hash {
		return nil, ErrKeyMismatch
	}
	if len(p.Sealed) < NonceLen+TagLen {
		return nil, fmt.Errorf("%w: sealed blob too short", ErrInvalidPayload)
	}

	ephemeral, err := curve.ParseSecpPoint(p.EphemeralPublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: ephemeral key: %v", ErrInvalidPayload, err)
	}

	s, err := curve.SecpScalarFromBytes(k.d)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	defer s.Zero()

	shared := curve.SecpECDH(s, ephemeral)
	defer clear(shared)

	key, err := deriveAEADKey(shared, k.hash)
	if err != nil {
		return nil, err
	}
	defer clear(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	plaintext, err := aead.Open(nil, p.Sealed[:NonceLen], p.Sealed[NonceLen:], k.hash[:])
	if err != nil {
		return nil, ErrAuthentication
	}
	return plaintext, nil
}

// Bytes returns the wire encoding of the sealed blob:
// nonce || ciphertext || tag. The viewing-key hash and ephemeral key are
// transmitted out of band alongside it.
func (p *Payload) Bytes() []byte { return append([]byte(nil), p.Sealed...) }

// ParsePayload reassembles a payload from its wire parts, validating
// lengths and the ephemeral point.
func ParsePayload(keyHash [32]byte, ephemeralPub, sealed []byte) (*Payload, error) {
	if len(sealed) < NonceLen+TagLen {
		return nil, fmt.Errorf("%w: sealed blob too short", ErrInvalidPayload)
	}
	if _, err := curve.ParseSecpPoint(ephemeralPub); err != nil {
		return nil, fmt.Errorf("%w: ephemeral key: %v", ErrInvalidPayload, err)
	}

	return &Payload{
		ViewingKeyHash:     keyHash,
		EphemeralPublicKey: append([]byte(nil), ephemeralPub...),
		Sealed:             append([]byte(nil), sealed...),
	}, nil
}
