package stealth

import (
	"fmt"

	ethcommon "github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"

	"github.com/sip-protocol/sip-go/internal/curve"
)

// SchemeID selects the curve and key-bridge construction a stealth address
// was derived under. Announcements carry it and it must be checked before
// any other field is interpreted. New constructions get new IDs; existing
// IDs are frozen since changing one breaks every published address.
type SchemeID uint8

const (
	// SchemeSecp256k1 derives everything on secp256k1 with 33-byte
	// compressed keys and EIP-55 checksummed addresses.
	SchemeSecp256k1 SchemeID = 1
	// SchemeEd25519 roots key material in secp256k1, bridges it to ed25519
	// seeds via a fixed hash, and runs per-payment stealth math natively on
	// the edwards curve. Keys are 32 bytes, addresses base58.
	SchemeEd25519 SchemeID = 2
)

// Valid reports whether the scheme ID names a known construction.
func (s SchemeID) Valid() bool {
	return s == SchemeSecp256k1 || s == SchemeEd25519
}

// KeyLen returns the encoded public key length for the scheme.
func (s SchemeID) KeyLen() int {
	if s == SchemeEd25519 {
		return curve.EdPointLen
	}
	return curve.SecpPointLen
}

func (s SchemeID) String() string {
	switch s {
	case SchemeSecp256k1:
		return "secp256k1"
	case SchemeEd25519:
		return "ed25519"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// Registry maps chain identifiers to derivation schemes. It is explicit,
// passed-in configuration: callers construct one (or take DefaultRegistry)
// and hand it to the functions that need to resolve a chain.
type Registry struct {
	chains map[string]SchemeID
}

// NewRegistry builds a registry from a chain-to-scheme map. The map is
// copied, so later mutation of the argument does not affect the registry.
func NewRegistry(chains map[string]SchemeID) Registry {
	m := make(map[string]SchemeID, len(chains))
	for chain, scheme := range chains {
		m[chain] = scheme
	}
	return Registry{chains: m}
}

// DefaultRegistry returns the registry of chains the protocol ships support
// for: EVM chains on scheme 1, Solana on scheme 2.
func DefaultRegistry() Registry {
	return NewRegistry(map[string]SchemeID{
		"ethereum": SchemeSecp256k1,
		"polygon":  SchemeSecp256k1,
		"arbitrum": SchemeSecp256k1,
		"base":     SchemeSecp256k1,
		"optimism": SchemeSecp256k1,
		"solana":   SchemeEd25519,
	})
}

// SchemeFor resolves the derivation scheme for a chain.
func (r Registry) SchemeFor(chain string) (SchemeID, error) {
	scheme, ok := r.chains[chain]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownChain, chain)
	}
	return scheme, nil
}

// addressOf renders a stealth public key as the chain-native address string:
// EIP-55 checksummed hex for secp256k1 schemes, base58 for ed25519.
func addressOf(scheme SchemeID, pub []byte) (string, error) {
	switch scheme {
	case SchemeSecp256k1:
		point, err := curve.ParseSecpPoint(pub)
		if err != nil {
			return "", err
		}
		uncompressed := point.SerializeUncompressed()
		digest := ethcrypto.Keccak256(uncompressed[1:])
		return ethcommon.BytesToAddress(digest[12:]).Hex(), nil
	case SchemeEd25519:
		if _, err := curve.ParseEdPoint(pub); err != nil {
			return "", err
		}
		return solana.PublicKeyFromBytes(pub).String(), nil
	default:
		return "", fmt.Errorf("%w: scheme %d", ErrSchemeMismatch, uint8(scheme))
	}
}
