package stealth

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/skip2/go-qrcode"
)

// MetaAddress is a recipient's long-lived, publicly shareable anchor: the
// chain it targets plus the spending and viewing public keys stealth
// addresses are derived from.
type MetaAddress struct {
	Chain    string
	Spending SpendingPublicKey
	Viewing  ViewingPublicKey
}

// Scheme returns the derivation scheme of the underlying keys.
func (m *MetaAddress) Scheme() SchemeID { return m.Spending.Scheme() }

// String encodes the meta-address in the canonical format
// sip:<chain>:<spendingKeyHex>:<viewingKeyHex> with 0x-prefixed compressed
// keys.
func (m *MetaAddress) String() string {
	return fmt.Sprintf("sip:%s:%s:%s", m.Chain, m.Spending.Hex(), m.Viewing.Hex())
}

// ParseMetaAddress decodes a sip: encoded meta-address, resolving the chain
// against the registry and validating that both keys are on-curve points of
// the scheme's expected length.
func ParseMetaAddress(reg Registry, encoded string) (*MetaAddress, error) {
	parts := strings.Split(encoded, ":")
	if len(parts) != 4 || parts[0] != "sip" {
		return nil, fmt.Errorf("%w: want sip:<chain>:<spendingKey>:<viewingKey>", ErrInvalidMetaAddress)
	}

	chain := parts[1]
	scheme, err := reg.SchemeFor(chain)
	if err != nil {
		return nil, err
	}

	spendBytes, err := hexutil.Decode(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: spending key: %v", ErrInvalidMetaAddress, err)
	}

	viewBytes, err := hexutil.Decode(parts[3])
	if err != nil {
		return nil, fmt.Errorf("%w: viewing key: %v", ErrInvalidMetaAddress, err)
	}

	if len(spendBytes) != scheme.KeyLen() || len(viewBytes) != scheme.KeyLen() {
		return nil, fmt.Errorf("%w: %s keys must be %d bytes", ErrInvalidMetaAddress, scheme, scheme.KeyLen())
	}

	if err := validatePoint(scheme, spendBytes); err != nil {
		return nil, fmt.Errorf("spending key: %w", err)
	}

	if err := validatePoint(scheme, viewBytes); err != nil {
		return nil, fmt.Errorf("viewing key: %w", err)
	}

	return &MetaAddress{
		Chain:    chain,
		Spending: SpendingPublicKey{scheme: scheme, b: spendBytes},
		Viewing:  ViewingPublicKey{scheme: scheme, b: viewBytes},
	}, nil
}

// QRCode renders the encoded meta-address as a base64 PNG QR code for
// display by wallets.
func (m *MetaAddress) QRCode() (string, error) {
	qr, err := qrcode.New(m.String(), qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}

	png, err := qr.PNG(256)
	if err != nil {
		return "", fmt.Errorf("failed to generate PNG: %w", err)
	}

	return base64.StdEncoding.EncodeToString(png), nil
}
