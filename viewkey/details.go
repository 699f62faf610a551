package viewkey

import (
	"encoding/json"
	"fmt"

	"github.com/sip-protocol/sip-go/internal/units"
)

// TransferDetails is the canonical detail blob a compliant transfer
// encrypts for its auditors: enough to reconstruct what moved where,
// nothing the chain does not already bind.
type TransferDetails struct {
	Chain string `json:"chain"`
	Token string `json:"token"`
	// Amount is a decimal string; committed amounts are its base-unit
	// integer form.
	Amount   string `json:"amount"`
	Decimals int    `json:"decimals"`
	Memo     string `json:"memo,omitempty"`
}

// NewTransferDetails builds details from a base-unit amount.
func NewTransferDetails(chain, token string, baseUnits uint64, decimals int, memo string) TransferDetails {
	return TransferDetails{
		Chain:    chain,
		Token:    token,
		Amount:   units.Format(baseUnits, decimals),
		Decimals: decimals,
		Memo:     memo,
	}
}

// BaseUnits returns the amount as a base-unit integer, the form committed
// to by the commitment engine.
func (d *TransferDetails) BaseUnits() (uint64, error) {
	return units.Parse(d.Amount, d.Decimals)
}

// Encrypt serializes the details and seals them for the viewing key.
func (d *TransferDetails) Encrypt(to PublicKey) (*Payload, error) {
	plaintext, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transfer details: %w", err)
	}
	defer clear(plaintext)

	return Encrypt(plaintext, to)
}

// DecryptTransferDetails opens a payload and decodes it as transfer
// details.
func DecryptTransferDetails(k *Key, p *Payload) (*TransferDetails, error) {
	plaintext, err := k.Decrypt(p)
	if err != nil {
		return nil, err
	}
	defer clear(plaintext)

	var d TransferDetails
	if err := json.Unmarshal(plaintext, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return &d, nil
}
