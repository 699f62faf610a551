package pedersen

import (
	"errors"
	"fmt"
)

var (
	// ErrRangeProofMissing is returned when a balance check is attempted
	// over a commitment that carries no range proof.
	ErrRangeProofMissing = errors.New("range proof missing")
	// ErrRangeProofInvalid is returned when the attached range proof is
	// rejected by the verifier.
	ErrRangeProofInvalid = errors.New("range proof invalid")
	// ErrCommitmentMismatch is returned when a commitment does not open or
	// the balance identity does not hold.
	ErrCommitmentMismatch = errors.New("commitment mismatch")
)

// Verifier checks that a commitment's hidden value lies in [0, 2^N).
// Implementations wrap an external proof system such as Bulletproofs; this
// package only defines the hook. Verifiers should return errors wrapping
// ErrRangeProofInvalid on rejection.
type Verifier interface {
	Verify(c *Commitment, proof []byte) error
}

// Attested pairs a commitment with its range proof. Every commitment used
// in a balance check must be attested: without the range bound a value
// submitted as a huge residue wraps modulo the group order and forges
// balance.
type Attested struct {
	Commitment *Commitment
	RangeProof []byte
}

// AttachRangeProof binds a proof to a commitment for balance verification.
func AttachRangeProof(c *Commitment, proof []byte) Attested {
	return Attested{Commitment: c, RangeProof: proof}
}

// VerifyBalance checks the balance identity without range proofs:
// sum(inputs) - sum(outputs) == deltaBlinding*H, i.e. the input and output
// values cancel exactly and only the blinding delta remains. Callers doing
// consensus-grade verification must use BalanceChecker instead so the
// range bound is enforced.
func VerifyBalance(inputs, outputs []*Commitment, deltaBlinding *Blinding) (bool, error) {
	inSum, err := Sum(inputs...)
	if err != nil {
		return false, fmt.Errorf("inputs: %w", err)
	}

	outSum, err := Sum(outputs...)
	if err != nil {
		return false, fmt.Errorf("outputs: %w", err)
	}

	return Sub(inSum, outSum).Equal(CommitWith(0, deltaBlinding)), nil
}

// BalanceChecker verifies that transaction inputs equal outputs without
// revealing individual amounts, enforcing the mandatory range-proof
// companion invariant on every output commitment.
type BalanceChecker struct {
	verifier Verifier
}

// NewBalanceChecker builds a checker around a range-proof verifier.
func NewBalanceChecker(v Verifier) *BalanceChecker {
	return &BalanceChecker{verifier: v}
}

// VerifyBalance checks every output's range proof and then the balance
// identity sum(inputs) - sum(outputs) == deltaBlinding*H. Inputs are
// assumed range-checked when they were created as outputs of earlier
// transactions.
func (bc *BalanceChecker) VerifyBalance(inputs []*Commitment, outputs []Attested, deltaBlinding *Blinding) error {
	outCommitments := make([]*Commitment, 0, len(outputs))
	for i, out := range outputs {
		if out.RangeProof == nil {
			return fmt.Errorf("output %d: %w", i, ErrRangeProofMissing)
		}
		if err := bc.verifier.Verify(out.Commitment, out.RangeProof); err != nil {
			return fmt.Errorf("output %d: %w", i, err)
		}
		outCommitments = append(outCommitments, out.Commitment)
	}

	ok, err := VerifyBalance(inputs, outCommitments, deltaBlinding)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: inputs do not balance outputs", ErrCommitmentMismatch)
	}
	return nil
}
