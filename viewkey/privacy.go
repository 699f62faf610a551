package viewkey

// PrivacyLevel selects how much of a transaction is hidden and who can
// re-reveal it.
type PrivacyLevel string

const (
	// PrivacyTransparent - no privacy, all data public.
	PrivacyTransparent PrivacyLevel = "transparent"
	// PrivacyShielded - full privacy, amount and recipient hidden.
	PrivacyShielded PrivacyLevel = "shielded"
	// PrivacyCompliant - privacy with a viewing key for auditors.
	PrivacyCompliant PrivacyLevel = "compliant"
)

// Valid reports whether the level is one of the recognized values.
func (l PrivacyLevel) Valid() bool {
	return l == PrivacyTransparent || l == PrivacyShielded || l == PrivacyCompliant
}

// ShouldEncrypt reports whether transaction details are encrypted at this
// privacy level.
func ShouldEncrypt(level PrivacyLevel) bool {
	return level == PrivacyShielded || level == PrivacyCompliant
}

// ShouldIncludeViewingKey reports whether a viewing key hash accompanies
// the transaction at this privacy level.
func ShouldIncludeViewingKey(level PrivacyLevel) bool {
	return level == PrivacyCompliant
}
