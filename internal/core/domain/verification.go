package domain

import "time"

const (
	// VerificationCodeLength is the number of decimal digits in a code.
	VerificationCodeLength = 6

	DefaultCodeTTL     = 5 * time.Minute
	DefaultCodeWindow  = time.Minute
	DefaultCodeLimit   = 3
	DefaultAddressName = "valued customer"
)

// CodePolicy bounds issuance per address.
type CodePolicy struct {
	TTL    time.Duration // lifetime of a single code
	Window time.Duration // fixed rate-limit window
	Limit  int           // codes allowed per window
}

// DefaultCodePolicy returns the policy used when none is configured.
func DefaultCodePolicy() CodePolicy {
	return CodePolicy{TTL: DefaultCodeTTL, Window: DefaultCodeWindow, Limit: DefaultCodeLimit}
}
