package domain

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration         = errors.New("missing required configuration")
	ErrJobFailed             = errors.New("extraction job failed")
	ErrMissingOutput         = errors.New("extraction output missing")
	ErrCorrelation           = errors.New("extraction output correlation failed")
	ErrVerificationTransport = errors.New("verification agent unreachable")
	ErrClaimNotFound         = errors.New("claim not found")
	ErrMemberNotFound        = errors.New("insured member not found")
	ErrPatientNotFound       = errors.New("patient not found")
	ErrInvalidInput          = errors.New("invalid input")
	ErrTemporary             = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// IsTerminalForClaim reports whether an error ends the claim's pipeline run.
// Terminal failures are audited and must not be re-driven by redelivery;
// only a human or the resubmission path restarts the claim.
func IsTerminalForClaim(err error) bool {
	return errors.Is(err, ErrConfiguration) ||
		errors.Is(err, ErrJobFailed) ||
		errors.Is(err, ErrMissingOutput) ||
		errors.Is(err, ErrCorrelation)
}
