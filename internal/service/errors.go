package service

import "errors"

var (
	// ErrValidation marks caller errors: the request was malformed and the
	// operation never started. 400.
	ErrValidation = errors.New("validation")
	// ErrNotFound marks a referenced entity that does not exist. 404.
	ErrNotFound = errors.New("not found")
	// ErrIntegrity marks submitted data that disagrees with authoritative
	// state: unknown product, mismatched total, mismatched payment amount.
	// Never silently corrected. 400.
	ErrIntegrity = errors.New("integrity")
	// ErrProvider marks an upstream payment-provider failure. Terminal for
	// the request, never retried. 502.
	ErrProvider = errors.New("payment provider")
)
