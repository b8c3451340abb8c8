package signature

import "errors"

var (
	// ErrAlreadySigned is returned when a contractor already holds a current
	// signature for the contract's current terms
	ErrAlreadySigned = errors.New("contractor already signed the current terms")

	// ErrAlreadyCancelled is returned when cancelling a cancelled signature
	ErrAlreadyCancelled = errors.New("signature is already cancelled")

	// ErrTermsChanged is returned when a signature was given against a terms
	// version the contract has since moved past
	ErrTermsChanged = errors.New("contract terms changed since the signature was requested")
)
