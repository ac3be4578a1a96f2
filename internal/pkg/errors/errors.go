package errors

import "errors"

var (
	// ErrNotFound covers unknown accounts: forgot-password for an email
	// with no user row, or an OTP match whose user row has vanished.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is the single login failure: unknown email and bad
	// password are not distinguishable by the caller.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalid marks missing or malformed request fields.
	ErrInvalid = errors.New("invalid")
	// ErrConflict marks a signup against an already registered email.
	ErrConflict = errors.New("conflict")
	// ErrOtpInvalid covers both "no matching challenge" and "challenge
	// expired"; the ledger purge makes the two indistinguishable anyway.
	ErrOtpInvalid = errors.New("invalid or expired otp")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func IsOtpInvalid(err error) bool {
	return errors.Is(err, ErrOtpInvalid)
}
