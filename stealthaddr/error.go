// Copyright (c) 2024 The btclib developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package stealthaddr

import "errors"

// ErrorKind identifies a kind of error.
type ErrorKind string

// These constants are used to identify a specific ErrorKind.
const (
	// ErrTruncatedAddress indicates a stealth address payload ended before
	// all of the fields described by its header bytes could be read.
	ErrTruncatedAddress = ErrorKind("ErrTruncatedAddress")

	// ErrInvalidScanPubKey indicates the scan public key of a stealth
	// address is not a valid secp256k1 public key.
	ErrInvalidScanPubKey = ErrorKind("ErrInvalidScanPubKey")

	// ErrInvalidSpendPubKey indicates a spend public key of a stealth
	// address is not a valid secp256k1 public key.
	ErrInvalidSpendPubKey = ErrorKind("ErrInvalidSpendPubKey")

	// ErrUncompressedPubKey indicates an attempt to construct a stealth
	// address with a public key that is not in the compressed format.
	ErrUncompressedPubKey = ErrorKind("ErrUncompressedPubKey")

	// ErrUnsortedSpendPubKeys indicates the spend public keys of a stealth
	// address are not in canonical sorted order.
	ErrUnsortedSpendPubKeys = ErrorKind("ErrUnsortedSpendPubKeys")

	// ErrDuplicateSpendPubKey indicates a stealth address contains the
	// same spend public key more than once, including the case where the
	// scan public key is reused for spending and also appears in the spend
	// public key list.
	ErrDuplicateSpendPubKey = ErrorKind("ErrDuplicateSpendPubKey")

	// ErrNoSpendPubKeys indicates a stealth address does not provide any
	// public keys to spend to.
	ErrNoSpendPubKeys = ErrorKind("ErrNoSpendPubKeys")

	// ErrTooManySpendPubKeys indicates a stealth address provides more
	// spend public keys than the maximum allowed by the 520-byte script
	// element limit.
	ErrTooManySpendPubKeys = ErrorKind("ErrTooManySpendPubKeys")

	// ErrInvalidSigCount indicates the number of required signatures of a
	// stealth address is not in the range 0 < n <= number of spend public
	// keys.
	ErrInvalidSigCount = ErrorKind("ErrInvalidSigCount")

	// ErrWrongNetwork indicates a stealth address string decoded to a
	// version byte which does not match the expected network
	// identifier.
	ErrWrongNetwork = ErrorKind("ErrWrongNetwork")

	// ErrMalformedSecret indicates a scan secret bundle does not contain a
	// full 32-byte secret key.
	ErrMalformedSecret = ErrorKind("ErrMalformedSecret")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}

// Error identifies a stealth address related error.  It has full support for
// errors.Is and errors.As, so the caller can ascertain the specific reason
// for the error by checking the underlying error.
type Error struct {
	Err         error
	Description string
}

// Error satisfies the error interface and prints human-readable errors.
func (e Error) Error() string {
	return e.Description
}

// Unwrap returns the underlying wrapped error.
func (e Error) Unwrap() error {
	return e.Err
}

// makeError creates an Error given a set of arguments.
func makeError(kind ErrorKind, desc string) Error {
	return Error{Err: kind, Description: desc}
}

// IsErrorKind returns whether or not the provided error is an error with the
// provided error kind.
func IsErrorKind(err error, kind ErrorKind) bool {
	var kerr ErrorKind
	return errors.As(err, &kerr) && kerr == kind
}
