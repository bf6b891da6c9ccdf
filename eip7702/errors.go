package eip7702

import "errors"

var (
	// ErrEncoding is returned when a value cannot be RLP encoded or decoded.
	ErrEncoding = errors.New("encoding failure")

	// ErrSigning is returned when no recoverable signature can be produced.
	ErrSigning = errors.New("signing failure")

	// ErrAuthSigning wraps signing failures of authorization tuples.
	ErrAuthSigning = errors.New("authorization signing failure")

	// ErrTxSigning wraps signing failures of transactions.
	ErrTxSigning = errors.New("transaction signing failure")

	// ErrInvalidSignature is returned when a signature does not recover.
	ErrInvalidSignature = errors.New("invalid signature")
)
