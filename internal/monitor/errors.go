package monitor

import "errors"

var (
	// ErrOracleUnavailable wraps a failed read from the external balance
	// source. Transient; the engine does not retry, the caller decides.
	ErrOracleUnavailable = errors.New("balance oracle unavailable")

	// ErrUserNotFound means the address has no ledger record to credit.
	ErrUserNotFound = errors.New("user not found")

	// ErrLedgerWrite means a detected deposit could not be persisted this
	// cycle. The snapshot cache is not advanced past the unapplied delta.
	ErrLedgerWrite = errors.New("ledger write failed")

	// ErrInvalidAddress rejects an empty or malformed wallet address
	// before any I/O happens.
	ErrInvalidAddress = errors.New("invalid wallet address")
)
