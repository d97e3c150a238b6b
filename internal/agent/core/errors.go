package core

import (
	"errors"
	"fmt"
)

// Failure taxonomy of a check cycle. Every one of them is recoverable: the
// active slot is never touched before a successful commit.
var (
	// ErrOracleUnreachable means the version oracle could not be contacted.
	ErrOracleUnreachable = errors.New("version oracle unreachable")

	// ErrMalformedVersion means the oracle answered with something that is not a version token.
	ErrMalformedVersion = errors.New("malformed target version")

	// ErrTransactionUnavailable means no update transaction could be opened on the inactive slot.
	ErrTransactionUnavailable = errors.New("update transaction unavailable")

	// ErrTransferIO means reading the image or writing the slot failed.
	ErrTransferIO = errors.New("firmware transfer failed")

	// ErrVerificationFailed means the received image is not byte-exact.
	ErrVerificationFailed = errors.New("firmware verification failed")
)

// OracleRejectedError is returned when the oracle answers with a non-2xx status.
type OracleRejectedError struct {
	StatusCode int
}

func (e *OracleRejectedError) Error() string {
	return fmt.Sprintf("version oracle rejected the request with status %d", e.StatusCode)
}

// Reason returns a short machine readable name for err, used in metrics and status reports.
func Reason(err error) string {
	var rejected *OracleRejectedError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &rejected):
		return "oracle_rejected"
	case errors.Is(err, ErrOracleUnreachable):
		return "oracle_unreachable"
	case errors.Is(err, ErrMalformedVersion):
		return "malformed_version"
	case errors.Is(err, ErrTransactionUnavailable):
		return "transaction_unavailable"
	case errors.Is(err, ErrVerificationFailed):
		return "verification_failed"
	case errors.Is(err, ErrTransferIO):
		return "transfer_io"
	default:
		return "unknown"
	}
}
