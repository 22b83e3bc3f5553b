package domain

import "errors"

var (
	// Entry errors
	ErrMissingAmount = errors.New("amount is required for deposits and withdrawals")
	ErrUnknownKind   = errors.New("unknown entry type")

	// Account errors
	ErrInsufficientFunds = errors.New("insufficient available funds")

	// Dispute lifecycle errors
	ErrUnknownReference = errors.New("referenced transaction not found for client")
	ErrNotDisputed      = errors.New("referenced transaction is not disputed")

	// Ledger errors
	ErrDuplicateTransactionID = errors.New("transaction id already exists")
)

// Rejection reasons used as log fields and metric labels.
const (
	ReasonMissingAmount     = "missing_amount"
	ReasonUnknownKind       = "unknown_kind"
	ReasonInsufficientFunds = "insufficient_funds"
	ReasonUnknownReference  = "unknown_reference"
	ReasonNotDisputed       = "not_disputed"
	ReasonDuplicateTxID     = "duplicate_transaction_id"
	ReasonDecodeError       = "decode_error"
	ReasonUnknown           = "unknown"
)

// Reason maps an error to a stable, low-cardinality label.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingAmount):
		return ReasonMissingAmount
	case errors.Is(err, ErrUnknownKind):
		return ReasonUnknownKind
	case errors.Is(err, ErrInsufficientFunds):
		return ReasonInsufficientFunds
	case errors.Is(err, ErrUnknownReference):
		return ReasonUnknownReference
	case errors.Is(err, ErrNotDisputed):
		return ReasonNotDisputed
	case errors.Is(err, ErrDuplicateTransactionID):
		return ReasonDuplicateTxID
	default:
		return ReasonUnknown
	}
}
