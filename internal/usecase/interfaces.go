package usecase

import (
	"github.com/iho/ledgerproc/internal/domain"
)

// AccountStore holds the accounts of one pipeline run. It is owned by a
// single goroutine and is not safe for concurrent use.
type AccountStore interface {
	// GetOrCreate returns the account for id, creating an empty one if absent.
	GetOrCreate(id domain.ClientID) *domain.Account
	Get(id domain.ClientID) (*domain.Account, bool)
	// ContainsTransaction reports whether any account has tx in its history.
	ContainsTransaction(tx domain.TxID) bool
	// IndexTransaction records that tx now belongs to client.
	IndexTransaction(tx domain.TxID, client domain.ClientID)
	Len() int
}

// EntrySource yields decoded entries in input order. Next returns io.EOF
// once the input is exhausted. Errors wrapping a SkippableError are
// per-row failures; any other error ends the run.
type EntrySource interface {
	Next() (domain.Entry, error)
}

// SkippableError marks a per-row decode failure that must not stop ingestion.
type SkippableError interface {
	error
	Skippable() bool
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}
