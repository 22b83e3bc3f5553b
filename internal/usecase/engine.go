package usecase

import (
	"fmt"

	"github.com/iho/ledgerproc/internal/domain"
)

// Engine applies ledger entries to accounts.
//
// Transaction ids of deposits and withdrawals are unique across the whole
// store, not just within one client's history. A rejected duplicate does
// not create the account it names; every other entry creates its account
// before validation, even when it is rejected.
type Engine struct{}

// NewEngine creates a new Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Apply applies one entry to the store. On error the store is left exactly
// as it was, except for the lazily created account.
func (e *Engine) Apply(store AccountStore, entry domain.Entry) error {
	if err := e.checkUnique(store, entry); err != nil {
		return err
	}

	account := store.GetOrCreate(entry.ClientID())

	var err error
	switch v := entry.(type) {
	case domain.Deposit:
		account.Deposit(v)
		store.IndexTransaction(v.Tx, v.Client)
	case domain.Withdrawal:
		if err = account.Withdraw(v); err == nil {
			store.IndexTransaction(v.Tx, v.Client)
		}
	case domain.Dispute:
		err = account.Dispute(v.Tx)
	case domain.Resolve:
		err = account.Resolve(v.Tx)
	case domain.Chargeback:
		err = account.Chargeback(v.Tx)
	default:
		err = domain.ErrUnknownKind
	}

	if err != nil {
		return fmt.Errorf("%s client %d tx %d: %w", entry.Kind(), entry.ClientID(), entry.TxID(), err)
	}

	return nil
}

func (e *Engine) checkUnique(store AccountStore, entry domain.Entry) error {
	switch entry.(type) {
	case domain.Deposit, domain.Withdrawal:
		if store.ContainsTransaction(entry.TxID()) {
			return fmt.Errorf("%s client %d tx %d: %w",
				entry.Kind(), entry.ClientID(), entry.TxID(), domain.ErrDuplicateTransactionID)
		}
	}
	return nil
}
