package memory

import (
	"github.com/iho/ledgerproc/internal/domain"
	"github.com/iho/ledgerproc/internal/usecase"
)

// Store implements usecase.AccountStore in memory. Accounts are created on
// first reference and never removed. It is not safe for concurrent use; a
// pipeline run owns it exclusively.
type Store struct {
	accounts map[domain.ClientID]*domain.Account
	// txIndex holds every recorded deposit/withdrawal id.
	txIndex map[domain.TxID]domain.ClientID
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		accounts: make(map[domain.ClientID]*domain.Account),
		txIndex:  make(map[domain.TxID]domain.ClientID),
	}
}

// GetOrCreate returns the account for id, creating it if absent.
func (s *Store) GetOrCreate(id domain.ClientID) *domain.Account {
	if acc, ok := s.accounts[id]; ok {
		return acc
	}
	acc := domain.NewAccount(id)
	s.accounts[id] = acc
	return acc
}

// Get returns the account for id if it exists.
func (s *Store) Get(id domain.ClientID) (*domain.Account, bool) {
	acc, ok := s.accounts[id]
	return acc, ok
}

// ContainsTransaction reports whether tx was recorded by any account.
func (s *Store) ContainsTransaction(tx domain.TxID) bool {
	_, ok := s.txIndex[tx]
	return ok
}

// IndexTransaction records tx as owned by client.
func (s *Store) IndexTransaction(tx domain.TxID, client domain.ClientID) {
	s.txIndex[tx] = client
}

// Snapshots returns the balances of all accounts in unspecified order.
func (s *Store) Snapshots() []domain.AccountSnapshot {
	result := make([]domain.AccountSnapshot, 0, len(s.accounts))
	for _, acc := range s.accounts {
		result = append(result, acc.Snapshot())
	}
	return result
}

// Len returns the number of accounts.
func (s *Store) Len() int {
	return len(s.accounts)
}

var _ usecase.AccountStore = (*Store)(nil)
