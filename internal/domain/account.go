package domain

// Account is the per-client balance record. Total always equals
// Available + Held after a successful mutation.
type Account struct {
	ID        ClientID
	Available float64
	Held      float64
	Total     float64
	Locked    bool

	// history keeps every deposit and withdrawal so it can be disputed later.
	history map[TxID]*record
}

type record struct {
	disputed bool
	amount   float64
}

// AccountSnapshot is the externally visible state of an account.
type AccountSnapshot struct {
	Client    ClientID
	Available float64
	Held      float64
	Total     float64
	Locked    bool
}

// NewAccount creates an empty, unlocked account.
func NewAccount(id ClientID) *Account {
	return &Account{
		ID:      id,
		history: make(map[TxID]*record),
	}
}

// Deposit credits amount and records the entry under its tx id.
func (a *Account) Deposit(d Deposit) {
	a.history[d.Tx] = &record{amount: d.Amount}
	a.Available += d.Amount
	a.Total += d.Amount
}

// ValidateWithdrawal checks that available funds cover amount.
// A resulting balance of exactly zero is allowed.
func (a *Account) ValidateWithdrawal(amount float64) error {
	if a.Available-amount < 0 {
		return ErrInsufficientFunds
	}
	return nil
}

// Withdraw debits amount and records the entry under its tx id.
func (a *Account) Withdraw(w Withdrawal) error {
	if err := a.ValidateWithdrawal(w.Amount); err != nil {
		return err
	}
	a.history[w.Tx] = &record{amount: w.Amount}
	a.Available -= w.Amount
	a.Total -= w.Amount
	return nil
}

// Dispute moves the referenced amount from available to held.
func (a *Account) Dispute(tx TxID) error {
	rec, ok := a.history[tx]
	if !ok {
		return ErrUnknownReference
	}
	rec.disputed = true
	a.Available -= rec.amount
	a.Held += rec.amount
	return nil
}

// Resolve releases the held amount of a disputed entry back to available.
func (a *Account) Resolve(tx TxID) error {
	rec, err := a.disputedRecord(tx)
	if err != nil {
		return err
	}
	rec.disputed = false
	a.Available += rec.amount
	a.Held -= rec.amount
	return nil
}

// Chargeback removes the held amount of a disputed entry and locks the account.
func (a *Account) Chargeback(tx TxID) error {
	rec, err := a.disputedRecord(tx)
	if err != nil {
		return err
	}
	rec.disputed = false
	a.Total -= rec.amount
	a.Held -= rec.amount
	a.Locked = true
	return nil
}

func (a *Account) disputedRecord(tx TxID) (*record, error) {
	rec, ok := a.history[tx]
	if !ok {
		return nil, ErrUnknownReference
	}
	if !rec.disputed {
		return nil, ErrNotDisputed
	}
	return rec, nil
}

// HasTransaction reports whether tx is in this account's history.
func (a *Account) HasTransaction(tx TxID) bool {
	_, ok := a.history[tx]
	return ok
}

// IsDisputed reports whether tx is known and currently disputed.
func (a *Account) IsDisputed(tx TxID) bool {
	rec, ok := a.history[tx]
	return ok && rec.disputed
}

// Snapshot returns a copy of the account balances.
func (a *Account) Snapshot() AccountSnapshot {
	return AccountSnapshot{
		Client:    a.ID,
		Available: a.Available,
		Held:      a.Held,
		Total:     a.Total,
		Locked:    a.Locked,
	}
}
