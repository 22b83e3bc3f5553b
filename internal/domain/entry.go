package domain

import (
	"fmt"
	"strings"
)

// ClientID identifies an account.
type ClientID uint16

// TxID identifies a single ledger entry.
type TxID uint32

// Kind is the type of a ledger entry.
type Kind int

const (
	KindDeposit Kind = iota + 1
	KindWithdrawal
	KindDispute
	KindResolve
	KindChargeback
)

var kindNames = map[Kind]string{
	KindDeposit:    "deposit",
	KindWithdrawal: "withdrawal",
	KindDispute:    "dispute",
	KindResolve:    "resolve",
	KindChargeback: "chargeback",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind parses an entry type name, ignoring case and surrounding spaces.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Entry is one decoded ledger instruction. The set of implementations is
// closed: Deposit, Withdrawal, Dispute, Resolve and Chargeback.
type Entry interface {
	Kind() Kind
	ClientID() ClientID
	TxID() TxID

	sealed()
}

type header struct {
	Client ClientID
	Tx     TxID
}

func (h header) ClientID() ClientID { return h.Client }
func (h header) TxID() TxID         { return h.Tx }
func (header) sealed()              {}

// Deposit credits Amount to the client's available funds.
type Deposit struct {
	header
	Amount float64
}

func (Deposit) Kind() Kind { return KindDeposit }

// Withdrawal debits Amount from the client's available funds.
type Withdrawal struct {
	header
	Amount float64
}

func (Withdrawal) Kind() Kind { return KindWithdrawal }

// Dispute claims that the referenced entry was erroneous.
type Dispute struct {
	header
}

func (Dispute) Kind() Kind { return KindDispute }

// Resolve closes an open dispute and releases the held funds.
type Resolve struct {
	header
}

func (Resolve) Kind() Kind { return KindResolve }

// Chargeback closes an open dispute by reversing the referenced entry.
type Chargeback struct {
	header
}

func (Chargeback) Kind() Kind { return KindChargeback }

// NewDeposit creates a deposit entry.
func NewDeposit(client ClientID, tx TxID, amount float64) Deposit {
	return Deposit{header: header{Client: client, Tx: tx}, Amount: amount}
}

// NewWithdrawal creates a withdrawal entry.
func NewWithdrawal(client ClientID, tx TxID, amount float64) Withdrawal {
	return Withdrawal{header: header{Client: client, Tx: tx}, Amount: amount}
}

// NewDispute creates a dispute referencing tx.
func NewDispute(client ClientID, tx TxID) Dispute {
	return Dispute{header: header{Client: client, Tx: tx}}
}

// NewResolve creates a resolve referencing tx.
func NewResolve(client ClientID, tx TxID) Resolve {
	return Resolve{header: header{Client: client, Tx: tx}}
}

// NewChargeback creates a chargeback referencing tx.
func NewChargeback(client ClientID, tx TxID) Chargeback {
	return Chargeback{header: header{Client: client, Tx: tx}}
}

// NewEntry builds an entry from raw fields. Deposits and withdrawals
// require an amount; the other kinds ignore it.
func NewEntry(kind Kind, client ClientID, tx TxID, amount *float64) (Entry, error) {
	switch kind {
	case KindDeposit, KindWithdrawal:
		if amount == nil {
			return nil, fmt.Errorf("%w: %s tx %d", ErrMissingAmount, kind, tx)
		}
		if kind == KindDeposit {
			return NewDeposit(client, tx, *amount), nil
		}
		return NewWithdrawal(client, tx, *amount), nil
	case KindDispute:
		return NewDispute(client, tx), nil
	case KindResolve:
		return NewResolve(client, tx), nil
	case KindChargeback:
		return NewChargeback(client, tx), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
}

// AmountOf returns the amount carried by an entry, if its kind has one.
func AmountOf(e Entry) (float64, bool) {
	switch v := e.(type) {
	case Deposit:
		return v.Amount, true
	case Withdrawal:
		return v.Amount, true
	default:
		return 0, false
	}
}
