package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/ledgerproc/internal/adapter/repository/memory"
	"github.com/iho/ledgerproc/internal/domain"
	"github.com/iho/ledgerproc/internal/usecase"
)

func snapshot(t *testing.T, store *memory.Store, client domain.ClientID) domain.AccountSnapshot {
	t.Helper()
	acc, ok := store.Get(client)
	require.True(t, ok, "account %d should exist", client)
	return acc.Snapshot()
}

func applyAll(t *testing.T, engine *usecase.Engine, store *memory.Store, entries ...domain.Entry) {
	t.Helper()
	for _, e := range entries {
		require.NoError(t, engine.Apply(store, e), "apply %s tx %d", e.Kind(), e.TxID())
	}
}

func TestEngine_Apply(t *testing.T) {
	tests := []struct {
		name    string
		setup   []domain.Entry
		entry   domain.Entry
		wantErr error
		want    domain.AccountSnapshot
	}{
		{
			name:  "deposit creates account",
			entry: domain.NewDeposit(1, 1, 1.0),
			want:  domain.AccountSnapshot{Client: 1, Available: 1, Total: 1},
		},
		{
			name:  "withdrawal of exact balance",
			setup: []domain.Entry{domain.NewDeposit(1, 1, 2.0)},
			entry: domain.NewWithdrawal(1, 2, 2.0),
			want:  domain.AccountSnapshot{Client: 1},
		},
		{
			name:    "withdrawal from empty account",
			entry:   domain.NewWithdrawal(2, 2, 3.0),
			wantErr: domain.ErrInsufficientFunds,
			want:    domain.AccountSnapshot{Client: 2},
		},
		{
			name:    "withdrawal above available",
			setup:   []domain.Entry{domain.NewDeposit(1, 1, 2.0)},
			entry:   domain.NewWithdrawal(1, 2, 2.5),
			wantErr: domain.ErrInsufficientFunds,
			want:    domain.AccountSnapshot{Client: 1, Available: 2, Total: 2},
		},
		{
			name:    "dispute unknown tx",
			setup:   []domain.Entry{domain.NewDeposit(1, 1, 2.0)},
			entry:   domain.NewDispute(1, 5),
			wantErr: domain.ErrUnknownReference,
			want:    domain.AccountSnapshot{Client: 1, Available: 2, Total: 2},
		},
		{
			name:    "dispute tx of another client",
			setup:   []domain.Entry{domain.NewDeposit(1, 1, 2.0)},
			entry:   domain.NewDispute(3, 1),
			wantErr: domain.ErrUnknownReference,
			want:    domain.AccountSnapshot{Client: 3},
		},
		{
			name:  "dispute holds funds",
			setup: []domain.Entry{domain.NewDeposit(1, 1, 1.0)},
			entry: domain.NewDispute(1, 1),
			want:  domain.AccountSnapshot{Client: 1, Available: 0, Held: 1, Total: 1},
		},
		{
			name:  "resolve releases funds",
			setup: []domain.Entry{domain.NewDeposit(1, 1, 1.0), domain.NewDispute(1, 1)},
			entry: domain.NewResolve(1, 1),
			want:  domain.AccountSnapshot{Client: 1, Available: 1, Held: 0, Total: 1},
		},
		{
			name:    "resolve undisputed tx",
			setup:   []domain.Entry{domain.NewDeposit(1, 1, 1.0)},
			entry:   domain.NewResolve(1, 1),
			wantErr: domain.ErrNotDisputed,
			want:    domain.AccountSnapshot{Client: 1, Available: 1, Total: 1},
		},
		{
			name:    "resolve unknown tx",
			setup:   []domain.Entry{domain.NewDeposit(1, 1, 1.0)},
			entry:   domain.NewResolve(1, 2),
			wantErr: domain.ErrUnknownReference,
			want:    domain.AccountSnapshot{Client: 1, Available: 1, Total: 1},
		},
		{
			name:  "chargeback reverses and locks",
			setup: []domain.Entry{domain.NewDeposit(1, 1, 1.0), domain.NewDispute(1, 1)},
			entry: domain.NewChargeback(1, 1),
			want:  domain.AccountSnapshot{Client: 1, Locked: true},
		},
		{
			name:    "chargeback undisputed tx",
			setup:   []domain.Entry{domain.NewDeposit(1, 1, 1.0)},
			entry:   domain.NewChargeback(1, 1),
			wantErr: domain.ErrNotDisputed,
			want:    domain.AccountSnapshot{Client: 1, Available: 1, Total: 1},
		},
		{
			name:    "chargeback unknown tx",
			setup:   []domain.Entry{domain.NewDeposit(1, 1, 1.0)},
			entry:   domain.NewChargeback(1, 9),
			wantErr: domain.ErrUnknownReference,
			want:    domain.AccountSnapshot{Client: 1, Available: 1, Total: 1},
		},
		{
			name:    "duplicate deposit id for same client",
			setup:   []domain.Entry{domain.NewDeposit(1, 1, 1.0)},
			entry:   domain.NewDeposit(1, 1, 5.0),
			wantErr: domain.ErrDuplicateTransactionID,
			want:    domain.AccountSnapshot{Client: 1, Available: 1, Total: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewStore()
			engine := usecase.NewEngine()
			applyAll(t, engine, store, tt.setup...)

			err := engine.Apply(store, tt.entry)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			got := snapshot(t, store, tt.want.Client)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got.Total, got.Available+got.Held, "total must equal available + held")
		})
	}
}

func TestEngine_GlobalTransactionIDUniqueness(t *testing.T) {
	store := memory.NewStore()
	engine := usecase.NewEngine()

	require.NoError(t, engine.Apply(store, domain.NewDeposit(1, 1, 1.0)))

	err := engine.Apply(store, domain.NewDeposit(2, 1, 1.0))
	assert.ErrorIs(t, err, domain.ErrDuplicateTransactionID)
	_, ok := store.Get(2)
	assert.False(t, ok, "rejected duplicate must not create the account")

	err = engine.Apply(store, domain.NewWithdrawal(3, 1, 1.0))
	assert.ErrorIs(t, err, domain.ErrDuplicateTransactionID)
	_, ok = store.Get(3)
	assert.False(t, ok)

	assert.Equal(t, 1, store.Len())
}

func TestEngine_RejectedWithdrawalDoesNotReserveID(t *testing.T) {
	store := memory.NewStore()
	engine := usecase.NewEngine()

	err := engine.Apply(store, domain.NewWithdrawal(1, 7, 1.0))
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	require.NoError(t, engine.Apply(store, domain.NewDeposit(1, 7, 1.0)))
	assert.Equal(t, domain.AccountSnapshot{Client: 1, Available: 1, Total: 1}, snapshot(t, store, 1))
}

func TestEngine_DisputeReferencesAreNotUniquenessChecked(t *testing.T) {
	store := memory.NewStore()
	engine := usecase.NewEngine()

	applyAll(t, engine, store,
		domain.NewDeposit(1, 1, 3.0),
		domain.NewDispute(1, 1),
		domain.NewResolve(1, 1),
		domain.NewDispute(1, 1),
	)

	assert.Equal(t, domain.AccountSnapshot{Client: 1, Held: 3, Total: 3}, snapshot(t, store, 1))
}

func TestEngine_RepeatedDisputeHoldsAgain(t *testing.T) {
	// A dispute does not check whether the entry is already disputed.
	store := memory.NewStore()
	engine := usecase.NewEngine()

	applyAll(t, engine, store,
		domain.NewDeposit(1, 1, 2.0),
		domain.NewDispute(1, 1),
		domain.NewDispute(1, 1),
	)

	assert.Equal(t, domain.AccountSnapshot{Client: 1, Available: -2, Held: 4, Total: 2}, snapshot(t, store, 1))
}

func TestEngine_LockedAccountStillAcceptsEntries(t *testing.T) {
	store := memory.NewStore()
	engine := usecase.NewEngine()

	applyAll(t, engine, store,
		domain.NewDeposit(1, 1, 5.0),
		domain.NewDeposit(1, 2, 1.0),
		domain.NewDispute(1, 2),
		domain.NewChargeback(1, 2),
	)
	require.True(t, snapshot(t, store, 1).Locked)

	applyAll(t, engine, store,
		domain.NewDeposit(1, 3, 2.0),
		domain.NewWithdrawal(1, 4, 1.0),
		domain.NewDispute(1, 1),
	)

	assert.Equal(t, domain.AccountSnapshot{Client: 1, Available: 1, Held: 5, Total: 6, Locked: true}, snapshot(t, store, 1))
}

func TestEngine_DepositsAndWithdrawalsKeepHeldAtZero(t *testing.T) {
	store := memory.NewStore()
	engine := usecase.NewEngine()

	amounts := []float64{10, 2.5, 7.25, 0.5, 3, 100, 0.125}
	for i, amount := range amounts {
		tx := domain.TxID(i + 1)
		var entry domain.Entry = domain.NewDeposit(1, tx, amount)
		if i%2 == 1 {
			entry = domain.NewWithdrawal(1, tx, amount)
		}
		_ = engine.Apply(store, entry)

		got := snapshot(t, store, 1)
		assert.Zero(t, got.Held)
		assert.Equal(t, got.Total, got.Available+got.Held)
		assert.GreaterOrEqual(t, got.Available, 0.0)
	}
}

func TestEngine_ReplayIsDeterministic(t *testing.T) {
	entries := []domain.Entry{
		domain.NewDeposit(1, 1, 1.0),
		domain.NewWithdrawal(2, 2, 3.0),
		domain.NewDeposit(2, 3, 4.0),
		domain.NewDispute(2, 3),
		domain.NewDeposit(3, 4, 1.5),
		domain.NewResolve(2, 3),
		domain.NewDispute(1, 1),
		domain.NewChargeback(1, 1),
		domain.NewDeposit(2, 1, 9.0),
	}

	run := func() []domain.AccountSnapshot {
		store := memory.NewStore()
		engine := usecase.NewEngine()
		for _, e := range entries {
			_ = engine.Apply(store, e)
		}
		return store.Snapshots()
	}

	assert.ElementsMatch(t, run(), run())
}

func TestEngine_ReferenceScenario(t *testing.T) {
	t.Run("withdrawal from unfunded account", func(t *testing.T) {
		store := memory.NewStore()
		engine := usecase.NewEngine()

		require.NoError(t, engine.Apply(store, domain.NewDeposit(1, 1, 1.0)))
		err := engine.Apply(store, domain.NewWithdrawal(2, 2, 3.0))
		assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
		assert.Zero(t, snapshot(t, store, 2).Total)
	})

	t.Run("dispute then resolve", func(t *testing.T) {
		store := memory.NewStore()
		engine := usecase.NewEngine()

		applyAll(t, engine, store, domain.NewDeposit(1, 1, 1.0), domain.NewDispute(1, 1))
		assert.Equal(t, domain.AccountSnapshot{Client: 1, Available: 0, Held: 1, Total: 1}, snapshot(t, store, 1))

		applyAll(t, engine, store, domain.NewResolve(1, 1))
		assert.Equal(t, domain.AccountSnapshot{Client: 1, Available: 1, Held: 0, Total: 1}, snapshot(t, store, 1))
	})

	t.Run("dispute then chargeback", func(t *testing.T) {
		store := memory.NewStore()
		engine := usecase.NewEngine()

		applyAll(t, engine, store,
			domain.NewDeposit(1, 1, 1.0),
			domain.NewDispute(1, 1),
			domain.NewChargeback(1, 1),
		)
		assert.Equal(t, domain.AccountSnapshot{Client: 1, Locked: true}, snapshot(t, store, 1))
	})
}
