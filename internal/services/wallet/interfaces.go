package wallet

import (
	"context"

	"orusledger/internal/models"
	"orusledger/internal/repositories"
)

// Service defines the main wallet service interface
type Service interface {
	// Balance mutations
	Credit(ctx context.Context, req MutationRequest) (*MutationResult, error)
	Debit(ctx context.Context, req MutationRequest) (*MutationResult, error)

	// Participating variants run against the tx handed to an
	// ExecuteInTransaction callback and never open their own unit of work.
	CreditTx(ctx context.Context, tx repositories.LedgerRepository, req MutationRequest) (*MutationResult, error)
	DebitTx(ctx context.Context, tx repositories.LedgerRepository, req MutationRequest) (*MutationResult, error)

	// Queries
	GetBalance(ctx context.Context, accountID string) (*Balance, error)
	GetCurrencyBalance(ctx context.Context, accountID string, currency models.Currency) (int64, error)
	GetTransactions(ctx context.Context, accountID string, query TransactionQuery) (*TransactionPage, error)

	Reconcile(ctx context.Context, accountID string) (*ReconcileReport, error)

	// InvalidateBalances drops cached snapshots; callers using the Tx
	// variants invoke it after commit.
	InvalidateBalances(ctx context.Context, accountIDs ...string)
}
