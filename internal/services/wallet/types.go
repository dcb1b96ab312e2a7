package wallet

import (
	"context"
	"log/slog"
	"time"

	"orusledger/internal/models"
)

// MutationRequest describes one credit or debit.
type MutationRequest struct {
	AccountID string
	Amount    int64
	Currency  models.Currency
	Source    string
	Metadata  map[string]interface{}
}

// MutationResult is the outcome of an applied mutation.
type MutationResult struct {
	NewBalance int64
	Account    *models.Account
	Entry      models.LedgerEntry
}

// Balance holds both snapshots of an account.
type Balance struct {
	AccountID string
	Money     int64
	Coins     int64
}

// Of returns the snapshot for one currency.
func (b *Balance) Of(c models.Currency) int64 {
	if c == models.CurrencyMoney {
		return b.Money
	}
	return b.Coins
}

// TransactionQuery selects one page of history. Zero values mean defaults.
type TransactionQuery struct {
	Page      int
	Limit     int
	Direction models.Direction
	Currency  models.Currency
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// TransactionPage is a newest-first page of ledger entries.
type TransactionPage struct {
	Entries    []models.LedgerEntry
	Pagination Pagination
}

// CurrencyReconciliation compares the snapshot of one currency with the
// ledger's signed sum.
type CurrencyReconciliation struct {
	Snapshot int64 `json:"snapshot"`
	Ledger   int64 `json:"ledger"`
	Drift    int64 `json:"drift"`
}

// ReconcileReport is per-account drift between snapshots and entries.
type ReconcileReport struct {
	AccountID string                 `json:"account_id"`
	Money     CurrencyReconciliation `json:"money"`
	Coins     CurrencyReconciliation `json:"coins"`
}

// Consistent reports whether both currencies agree with the ledger.
func (r *ReconcileReport) Consistent() bool {
	return r.Money.Drift == 0 && r.Coins.Drift == 0
}

// WalletConfig holds configuration for wallet operations
type WalletConfig struct {
	DefaultPageSize int
	MaxPageSize     int
	Logger          *slog.Logger
}

// MetricsCollector defines the interface for collecting wallet metrics
type MetricsCollector interface {
	// Operation metrics
	RecordOperationDuration(operation string, duration time.Duration)

	// Cache metrics
	RecordCacheHit(key string)
	RecordCacheMiss(key string)

	// Ledger metrics
	RecordMutation(direction models.Direction, currency models.Currency, amount int64)
	RecordFallback(operation string)

	// Error metrics
	RecordError(operation, errType string)
}

// BalanceCache is the read-through cache for balance snapshots.
type BalanceCache interface {
	GetBalance(ctx context.Context, accountID string) (*models.Account, error)
	SetBalance(ctx context.Context, account *models.Account) error
	InvalidateBalance(ctx context.Context, accountIDs ...string) error
}
