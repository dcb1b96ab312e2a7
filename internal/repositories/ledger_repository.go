package repositories

import (
	"context"
	"errors"

	"orusledger/internal/models"
)

var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrDuplicateAccount     = errors.New("account already exists")
	ErrDuplicateCode        = errors.New("referral code already taken")
	ErrBalanceTooLow        = errors.New("balance lower than requested amount")
	ErrReferralNotFound     = errors.New("referral not found")
	ErrDuplicateReferral    = errors.New("referee already has a referral")
	ErrInvalidEntry         = errors.New("invalid ledger entry")
	ErrUnsupportedStoreKind = errors.New("unsupported store driver")

	// ErrTransactionUnsupported is returned by ExecuteInTransaction when the
	// backing store cannot run multi-statement units of work. Nothing inside
	// the callback has been committed when it is returned.
	ErrTransactionUnsupported = errors.New("transactions are not supported by this store")
)

// LedgerRepository persists accounts, the append-only ledger and referral
// records. Implementations never update or delete ledger entries.
type LedgerRepository interface {
	// Accounts
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	GetAccountByReferralCode(ctx context.Context, code string) (*models.Account, error)

	// IncrementBalance adds amount to the currency's balance and returns
	// the updated account.
	IncrementBalance(ctx context.Context, accountID string, currency models.Currency, amount int64) (*models.Account, error)

	// DecrementBalance subtracts amount only where the balance is at least
	// amount, as one conditional update. ErrBalanceTooLow when no row matched.
	DecrementBalance(ctx context.Context, accountID string, currency models.Currency, amount int64) (*models.Account, error)

	// Ledger
	AppendEntry(ctx context.Context, entry *models.LedgerEntry) error
	ListEntries(ctx context.Context, accountID string, filter models.EntryFilter, limit, offset int) ([]models.LedgerEntry, int64, error)
	SumEntries(ctx context.Context, accountID string, currency models.Currency) (int64, error)

	// Referrals
	CreateReferral(ctx context.Context, referral *models.Referral) error
	GetReferralByReferee(ctx context.Context, refereeID string) (*models.Referral, error)
	GetReferralByCodeAndReferee(ctx context.Context, code, refereeID string) (*models.Referral, error)
	CountReferralsByReferrer(ctx context.Context, referrerID string) (int64, error)

	// ExecuteInTransaction runs fn in one unit of work. fn must use the ctx
	// and repository it is handed. Returns ErrTransactionUnsupported when
	// the store cannot open one.
	ExecuteInTransaction(ctx context.Context, fn func(ctx context.Context, tx LedgerRepository) error) error
}
