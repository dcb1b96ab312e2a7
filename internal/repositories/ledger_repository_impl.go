package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"orusledger/internal/models"

	"gorm.io/gorm"
)

type ledgerRepository struct {
	db            *gorm.DB
	transactional bool
	inTx          bool
}

// NewLedgerRepository returns a gorm-backed LedgerRepository. With
// transactional false, ExecuteInTransaction reports ErrTransactionUnsupported
// and callers run their steps one by one.
func NewLedgerRepository(db *gorm.DB, transactional bool) LedgerRepository {
	return &ledgerRepository{
		db:            db,
		transactional: transactional,
	}
}

// Migrate creates or updates the ledger tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Account{},
		&models.LedgerEntry{},
		&models.Referral{},
	)
}

func (r *ledgerRepository) CreateAccount(ctx context.Context, account *models.Account) error {
	err := r.db.WithContext(ctx).Create(account).Error
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		var count int64
		if cerr := r.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", account.ID).Count(&count).Error; cerr == nil && count > 0 {
			return ErrDuplicateAccount
		}
		return ErrDuplicateCode
	}
	return fmt.Errorf("failed to create account: %w", err)
}

func (r *ledgerRepository) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

func (r *ledgerRepository) GetAccountByReferralCode(ctx context.Context, code string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("referral_code = ?", code).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account by referral code: %w", err)
	}
	return &account, nil
}

func (r *ledgerRepository) IncrementBalance(ctx context.Context, accountID string, currency models.Currency, amount int64) (*models.Account, error) {
	col := currency.BalanceColumn()
	result := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", accountID).
		Updates(map[string]interface{}{
			col:          gorm.Expr(col+" + ?", amount),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to increment %s: %w", col, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrAccountNotFound
	}
	return r.GetAccount(ctx, accountID)
}

func (r *ledgerRepository) DecrementBalance(ctx context.Context, accountID string, currency models.Currency, amount int64) (*models.Account, error) {
	col := currency.BalanceColumn()
	result := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ? AND "+col+" >= ?", accountID, amount).
		Updates(map[string]interface{}{
			col:          gorm.Expr(col+" - ?", amount),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to decrement %s: %w", col, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrBalanceTooLow
	}
	return r.GetAccount(ctx, accountID)
}

func (r *ledgerRepository) AppendEntry(ctx context.Context, entry *models.LedgerEntry) error {
	if entry.ID == "" || entry.Amount <= 0 {
		return ErrInvalidEntry
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

func (r *ledgerRepository) ListEntries(ctx context.Context, accountID string, filter models.EntryFilter, limit, offset int) ([]models.LedgerEntry, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.LedgerEntry{}).Where("account_id = ?", accountID)
	if filter.Direction != "" {
		query = query.Where("direction = ?", filter.Direction)
	}
	if filter.Currency != "" {
		query = query.Where("currency = ?", filter.Currency)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}

	entries := make([]models.LedgerEntry, 0, limit)
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	return entries, total, nil
}

func (r *ledgerRepository) SumEntries(ctx context.Context, accountID string, currency models.Currency) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("account_id = ? AND currency = ?", accountID, currency).
		Select("COALESCE(SUM(CASE WHEN direction = ? THEN amount ELSE -amount END), 0)", models.DirectionCredit).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum ledger entries: %w", err)
	}
	return total, nil
}

func (r *ledgerRepository) CreateReferral(ctx context.Context, referral *models.Referral) error {
	err := r.db.WithContext(ctx).Create(referral).Error
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateReferral
	}
	return fmt.Errorf("failed to create referral: %w", err)
}

func (r *ledgerRepository) GetReferralByReferee(ctx context.Context, refereeID string) (*models.Referral, error) {
	var referral models.Referral
	if err := r.db.WithContext(ctx).Where("referee_id = ?", refereeID).First(&referral).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReferralNotFound
		}
		return nil, fmt.Errorf("failed to get referral: %w", err)
	}
	return &referral, nil
}

func (r *ledgerRepository) GetReferralByCodeAndReferee(ctx context.Context, code, refereeID string) (*models.Referral, error) {
	var referral models.Referral
	if err := r.db.WithContext(ctx).Where("code = ? AND referee_id = ?", code, refereeID).First(&referral).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReferralNotFound
		}
		return nil, fmt.Errorf("failed to get referral: %w", err)
	}
	return &referral, nil
}

func (r *ledgerRepository) CountReferralsByReferrer(ctx context.Context, referrerID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Referral{}).Where("referrer_id = ?", referrerID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count referrals: %w", err)
	}
	return count, nil
}

func (r *ledgerRepository) ExecuteInTransaction(ctx context.Context, fn func(ctx context.Context, tx LedgerRepository) error) error {
	if !r.transactional {
		return ErrTransactionUnsupported
	}
	if r.inTx {
		// Already inside a unit of work: join it.
		return fn(ctx, r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &ledgerRepository{db: tx, transactional: true, inTx: true}
		return fn(ctx, txRepo)
	})
}
