package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	apperrors "orusledger/internal/errors"
	"orusledger/internal/models"
	"orusledger/internal/repositories"
	"orusledger/internal/repositories/cache"

	"github.com/google/uuid"
)

type service struct {
	repo    repositories.LedgerRepository
	cache   BalanceCache
	config  WalletConfig
	metrics MetricsCollector
	logger  *slog.Logger
	now     func() time.Time

	// generations counts invalidations per account (*atomic.Uint64).
	generations sync.Map
}

// NewService creates a new wallet service
func NewService(
	repo repositories.LedgerRepository,
	balanceCache BalanceCache,
	config WalletConfig,
	metrics MetricsCollector,
) Service {
	if repo == nil {
		panic("repo is required")
	}

	// Cache is optional, snapshots are then always read from the store
	if balanceCache == nil {
		balanceCache = cache.NoopCache{}
	}
	if config.DefaultPageSize <= 0 {
		config.DefaultPageSize = DefaultPageSize
	}
	if config.MaxPageSize <= 0 {
		config.MaxPageSize = MaxPageSize
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	// Metrics is optional, create no-op collector if nil
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}

	return &service{
		repo:    repo,
		cache:   balanceCache,
		config:  config,
		metrics: metrics,
		logger:  config.Logger.With("component", "wallet"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) Credit(ctx context.Context, req MutationRequest) (*MutationResult, error) {
	return s.mutate(ctx, nil, models.DirectionCredit, req)
}

func (s *service) Debit(ctx context.Context, req MutationRequest) (*MutationResult, error) {
	return s.mutate(ctx, nil, models.DirectionDebit, req)
}

func (s *service) CreditTx(ctx context.Context, tx repositories.LedgerRepository, req MutationRequest) (*MutationResult, error) {
	if tx == nil {
		return nil, errors.New("wallet: nil unit of work")
	}
	return s.mutate(ctx, tx, models.DirectionCredit, req)
}

func (s *service) DebitTx(ctx context.Context, tx repositories.LedgerRepository, req MutationRequest) (*MutationResult, error) {
	if tx == nil {
		return nil, errors.New("wallet: nil unit of work")
	}
	return s.mutate(ctx, tx, models.DirectionDebit, req)
}

// mutate validates req and applies it. A nil tx opens a unit of work on
// s.repo, falling back to sequential steps when the store has none.
func (s *service) mutate(ctx context.Context, tx repositories.LedgerRepository, direction models.Direction, req MutationRequest) (*MutationResult, error) {
	op := OpCredit
	if direction == models.DirectionDebit {
		op = OpDebit
	}
	start := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(op, time.Since(start))
	}()

	if err := validateRequest(req); err != nil {
		s.metrics.RecordError(op, errorCode(err))
		return nil, err
	}

	var result *MutationResult
	apply := func(ctx context.Context, repo repositories.LedgerRepository) error {
		res, err := s.apply(ctx, repo, direction, req)
		if err != nil {
			return err
		}
		result = res
		return nil
	}

	if tx != nil {
		if err := apply(ctx, tx); err != nil {
			s.metrics.RecordError(op, errorCode(err))
			return nil, err
		}
		s.metrics.RecordMutation(direction, req.Currency, req.Amount)
		return result, nil
	}

	fellBack, err := repositories.ExecuteWithFallback(ctx, s.repo, apply)
	if fellBack {
		s.metrics.RecordFallback(op)
		s.logger.WarnContext(ctx, "store has no transactions, applied mutation step by step",
			"operation", op,
			"account_id", req.AccountID,
			"currency", req.Currency,
		)
	}
	if err != nil {
		s.metrics.RecordError(op, errorCode(err))
		return nil, err
	}

	s.InvalidateBalances(ctx, req.AccountID)
	s.metrics.RecordMutation(direction, req.Currency, req.Amount)
	return result, nil
}

// apply runs the balance step then the ledger append against repo.
func (s *service) apply(ctx context.Context, repo repositories.LedgerRepository, direction models.Direction, req MutationRequest) (*MutationResult, error) {
	var (
		account *models.Account
		err     error
	)
	switch direction {
	case models.DirectionCredit:
		account, err = repo.IncrementBalance(ctx, req.AccountID, req.Currency, req.Amount)
	case models.DirectionDebit:
		account, err = s.debitBalance(ctx, repo, req)
	default:
		return nil, apperrors.ErrInvalidDirection
	}
	if err != nil {
		return nil, translateError(err)
	}

	entry := models.LedgerEntry{
		ID:        uuid.Must(uuid.NewV7()).String(),
		AccountID: req.AccountID,
		Direction: direction,
		Currency:  req.Currency,
		Amount:    req.Amount,
		Source:    req.Source,
		Metadata:  models.NewJSON(req.Metadata),
		CreatedAt: s.now(),
	}
	if err := repo.AppendEntry(ctx, &entry); err != nil {
		// Outside a transaction the snapshot is now ahead of the
		// ledger until Reconcile reports it.
		s.logger.ErrorContext(ctx, "ledger append failed after balance update",
			"account_id", req.AccountID,
			"direction", direction,
			"currency", req.Currency,
			"amount", req.Amount,
			"error", err,
		)
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	return &MutationResult{
		NewBalance: account.BalanceOf(req.Currency),
		Account:    account,
		Entry:      entry,
	}, nil
}

func (s *service) debitBalance(ctx context.Context, repo repositories.LedgerRepository, req MutationRequest) (*models.Account, error) {
	account, err := repo.GetAccount(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}
	if account.BalanceOf(req.Currency) < req.Amount {
		return nil, apperrors.ErrInsufficientFunds
	}
	// The read above is advisory; the conditional update arbitrates races.
	return repo.DecrementBalance(ctx, req.AccountID, req.Currency, req.Amount)
}

func (s *service) GetBalance(ctx context.Context, accountID string) (*Balance, error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(OpGetBalance, time.Since(start))
	}()

	account, err := s.snapshot(ctx, accountID)
	if err != nil {
		s.metrics.RecordError(OpGetBalance, errorCode(err))
		return nil, err
	}
	return &Balance{
		AccountID: account.ID,
		Money:     account.MoneyBalance,
		Coins:     account.CoinsBalance,
	}, nil
}

func (s *service) GetCurrencyBalance(ctx context.Context, accountID string, currency models.Currency) (int64, error) {
	if !currency.Valid() {
		return 0, apperrors.ErrInvalidCurrency
	}
	balance, err := s.GetBalance(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return balance.Of(currency), nil
}

// snapshot reads through the cache.
func (s *service) snapshot(ctx context.Context, accountID string) (*models.Account, error) {
	account, err := s.cache.GetBalance(ctx, accountID)
	if err == nil {
		s.metrics.RecordCacheHit(OpGetBalance)
		return account, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.WarnContext(ctx, "balance cache read failed", "account_id", accountID, "error", err)
	}
	s.metrics.RecordCacheMiss(OpGetBalance)

	gen := s.generation(accountID)
	observed := gen.Load()
	account, err = s.repo.GetAccount(ctx, accountID)
	if err != nil {
		return nil, translateError(err)
	}
	if err := s.cache.SetBalance(ctx, account); err != nil {
		s.logger.WarnContext(ctx, "balance cache write failed", "account_id", accountID, "error", err)
		return account, nil
	}
	// A mutation committed while we read; what we just cached may predate it.
	// Invalidators bump before deleting, so either they or we remove it.
	if gen.Load() != observed {
		if err := s.cache.InvalidateBalance(ctx, accountID); err != nil {
			s.logger.WarnContext(ctx, "balance cache invalidation failed", "account_ids", []string{accountID}, "error", err)
		}
	}
	return account, nil
}

func (s *service) generation(accountID string) *atomic.Uint64 {
	if g, ok := s.generations.Load(accountID); ok {
		return g.(*atomic.Uint64)
	}
	g, _ := s.generations.LoadOrStore(accountID, new(atomic.Uint64))
	return g.(*atomic.Uint64)
}

func (s *service) GetTransactions(ctx context.Context, accountID string, query TransactionQuery) (*TransactionPage, error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(OpTransactions, time.Since(start))
	}()

	if query.Direction != "" && !query.Direction.Valid() {
		return nil, apperrors.ErrInvalidDirection
	}
	if query.Currency != "" && !query.Currency.Valid() {
		return nil, apperrors.ErrInvalidCurrency
	}

	page, limit := s.normalizePage(query.Page, query.Limit)

	if _, err := s.repo.GetAccount(ctx, accountID); err != nil {
		return nil, translateError(err)
	}

	filter := models.EntryFilter{Direction: query.Direction, Currency: query.Currency}
	entries, total, err := s.repo.ListEntries(ctx, accountID, filter, limit, (page-1)*limit)
	if err != nil {
		s.metrics.RecordError(OpTransactions, errorCode(err))
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}

	return &TransactionPage{
		Entries: entries,
		Pagination: Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: int((total + int64(limit) - 1) / int64(limit)),
		},
	}, nil
}

func (s *service) normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = s.config.DefaultPageSize
	}
	if limit > s.config.MaxPageSize {
		limit = s.config.MaxPageSize
	}
	return page, limit
}

func (s *service) Reconcile(ctx context.Context, accountID string) (*ReconcileReport, error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(OpReconcile, time.Since(start))
	}()

	account, err := s.repo.GetAccount(ctx, accountID)
	if err != nil {
		return nil, translateError(err)
	}

	report := &ReconcileReport{AccountID: account.ID}
	for _, c := range []struct {
		currency models.Currency
		out      *CurrencyReconciliation
	}{
		{models.CurrencyMoney, &report.Money},
		{models.CurrencyCoins, &report.Coins},
	} {
		sum, err := s.repo.SumEntries(ctx, accountID, c.currency)
		if err != nil {
			return nil, fmt.Errorf("failed to sum %s entries: %w", c.currency, err)
		}
		snapshot := account.BalanceOf(c.currency)
		*c.out = CurrencyReconciliation{
			Snapshot: snapshot,
			Ledger:   sum,
			Drift:    snapshot - sum,
		}
	}

	if !report.Consistent() {
		s.logger.WarnContext(ctx, "balance drift detected",
			"account_id", accountID,
			"money_drift", report.Money.Drift,
			"coins_drift", report.Coins.Drift,
		)
	}
	return report, nil
}

func (s *service) InvalidateBalances(ctx context.Context, accountIDs ...string) {
	if len(accountIDs) == 0 {
		return
	}
	for _, id := range accountIDs {
		s.generation(id).Add(1)
	}
	if err := s.cache.InvalidateBalance(ctx, accountIDs...); err != nil {
		s.logger.WarnContext(ctx, "balance cache invalidation failed", "account_ids", accountIDs, "error", err)
	}
}

func validateRequest(req MutationRequest) error {
	if req.Amount <= 0 {
		return apperrors.ErrInvalidAmount
	}
	if !req.Currency.Valid() {
		return apperrors.ErrInvalidCurrency
	}
	if req.AccountID == "" {
		return apperrors.ErrAccountNotFound
	}
	return nil
}

// translateError maps repository sentinels onto domain errors.
func translateError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrAccountNotFound):
		return apperrors.ErrAccountNotFound
	case errors.Is(err, repositories.ErrBalanceTooLow):
		return apperrors.ErrInsufficientFunds
	default:
		return err
	}
}

func errorCode(err error) string {
	if de, ok := apperrors.As(err); ok {
		return de.Code
	}
	return "INTERNAL"
}
