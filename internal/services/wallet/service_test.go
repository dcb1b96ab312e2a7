package wallet

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "orusledger/internal/errors"
	"orusledger/internal/models"
	"orusledger/internal/repositories"
	"orusledger/internal/repositories/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetBalance(ctx context.Context, accountID string) (*models.Account, error) {
	args := m.Called(ctx, accountID)
	if a := args.Get(0); a != nil {
		return a.(*models.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCache) SetBalance(ctx context.Context, account *models.Account) error {
	return m.Called(ctx, account).Error(0)
}

func (m *MockCache) InvalidateBalance(ctx context.Context, accountIDs ...string) error {
	return m.Called(ctx, accountIDs).Error(0)
}

type countingMetrics struct {
	NoopMetricsCollector
	fallbacks atomic.Int64
	mutations atomic.Int64
	errors    atomic.Int64
}

func (c *countingMetrics) RecordFallback(string)                                  { c.fallbacks.Add(1) }
func (c *countingMetrics) RecordError(string, string)                              { c.errors.Add(1) }
func (c *countingMetrics) RecordMutation(models.Direction, models.Currency, int64) { c.mutations.Add(1) }

// failingTxRepo reports an arbitrary error from ExecuteInTransaction.
type failingTxRepo struct {
	*repositories.MemoryLedgerRepository
	err error
}

func (f *failingTxRepo) ExecuteInTransaction(context.Context, func(context.Context, repositories.LedgerRepository) error) error {
	return f.err
}

func newTestService(t *testing.T, transactional bool) (Service, *repositories.MemoryLedgerRepository, *countingMetrics) {
	t.Helper()
	repo := repositories.NewMemoryLedgerRepository(transactional)
	metrics := &countingMetrics{}
	return NewService(repo, nil, WalletConfig{}, metrics), repo, metrics
}

func seedAccount(t *testing.T, repo repositories.LedgerRepository, id string, money, coins int64) {
	t.Helper()
	require.NoError(t, repo.CreateAccount(context.Background(), &models.Account{
		ID:           id,
		ReferralCode: "CODE" + id,
		MoneyBalance: money,
		CoinsBalance: coins,
	}))
}

func entriesFor(repo *repositories.MemoryLedgerRepository, accountID string) []models.LedgerEntry {
	var out []models.LedgerEntry
	for _, e := range repo.Entries() {
		if e.AccountID == accountID {
			out = append(out, e)
		}
	}
	return out
}

func bothModes(t *testing.T, fn func(t *testing.T, transactional bool)) {
	for _, transactional := range []bool{true, false} {
		name := "transactional"
		if !transactional {
			name = "fallback"
		}
		t.Run(name, func(t *testing.T) { fn(t, transactional) })
	}
}

func TestWalletService_Credit(t *testing.T) {
	bothModes(t, func(t *testing.T, transactional bool) {
		svc, repo, metrics := newTestService(t, transactional)
		seedAccount(t, repo, "u-1", 0, 0)

		res, err := svc.Credit(context.Background(), MutationRequest{
			AccountID: "u-1",
			Amount:    500,
			Currency:  models.CurrencyMoney,
			Source:    "topup",
			Metadata:  map[string]interface{}{"ref": "r-9"},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(500), res.NewBalance)
		assert.Equal(t, models.DirectionCredit, res.Entry.Direction)
		assert.Equal(t, "topup", res.Entry.Source)
		assert.Equal(t, "r-9", res.Entry.Metadata["ref"])

		entries := entriesFor(repo, "u-1")
		require.Len(t, entries, 1)
		assert.Equal(t, res.Entry.ID, entries[0].ID)

		if transactional {
			assert.Zero(t, metrics.fallbacks.Load())
		} else {
			assert.Equal(t, int64(1), metrics.fallbacks.Load())
		}
	})
}

func TestWalletService_Validation(t *testing.T) {
	svc, repo, _ := newTestService(t, true)
	seedAccount(t, repo, "u-1", 100, 0)

	tests := []struct {
		name    string
		req     MutationRequest
		wantErr error
	}{
		{
			name:    "zero amount",
			req:     MutationRequest{AccountID: "u-1", Amount: 0, Currency: models.CurrencyMoney},
			wantErr: apperrors.ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			req:     MutationRequest{AccountID: "u-1", Amount: -5, Currency: models.CurrencyMoney},
			wantErr: apperrors.ErrInvalidAmount,
		},
		{
			name:    "unknown currency",
			req:     MutationRequest{AccountID: "u-1", Amount: 5, Currency: "gems"},
			wantErr: apperrors.ErrInvalidCurrency,
		},
		{
			name:    "missing account",
			req:     MutationRequest{AccountID: "nobody", Amount: 5, Currency: models.CurrencyCoins},
			wantErr: apperrors.ErrAccountNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Credit(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			_, err = svc.Debit(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Empty(t, repo.Entries())
}

func TestWalletService_DebitInsufficientFunds(t *testing.T) {
	bothModes(t, func(t *testing.T, transactional bool) {
		svc, repo, _ := newTestService(t, transactional)
		seedAccount(t, repo, "u-1", 250, 0)

		_, err := svc.Debit(context.Background(), MutationRequest{
			AccountID: "u-1",
			Amount:    300,
			Currency:  models.CurrencyMoney,
			Source:    "purchase",
		})
		assert.ErrorIs(t, err, apperrors.ErrInsufficientFunds)

		balance, err := svc.GetBalance(context.Background(), "u-1")
		require.NoError(t, err)
		assert.Equal(t, int64(250), balance.Money)
		assert.Empty(t, entriesFor(repo, "u-1"))
	})
}

func TestWalletService_RoundTrip(t *testing.T) {
	bothModes(t, func(t *testing.T, transactional bool) {
		svc, repo, _ := newTestService(t, transactional)
		seedAccount(t, repo, "u-1", 40, 7)
		ctx := context.Background()

		req := MutationRequest{AccountID: "u-1", Amount: 25, Currency: models.CurrencyCoins, Source: "game"}
		_, err := svc.Credit(ctx, req)
		require.NoError(t, err)
		res, err := svc.Debit(ctx, req)
		require.NoError(t, err)

		assert.Equal(t, int64(7), res.NewBalance)
		balance, err := svc.GetBalance(ctx, "u-1")
		require.NoError(t, err)
		assert.Equal(t, int64(40), balance.Money)
		assert.Equal(t, int64(7), balance.Coins)
		assert.Len(t, entriesFor(repo, "u-1"), 2)
	})
}

func TestWalletService_ConcurrentDebits(t *testing.T) {
	bothModes(t, func(t *testing.T, transactional bool) {
		svc, repo, _ := newTestService(t, transactional)
		seedAccount(t, repo, "u-1", 0, 0)
		_, err := svc.Credit(context.Background(), MutationRequest{AccountID: "u-1", Amount: 1000, Currency: models.CurrencyMoney, Source: "topup"})
		require.NoError(t, err)

		const workers = 25
		var (
			wg        sync.WaitGroup
			succeeded atomic.Int64
			rejected  atomic.Int64
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.Debit(context.Background(), MutationRequest{
					AccountID: "u-1",
					Amount:    100,
					Currency:  models.CurrencyMoney,
					Source:    "purchase",
				})
				switch {
				case err == nil:
					succeeded.Add(1)
				case errors.Is(err, apperrors.ErrInsufficientFunds):
					rejected.Add(1)
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(10), succeeded.Load())
		assert.Equal(t, int64(workers-10), rejected.Load())

		balance, err := svc.GetBalance(context.Background(), "u-1")
		require.NoError(t, err)
		assert.Zero(t, balance.Money)
		assert.Len(t, entriesFor(repo, "u-1"), 11)

		report, err := svc.Reconcile(context.Background(), "u-1")
		require.NoError(t, err)
		assert.True(t, report.Consistent())
	})
}

func TestWalletService_FallbackOnlyOnUnsupportedSignal(t *testing.T) {
	memory := repositories.NewMemoryLedgerRepository(true)
	seedAccount(t, memory, "u-1", 0, 0)

	storeErr := errors.New("connection reset")
	metrics := &countingMetrics{}
	svc := NewService(&failingTxRepo{MemoryLedgerRepository: memory, err: storeErr}, nil, WalletConfig{}, metrics)

	_, err := svc.Credit(context.Background(), MutationRequest{
		AccountID: "u-1",
		Amount:    10,
		Currency:  models.CurrencyMoney,
		Source:    "topup",
	})
	assert.ErrorIs(t, err, storeErr)
	assert.Zero(t, metrics.fallbacks.Load())
	assert.Empty(t, memory.Entries())

	account, err := memory.GetAccount(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Zero(t, account.MoneyBalance)
}

func TestWalletService_AppendFailure(t *testing.T) {
	appendErr := errors.New("disk full")

	t.Run("transaction rolls back the balance", func(t *testing.T) {
		svc, repo, _ := newTestService(t, true)
		seedAccount(t, repo, "u-1", 100, 0)
		repo.BeforeAppend = func(*models.LedgerEntry) error { return appendErr }

		_, err := svc.Debit(context.Background(), MutationRequest{AccountID: "u-1", Amount: 40, Currency: models.CurrencyMoney, Source: "x"})
		assert.ErrorIs(t, err, appendErr)

		balance, err := svc.GetBalance(context.Background(), "u-1")
		require.NoError(t, err)
		assert.Equal(t, int64(100), balance.Money)
	})

	t.Run("fallback leaves drift for reconciliation", func(t *testing.T) {
		svc, repo, _ := newTestService(t, false)
		seedAccount(t, repo, "u-1", 100, 0)
		repo.BeforeAppend = func(*models.LedgerEntry) error { return appendErr }

		_, err := svc.Debit(context.Background(), MutationRequest{AccountID: "u-1", Amount: 40, Currency: models.CurrencyMoney, Source: "x"})
		assert.ErrorIs(t, err, appendErr)

		report, err := svc.Reconcile(context.Background(), "u-1")
		require.NoError(t, err)
		assert.Equal(t, int64(60), report.Money.Snapshot)
		assert.False(t, report.Consistent())
	})
}

func TestWalletService_CreditTx(t *testing.T) {
	svc, repo, _ := newTestService(t, true)
	seedAccount(t, repo, "u-1", 0, 0)
	seedAccount(t, repo, "u-2", 0, 0)
	ctx := context.Background()
	abort := errors.New("abort")

	err := repo.ExecuteInTransaction(ctx, func(ctx context.Context, tx repositories.LedgerRepository) error {
		if _, err := svc.CreditTx(ctx, tx, MutationRequest{AccountID: "u-1", Amount: 5, Currency: models.CurrencyCoins, Source: "x"}); err != nil {
			return err
		}
		if _, err := svc.CreditTx(ctx, tx, MutationRequest{AccountID: "u-2", Amount: 5, Currency: models.CurrencyCoins, Source: "x"}); err != nil {
			return err
		}
		return abort
	})
	assert.ErrorIs(t, err, abort)
	assert.Empty(t, repo.Entries())

	err = repo.ExecuteInTransaction(ctx, func(ctx context.Context, tx repositories.LedgerRepository) error {
		_, err := svc.CreditTx(ctx, tx, MutationRequest{AccountID: "u-1", Amount: 5, Currency: models.CurrencyCoins, Source: "x"})
		return err
	})
	require.NoError(t, err)
	assert.Len(t, repo.Entries(), 1)

	_, err = svc.DebitTx(ctx, nil, MutationRequest{AccountID: "u-1", Amount: 5, Currency: models.CurrencyCoins})
	assert.Error(t, err)
}

func TestWalletService_GetTransactions(t *testing.T) {
	svc, repo, _ := newTestService(t, true)
	seedAccount(t, repo, "u-1", 0, 0)
	ctx := context.Background()

	s := svc.(*service)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var tick int
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	for i := 0; i < 25; i++ {
		_, err := svc.Credit(ctx, MutationRequest{AccountID: "u-1", Amount: int64(i + 1), Currency: models.CurrencyMoney, Source: "topup"})
		require.NoError(t, err)
	}
	_, err := svc.Debit(ctx, MutationRequest{AccountID: "u-1", Amount: 3, Currency: models.CurrencyMoney, Source: "purchase"})
	require.NoError(t, err)
	_, err = svc.Credit(ctx, MutationRequest{AccountID: "u-1", Amount: 9, Currency: models.CurrencyCoins, Source: "game"})
	require.NoError(t, err)

	t.Run("defaults and ordering", func(t *testing.T) {
		page, err := svc.GetTransactions(ctx, "u-1", TransactionQuery{})
		require.NoError(t, err)
		assert.Equal(t, Pagination{Page: 1, Limit: 20, Total: 27, Pages: 2}, page.Pagination)
		require.Len(t, page.Entries, 20)
		assert.Equal(t, models.CurrencyCoins, page.Entries[0].Currency)
		assert.Equal(t, models.DirectionDebit, page.Entries[1].Direction)
		for i := 1; i < len(page.Entries); i++ {
			assert.False(t, page.Entries[i].CreatedAt.After(page.Entries[i-1].CreatedAt))
		}
	})

	t.Run("second page", func(t *testing.T) {
		page, err := svc.GetTransactions(ctx, "u-1", TransactionQuery{Page: 2})
		require.NoError(t, err)
		assert.Len(t, page.Entries, 7)
	})

	t.Run("limit is capped", func(t *testing.T) {
		page, err := svc.GetTransactions(ctx, "u-1", TransactionQuery{Limit: 500})
		require.NoError(t, err)
		assert.Equal(t, 100, page.Pagination.Limit)
		assert.Len(t, page.Entries, 27)
	})

	t.Run("filters", func(t *testing.T) {
		page, err := svc.GetTransactions(ctx, "u-1", TransactionQuery{Currency: models.CurrencyCoins})
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Pagination.Total)

		page, err = svc.GetTransactions(ctx, "u-1", TransactionQuery{Direction: models.DirectionDebit, Currency: models.CurrencyMoney})
		require.NoError(t, err)
		require.Len(t, page.Entries, 1)
		assert.Equal(t, int64(3), page.Entries[0].Amount)
	})

	t.Run("invalid filters", func(t *testing.T) {
		_, err := svc.GetTransactions(ctx, "u-1", TransactionQuery{Direction: "refund"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidDirection)
		_, err = svc.GetTransactions(ctx, "u-1", TransactionQuery{Currency: "gems"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidCurrency)
	})

	t.Run("unknown account", func(t *testing.T) {
		_, err := svc.GetTransactions(ctx, "nobody", TransactionQuery{})
		assert.ErrorIs(t, err, apperrors.ErrAccountNotFound)
	})
}

func TestWalletService_BalanceCache(t *testing.T) {
	repo := repositories.NewMemoryLedgerRepository(true)
	seedAccount(t, repo, "u-1", 300, 12)
	ctx := context.Background()

	t.Run("hit skips the store", func(t *testing.T) {
		mockCache := new(MockCache)
		mockCache.On("GetBalance", mock.Anything, "u-9").
			Return(&models.Account{ID: "u-9", MoneyBalance: 1, CoinsBalance: 2}, nil)
		svc := NewService(repo, mockCache, WalletConfig{}, nil)

		balance, err := svc.GetBalance(ctx, "u-9")
		require.NoError(t, err)
		assert.Equal(t, &Balance{AccountID: "u-9", Money: 1, Coins: 2}, balance)
		mockCache.AssertExpectations(t)
	})

	t.Run("miss reads through", func(t *testing.T) {
		mockCache := new(MockCache)
		mockCache.On("GetBalance", mock.Anything, "u-1").Return(nil, cache.ErrCacheMiss)
		mockCache.On("SetBalance", mock.Anything, mock.MatchedBy(func(a *models.Account) bool {
			return a.ID == "u-1" && a.MoneyBalance == 300
		})).Return(nil)
		svc := NewService(repo, mockCache, WalletConfig{}, nil)

		money, err := svc.GetCurrencyBalance(ctx, "u-1", models.CurrencyMoney)
		require.NoError(t, err)
		assert.Equal(t, int64(300), money)
		mockCache.AssertExpectations(t)
	})

	t.Run("cache failures are not surfaced", func(t *testing.T) {
		mockCache := new(MockCache)
		mockCache.On("GetBalance", mock.Anything, "u-1").Return(nil, errors.New("redis down"))
		mockCache.On("SetBalance", mock.Anything, mock.Anything).Return(errors.New("redis down"))
		mockCache.On("InvalidateBalance", mock.Anything, []string{"u-1"}).Return(errors.New("redis down"))
		svc := NewService(repo, mockCache, WalletConfig{}, nil)

		coins, err := svc.GetCurrencyBalance(ctx, "u-1", models.CurrencyCoins)
		require.NoError(t, err)
		assert.Equal(t, int64(12), coins)

		_, err = svc.Credit(ctx, MutationRequest{AccountID: "u-1", Amount: 1, Currency: models.CurrencyCoins, Source: "x"})
		require.NoError(t, err)
		mockCache.AssertCalled(t, "InvalidateBalance", mock.Anything, []string{"u-1"})
	})

	t.Run("invalid currency", func(t *testing.T) {
		svc := NewService(repo, nil, WalletConfig{}, nil)
		_, err := svc.GetCurrencyBalance(ctx, "u-1", "gems")
		assert.ErrorIs(t, err, apperrors.ErrInvalidCurrency)
	})
}

func TestWalletService_Reconcile(t *testing.T) {
	svc, repo, _ := newTestService(t, true)
	seedAccount(t, repo, "u-1", 0, 0)
	ctx := context.Background()

	_, err := svc.Credit(ctx, MutationRequest{AccountID: "u-1", Amount: 70, Currency: models.CurrencyMoney, Source: "x"})
	require.NoError(t, err)
	_, err = svc.Debit(ctx, MutationRequest{AccountID: "u-1", Amount: 20, Currency: models.CurrencyMoney, Source: "x"})
	require.NoError(t, err)
	_, err = svc.Credit(ctx, MutationRequest{AccountID: "u-1", Amount: 50, Currency: models.CurrencyCoins, Source: "x"})
	require.NoError(t, err)

	report, err := svc.Reconcile(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, CurrencyReconciliation{Snapshot: 50, Ledger: 50}, report.Money)
	assert.Equal(t, CurrencyReconciliation{Snapshot: 50, Ledger: 50}, report.Coins)
	assert.True(t, report.Consistent())

	_, err = svc.Reconcile(ctx, "nobody")
	assert.ErrorIs(t, err, apperrors.ErrAccountNotFound)
}

func TestWalletService_CoinsScenario(t *testing.T) {
	bothModes(t, func(t *testing.T, transactional bool) {
		svc, repo, _ := newTestService(t, transactional)
		seedAccount(t, repo, "A", 0, 0)
		ctx := context.Background()

		res, err := svc.Credit(ctx, MutationRequest{AccountID: "A", Amount: 50, Currency: models.CurrencyCoins, Source: models.SourceReferral})
		require.NoError(t, err)
		assert.Equal(t, int64(50), res.NewBalance)

		_, err = svc.Debit(ctx, MutationRequest{AccountID: "A", Amount: 60, Currency: models.CurrencyCoins, Source: "spend"})
		assert.ErrorIs(t, err, apperrors.ErrInsufficientFunds)
		assert.Len(t, repo.Entries(), 1)

		res, err = svc.Debit(ctx, MutationRequest{AccountID: "A", Amount: 50, Currency: models.CurrencyCoins, Source: "spend"})
		require.NoError(t, err)
		assert.Zero(t, res.NewBalance)

		entries := repo.Entries()
		require.Len(t, entries, 2)
		assert.Equal(t, models.DirectionCredit, entries[0].Direction)
		assert.Equal(t, models.SourceReferral, entries[0].Source)
		assert.Equal(t, models.DirectionDebit, entries[1].Direction)
		assert.Equal(t, int64(50), entries[1].Amount)
		assert.Equal(t, "spend", entries[1].Source)
	})
}

// mapCache is an in-process BalanceCache.
type mapCache struct {
	mu       sync.Mutex
	accounts map[string]models.Account
}

func newMapCache() *mapCache {
	return &mapCache{accounts: make(map[string]models.Account)}
}

func (c *mapCache) GetBalance(_ context.Context, accountID string) (*models.Account, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.accounts[accountID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return &a, nil
}

func (c *mapCache) SetBalance(_ context.Context, account *models.Account) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accounts[account.ID] = *account
	return nil
}

func (c *mapCache) InvalidateBalance(_ context.Context, accountIDs ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range accountIDs {
		delete(c.accounts, id)
	}
	return nil
}

// racingRepo runs afterRead once, between loading an account and
// returning it, so a mutation lands while a cache fill is in flight.
type racingRepo struct {
	*repositories.MemoryLedgerRepository
	afterRead func()
}

func (r *racingRepo) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	account, err := r.MemoryLedgerRepository.GetAccount(ctx, id)
	if hook := r.afterRead; hook != nil {
		r.afterRead = nil
		hook()
	}
	return account, err
}

func TestWalletService_CacheFillRacingMutation(t *testing.T) {
	ctx := context.Background()
	mem := repositories.NewMemoryLedgerRepository(true)
	seedAccount(t, mem, "u-1", 100, 0)
	repo := &racingRepo{MemoryLedgerRepository: mem}
	balances := newMapCache()
	svc := NewService(repo, balances, WalletConfig{}, nil)

	repo.afterRead = func() {
		_, err := svc.Credit(ctx, MutationRequest{AccountID: "u-1", Amount: 50, Currency: models.CurrencyMoney, Source: "topup"})
		require.NoError(t, err)
	}

	balance, err := svc.GetBalance(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance.Money)

	_, err = balances.GetBalance(ctx, "u-1")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	balance, err = svc.GetBalance(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, int64(150), balance.Money)
}

type opMetrics struct {
	NoopMetricsCollector
	mu        sync.Mutex
	durations []string
	errors    []string
}

func (m *opMetrics) RecordOperationDuration(op string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations = append(m.durations, op)
}

func (m *opMetrics) RecordError(op, code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, op+":"+code)
}

func TestWalletService_OperationLabels(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMemoryLedgerRepository(true)
	seedAccount(t, repo, "u-1", 0, 0)
	metrics := &opMetrics{}
	svc := NewService(repo, nil, WalletConfig{}, metrics)

	_, err := svc.Credit(ctx, MutationRequest{AccountID: "u-1", Amount: 5, Currency: models.CurrencyCoins, Source: "x"})
	require.NoError(t, err)
	_, err = svc.Debit(ctx, MutationRequest{AccountID: "u-1", Amount: 9, Currency: models.CurrencyCoins, Source: "x"})
	require.ErrorIs(t, err, apperrors.ErrInsufficientFunds)

	assert.Equal(t, []string{OpCredit, OpDebit}, metrics.durations)
	assert.Equal(t, []string{OpDebit + ":INSUFFICIENT_FUNDS"}, metrics.errors)
}
