package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"orusledger/internal/models"
)

var _ LedgerRepository = (*MemoryLedgerRepository)(nil)

// MemoryLedgerRepository keeps the ledger in process memory. Units of work
// are serialised by a mutex and rolled back by restoring a snapshot.
type MemoryLedgerRepository struct {
	mu            sync.Mutex
	transactional bool
	state         *memoryState

	// BeforeAppend, when set, runs before every ledger append and can fail
	// it. Used to inject store failures.
	BeforeAppend func(entry *models.LedgerEntry) error
}

type memoryState struct {
	accounts  map[string]*models.Account
	entries   []models.LedgerEntry
	referrals map[string]*models.Referral // by referee
}

func newMemoryState() *memoryState {
	return &memoryState{
		accounts:  make(map[string]*models.Account),
		entries:   make([]models.LedgerEntry, 0),
		referrals: make(map[string]*models.Referral),
	}
}

func (s *memoryState) clone() *memoryState {
	c := &memoryState{
		accounts:  make(map[string]*models.Account, len(s.accounts)),
		entries:   make([]models.LedgerEntry, len(s.entries)),
		referrals: make(map[string]*models.Referral, len(s.referrals)),
	}
	for k, v := range s.accounts {
		a := *v
		c.accounts[k] = &a
	}
	copy(c.entries, s.entries)
	for k, v := range s.referrals {
		r := *v
		c.referrals[k] = &r
	}
	return c
}

// NewMemoryLedgerRepository returns an empty in-memory repository. With
// transactional false it behaves like a store without unit-of-work support.
func NewMemoryLedgerRepository(transactional bool) *MemoryLedgerRepository {
	return &MemoryLedgerRepository{
		transactional: transactional,
		state:         newMemoryState(),
	}
}

// memoryTx is handed to ExecuteInTransaction callbacks; the parent lock is
// already held.
type memoryTx struct {
	parent *MemoryLedgerRepository
}

func (r *MemoryLedgerRepository) locked(fn func(s *memoryState) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(r.state)
}

func (r *MemoryLedgerRepository) CreateAccount(_ context.Context, account *models.Account) error {
	return r.locked(func(s *memoryState) error { return createAccount(s, account) })
}

func (r *MemoryLedgerRepository) GetAccount(_ context.Context, id string) (*models.Account, error) {
	var out *models.Account
	err := r.locked(func(s *memoryState) (err error) { out, err = getAccount(s, id); return })
	return out, err
}

func (r *MemoryLedgerRepository) GetAccountByReferralCode(_ context.Context, code string) (*models.Account, error) {
	var out *models.Account
	err := r.locked(func(s *memoryState) (err error) { out, err = getAccountByCode(s, code); return })
	return out, err
}

func (r *MemoryLedgerRepository) IncrementBalance(_ context.Context, accountID string, currency models.Currency, amount int64) (*models.Account, error) {
	var out *models.Account
	err := r.locked(func(s *memoryState) (err error) { out, err = adjustBalance(s, accountID, currency, amount); return })
	return out, err
}

func (r *MemoryLedgerRepository) DecrementBalance(_ context.Context, accountID string, currency models.Currency, amount int64) (*models.Account, error) {
	var out *models.Account
	err := r.locked(func(s *memoryState) (err error) { out, err = adjustBalance(s, accountID, currency, -amount); return })
	return out, err
}

func (r *MemoryLedgerRepository) AppendEntry(_ context.Context, entry *models.LedgerEntry) error {
	return r.locked(func(s *memoryState) error { return r.appendEntry(s, entry) })
}

func (r *MemoryLedgerRepository) ListEntries(_ context.Context, accountID string, filter models.EntryFilter, limit, offset int) ([]models.LedgerEntry, int64, error) {
	var (
		out   []models.LedgerEntry
		total int64
	)
	err := r.locked(func(s *memoryState) error {
		out, total = listEntries(s, accountID, filter, limit, offset)
		return nil
	})
	return out, total, err
}

func (r *MemoryLedgerRepository) SumEntries(_ context.Context, accountID string, currency models.Currency) (int64, error) {
	var total int64
	err := r.locked(func(s *memoryState) error { total = sumEntries(s, accountID, currency); return nil })
	return total, err
}

func (r *MemoryLedgerRepository) CreateReferral(_ context.Context, referral *models.Referral) error {
	return r.locked(func(s *memoryState) error { return createReferral(s, referral) })
}

func (r *MemoryLedgerRepository) GetReferralByReferee(_ context.Context, refereeID string) (*models.Referral, error) {
	var out *models.Referral
	err := r.locked(func(s *memoryState) (err error) { out, err = getReferral(s, "", refereeID); return })
	return out, err
}

func (r *MemoryLedgerRepository) GetReferralByCodeAndReferee(_ context.Context, code, refereeID string) (*models.Referral, error) {
	var out *models.Referral
	err := r.locked(func(s *memoryState) (err error) { out, err = getReferral(s, code, refereeID); return })
	return out, err
}

func (r *MemoryLedgerRepository) CountReferralsByReferrer(_ context.Context, referrerID string) (int64, error) {
	var n int64
	err := r.locked(func(s *memoryState) error { n = countReferrals(s, referrerID); return nil })
	return n, err
}

func (r *MemoryLedgerRepository) ExecuteInTransaction(ctx context.Context, fn func(ctx context.Context, tx LedgerRepository) error) error {
	if !r.transactional {
		return ErrTransactionUnsupported
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := r.state.clone()
	if err := fn(ctx, &memoryTx{parent: r}); err != nil {
		r.state = snapshot
		return err
	}
	return nil
}

// Entries returns a copy of every ledger entry, oldest first.
func (r *MemoryLedgerRepository) Entries() []models.LedgerEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.LedgerEntry, len(r.state.entries))
	copy(out, r.state.entries)
	return out
}

// Referrals returns a copy of every referral record.
func (r *MemoryLedgerRepository) Referrals() []models.Referral {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Referral, 0, len(r.state.referrals))
	for _, ref := range r.state.referrals {
		out = append(out, *ref)
	}
	return out
}

func (t *memoryTx) CreateAccount(_ context.Context, account *models.Account) error {
	return createAccount(t.parent.state, account)
}

func (t *memoryTx) GetAccount(_ context.Context, id string) (*models.Account, error) {
	return getAccount(t.parent.state, id)
}

func (t *memoryTx) GetAccountByReferralCode(_ context.Context, code string) (*models.Account, error) {
	return getAccountByCode(t.parent.state, code)
}

func (t *memoryTx) IncrementBalance(_ context.Context, accountID string, currency models.Currency, amount int64) (*models.Account, error) {
	return adjustBalance(t.parent.state, accountID, currency, amount)
}

func (t *memoryTx) DecrementBalance(_ context.Context, accountID string, currency models.Currency, amount int64) (*models.Account, error) {
	return adjustBalance(t.parent.state, accountID, currency, -amount)
}

func (t *memoryTx) AppendEntry(_ context.Context, entry *models.LedgerEntry) error {
	return t.parent.appendEntry(t.parent.state, entry)
}

func (t *memoryTx) ListEntries(_ context.Context, accountID string, filter models.EntryFilter, limit, offset int) ([]models.LedgerEntry, int64, error) {
	out, total := listEntries(t.parent.state, accountID, filter, limit, offset)
	return out, total, nil
}

func (t *memoryTx) SumEntries(_ context.Context, accountID string, currency models.Currency) (int64, error) {
	return sumEntries(t.parent.state, accountID, currency), nil
}

func (t *memoryTx) CreateReferral(_ context.Context, referral *models.Referral) error {
	return createReferral(t.parent.state, referral)
}

func (t *memoryTx) GetReferralByReferee(_ context.Context, refereeID string) (*models.Referral, error) {
	return getReferral(t.parent.state, "", refereeID)
}

func (t *memoryTx) GetReferralByCodeAndReferee(_ context.Context, code, refereeID string) (*models.Referral, error) {
	return getReferral(t.parent.state, code, refereeID)
}

func (t *memoryTx) CountReferralsByReferrer(_ context.Context, referrerID string) (int64, error) {
	return countReferrals(t.parent.state, referrerID), nil
}

func (t *memoryTx) ExecuteInTransaction(ctx context.Context, fn func(ctx context.Context, tx LedgerRepository) error) error {
	return fn(ctx, t)
}

func createAccount(s *memoryState, account *models.Account) error {
	if _, ok := s.accounts[account.ID]; ok {
		return ErrDuplicateAccount
	}
	for _, a := range s.accounts {
		if a.ReferralCode == account.ReferralCode {
			return ErrDuplicateCode
		}
	}
	now := time.Now().UTC()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now
	a := *account
	s.accounts[account.ID] = &a
	return nil
}

func getAccount(s *memoryState, id string) (*models.Account, error) {
	a, ok := s.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	out := *a
	return &out, nil
}

func getAccountByCode(s *memoryState, code string) (*models.Account, error) {
	for _, a := range s.accounts {
		if a.ReferralCode == code {
			out := *a
			return &out, nil
		}
	}
	return nil, ErrAccountNotFound
}

// adjustBalance applies delta; negative deltas only where the balance covers them.
func adjustBalance(s *memoryState, accountID string, currency models.Currency, delta int64) (*models.Account, error) {
	a, ok := s.accounts[accountID]
	if !ok {
		if delta < 0 {
			return nil, ErrBalanceTooLow
		}
		return nil, ErrAccountNotFound
	}
	field := &a.CoinsBalance
	if currency == models.CurrencyMoney {
		field = &a.MoneyBalance
	}
	if *field+delta < 0 {
		return nil, ErrBalanceTooLow
	}
	*field += delta
	a.UpdatedAt = time.Now().UTC()
	out := *a
	return &out, nil
}

func (r *MemoryLedgerRepository) appendEntry(s *memoryState, entry *models.LedgerEntry) error {
	if entry.ID == "" || entry.Amount <= 0 {
		return ErrInvalidEntry
	}
	if r.BeforeAppend != nil {
		if err := r.BeforeAppend(entry); err != nil {
			return err
		}
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	e := *entry
	e.Metadata = models.NewJSON(entry.Metadata)
	s.entries = append(s.entries, e)
	return nil
}

func listEntries(s *memoryState, accountID string, filter models.EntryFilter, limit, offset int) ([]models.LedgerEntry, int64) {
	matched := make([]models.LedgerEntry, 0)
	for _, e := range s.entries {
		if e.AccountID != accountID {
			continue
		}
		if filter.Direction != "" && e.Direction != filter.Direction {
			continue
		}
		if filter.Currency != "" && e.Currency != filter.Currency {
			continue
		}
		matched = append(matched, e)
	}
	// Stable on insertion order so entries sharing a timestamp stay newest first.
	for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
		matched[i], matched[j] = matched[j], matched[i]
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if offset >= len(matched) {
		return []models.LedgerEntry{}, total
	}
	end := offset + limit
	if limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total
}

func sumEntries(s *memoryState, accountID string, currency models.Currency) int64 {
	var total int64
	for i := range s.entries {
		e := &s.entries[i]
		if e.AccountID == accountID && e.Currency == currency {
			total += e.Signed()
		}
	}
	return total
}

func createReferral(s *memoryState, referral *models.Referral) error {
	if _, ok := s.referrals[referral.RefereeID]; ok {
		return ErrDuplicateReferral
	}
	if referral.CreatedAt.IsZero() {
		referral.CreatedAt = time.Now().UTC()
	}
	ref := *referral
	s.referrals[referral.RefereeID] = &ref
	return nil
}

func getReferral(s *memoryState, code, refereeID string) (*models.Referral, error) {
	ref, ok := s.referrals[refereeID]
	if !ok || (code != "" && ref.Code != code) {
		return nil, ErrReferralNotFound
	}
	out := *ref
	return &out, nil
}

func countReferrals(s *memoryState, referrerID string) int64 {
	var n int64
	for _, ref := range s.referrals {
		if ref.ReferrerID == referrerID {
			n++
		}
	}
	return n
}
