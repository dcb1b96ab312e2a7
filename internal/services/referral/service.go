package referral

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "orusledger/internal/errors"
	"orusledger/internal/models"
	"orusledger/internal/repositories"
	"orusledger/internal/services/wallet"

	"github.com/google/uuid"
)

type service struct {
	repo    repositories.LedgerRepository
	wallet  wallet.Service
	config  Config
	metrics wallet.MetricsCollector
	logger  *slog.Logger

	newCode func() (string, error)
	now     func() time.Time
}

// NewService creates a referral service crediting bonuses through
// walletSvc.
func NewService(
	repo repositories.LedgerRepository,
	walletSvc wallet.Service,
	config Config,
	metrics wallet.MetricsCollector,
) Service {
	if repo == nil {
		panic("repo is required")
	}
	if walletSvc == nil {
		panic("wallet service is required")
	}
	if config.BonusCoins <= 0 {
		config.BonusCoins = DefaultBonusCoins
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if metrics == nil {
		metrics = &wallet.NoopMetricsCollector{}
	}

	return &service{
		repo:    repo,
		wallet:  walletSvc,
		config:  config,
		metrics: metrics,
		logger:  config.Logger.With("component", "referral"),
		newCode: GenerateCode,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) OpenAccount(ctx context.Context, accountID string) (*models.Account, error) {
	if accountID == "" {
		return nil, apperrors.ErrInvalidAccountID
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, err
		}
		account := &models.Account{
			ID:           accountID,
			ReferralCode: code,
			CreatedAt:    s.now(),
		}
		err = s.repo.CreateAccount(ctx, account)
		switch {
		case err == nil:
			s.logger.InfoContext(ctx, "account opened", "account_id", accountID)
			return account, nil
		case errors.Is(err, repositories.ErrDuplicateAccount):
			return nil, apperrors.ErrAccountExists
		case errors.Is(err, repositories.ErrDuplicateCode):
			s.logger.DebugContext(ctx, "referral code collision", "attempt", attempt)
			continue
		default:
			s.metrics.RecordError(OpOpenAccount, "INTERNAL")
			return nil, err
		}
	}
	s.metrics.RecordError(OpOpenAccount, "CODE_EXHAUSTED")
	return nil, fmt.Errorf("failed to mint a unique referral code after %d attempts", maxCodeAttempts)
}

func (s *service) GetReferralCode(ctx context.Context, accountID string) (*ReferralCode, error) {
	account, err := s.repo.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, err
	}
	total, err := s.repo.CountReferralsByReferrer(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to count referrals: %w", err)
	}
	return &ReferralCode{
		Code:           account.ReferralCode,
		TotalReferrals: total,
	}, nil
}

func (s *service) ApplyReferral(ctx context.Context, refereeID, code string) (*ApplyResult, error) {
	return s.apply(ctx, refereeID, code, "api")
}

func (s *service) ApplyReferralOnSignup(ctx context.Context, refereeID, code string) (*ApplyResult, error) {
	return s.apply(ctx, refereeID, code, "signup")
}

func (s *service) apply(ctx context.Context, refereeID, code, trigger string) (*ApplyResult, error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(OpApplyReferral, time.Since(start))
	}()

	referrer, err := s.checkPreconditions(ctx, refereeID, NormalizeCode(code))
	if err != nil {
		s.metrics.RecordError(OpApplyReferral, errorCode(err))
		return nil, err
	}

	bonus := s.config.BonusCoins
	referral := &models.Referral{
		ID:          uuid.NewString(),
		ReferrerID:  referrer.ID,
		RefereeID:   refereeID,
		Code:        referrer.ReferralCode,
		BonusAmount: bonus,
		CreatedAt:   s.now(),
	}

	settle := func(ctx context.Context, tx repositories.LedgerRepository) error {
		if err := tx.CreateReferral(ctx, referral); err != nil {
			if errors.Is(err, repositories.ErrDuplicateReferral) {
				return apperrors.ErrAlreadyReferred
			}
			return err
		}
		if _, err := s.wallet.CreditTx(ctx, tx, wallet.MutationRequest{
			AccountID: referrer.ID,
			Amount:    bonus,
			Currency:  models.CurrencyCoins,
			Source:    models.SourceReferral,
			Metadata:  map[string]interface{}{"refereeId": refereeID},
		}); err != nil {
			return fmt.Errorf("failed to credit referrer: %w", err)
		}
		if _, err := s.wallet.CreditTx(ctx, tx, wallet.MutationRequest{
			AccountID: refereeID,
			Amount:    bonus,
			Currency:  models.CurrencyCoins,
			Source:    models.SourceReferral,
			Metadata:  map[string]interface{}{"referrerId": referrer.ID},
		}); err != nil {
			return fmt.Errorf("failed to credit referee: %w", err)
		}
		return nil
	}

	fellBack, err := repositories.ExecuteWithFallback(ctx, s.repo, settle)
	if fellBack {
		s.metrics.RecordFallback(OpApplyReferral)
		s.logger.WarnContext(ctx, "store has no transactions, settled referral step by step",
			"referee_id", refereeID,
			"referrer_id", referrer.ID,
		)
	}
	// Partial fallback effects may have touched either balance.
	s.wallet.InvalidateBalances(ctx, referrer.ID, refereeID)
	if err != nil {
		s.metrics.RecordError(OpApplyReferral, errorCode(err))
		return nil, err
	}

	s.logger.InfoContext(ctx, "referral applied",
		"trigger", trigger,
		"referee_id", refereeID,
		"referrer_id", referrer.ID,
		"bonus", bonus,
	)
	return &ApplyResult{BonusAmount: bonus, ReferrerID: referrer.ID}, nil
}

// checkPreconditions returns the referrer owning code, or the first
// failing precondition in order.
func (s *service) checkPreconditions(ctx context.Context, refereeID, code string) (*models.Account, error) {
	if refereeID == "" {
		return nil, apperrors.ErrAccountNotFound
	}
	if _, err := s.repo.GetAccount(ctx, refereeID); err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, err
	}

	if _, err := s.repo.GetReferralByReferee(ctx, refereeID); err == nil {
		return nil, apperrors.ErrAlreadyReferred
	} else if !errors.Is(err, repositories.ErrReferralNotFound) {
		return nil, err
	}

	if code == "" {
		return nil, apperrors.ErrInvalidReferralCode
	}
	referrer, err := s.repo.GetAccountByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			return nil, apperrors.ErrInvalidReferralCode
		}
		return nil, err
	}

	if referrer.ID == refereeID {
		return nil, apperrors.ErrSelfReferral
	}

	if _, err := s.repo.GetReferralByCodeAndReferee(ctx, code, refereeID); err == nil {
		return nil, apperrors.ErrAlreadyReferred
	} else if !errors.Is(err, repositories.ErrReferralNotFound) {
		return nil, err
	}

	return referrer, nil
}

func errorCode(err error) string {
	if de, ok := apperrors.As(err); ok {
		return de.Code
	}
	return "INTERNAL"
}
