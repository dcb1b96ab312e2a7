package referral

import (
	"context"
	"log/slog"

	"orusledger/internal/models"
)

// DefaultBonusCoins is granted to each side when no bonus is configured.
const DefaultBonusCoins int64 = 50

const (
	codeAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength      = 8
	maxCodeAttempts = 5
)

const (
	OpApplyReferral = "apply_referral"
	OpOpenAccount   = "open_account"
)

// Config holds referral settings.
type Config struct {
	BonusCoins int64
	Logger     *slog.Logger
}

// ApplyResult reports a settled referral.
type ApplyResult struct {
	BonusAmount int64  `json:"bonus_amount"`
	ReferrerID  string `json:"referrer_id"`
}

// ReferralCode is an account's shareable code with its redemption count.
type ReferralCode struct {
	Code           string `json:"referral_code"`
	TotalReferrals int64  `json:"total_referrals"`
}

// Service settles referral codes and opens ledger accounts.
type Service interface {
	OpenAccount(ctx context.Context, accountID string) (*models.Account, error)
	GetReferralCode(ctx context.Context, accountID string) (*ReferralCode, error)
	ApplyReferral(ctx context.Context, refereeID, code string) (*ApplyResult, error)
	ApplyReferralOnSignup(ctx context.Context, refereeID, code string) (*ApplyResult, error)
}
