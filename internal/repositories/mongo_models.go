package repositories

import (
	"time"

	"orusledger/internal/models"
)

type accountDoc struct {
	ID           string    `bson:"_id"`
	ReferralCode string    `bson:"referral_code"`
	MoneyBalance int64     `bson:"money_balance"`
	CoinsBalance int64     `bson:"coins_balance"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func toAccountDoc(a *models.Account) *accountDoc {
	return &accountDoc{
		ID:           a.ID,
		ReferralCode: a.ReferralCode,
		MoneyBalance: a.MoneyBalance,
		CoinsBalance: a.CoinsBalance,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func fromAccountDoc(d *accountDoc) *models.Account {
	return &models.Account{
		ID:           d.ID,
		ReferralCode: d.ReferralCode,
		MoneyBalance: d.MoneyBalance,
		CoinsBalance: d.CoinsBalance,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type entryDoc struct {
	ID        string                 `bson:"_id"`
	AccountID string                 `bson:"account_id"`
	Direction string                 `bson:"direction"`
	Currency  string                 `bson:"currency"`
	Amount    int64                  `bson:"amount"`
	Source    string                 `bson:"source"`
	Metadata  map[string]interface{} `bson:"metadata,omitempty"`
	CreatedAt time.Time              `bson:"created_at"`
}

func toEntryDoc(e *models.LedgerEntry) *entryDoc {
	return &entryDoc{
		ID:        e.ID,
		AccountID: e.AccountID,
		Direction: string(e.Direction),
		Currency:  string(e.Currency),
		Amount:    e.Amount,
		Source:    e.Source,
		Metadata:  e.Metadata,
		CreatedAt: e.CreatedAt,
	}
}

func fromEntryDoc(d *entryDoc) models.LedgerEntry {
	return models.LedgerEntry{
		ID:        d.ID,
		AccountID: d.AccountID,
		Direction: models.Direction(d.Direction),
		Currency:  models.Currency(d.Currency),
		Amount:    d.Amount,
		Source:    d.Source,
		Metadata:  models.NewJSON(d.Metadata),
		CreatedAt: d.CreatedAt,
	}
}

type referralDoc struct {
	ID          string    `bson:"_id"`
	ReferrerID  string    `bson:"referrer_id"`
	RefereeID   string    `bson:"referee_id"`
	Code        string    `bson:"code"`
	BonusAmount int64     `bson:"bonus_amount"`
	CreatedAt   time.Time `bson:"created_at"`
}

func toReferralDoc(r *models.Referral) *referralDoc {
	return &referralDoc{
		ID:          r.ID,
		ReferrerID:  r.ReferrerID,
		RefereeID:   r.RefereeID,
		Code:        r.Code,
		BonusAmount: r.BonusAmount,
		CreatedAt:   r.CreatedAt,
	}
}

func fromReferralDoc(d *referralDoc) *models.Referral {
	return &models.Referral{
		ID:          d.ID,
		ReferrerID:  d.ReferrerID,
		RefereeID:   d.RefereeID,
		Code:        d.Code,
		BonusAmount: d.BonusAmount,
		CreatedAt:   d.CreatedAt,
	}
}
