package models

import "time"

// Account is the ledger-owned balance record of one user. The user
// service only keeps the ID; both balances are mutated exclusively by
// the wallet service.
type Account struct {
	ID           string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ReferralCode string    `gorm:"uniqueIndex;type:varchar(16);not null" json:"referral_code"`
	MoneyBalance int64     `gorm:"not null;default:0;check:money_balance >= 0" json:"money_balance"`
	CoinsBalance int64     `gorm:"not null;default:0;check:coins_balance >= 0" json:"coins_balance"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BalanceOf returns the snapshot for one currency.
func (a *Account) BalanceOf(c Currency) int64 {
	if c == CurrencyMoney {
		return a.MoneyBalance
	}
	return a.CoinsBalance
}
