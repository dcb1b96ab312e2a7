package models

import "time"

// Currency names one of the two independent balances of an account.
type Currency string

const (
	CurrencyMoney Currency = "money"
	CurrencyCoins Currency = "coins"
)

// Valid reports whether c is a known currency.
func (c Currency) Valid() bool {
	return c == CurrencyMoney || c == CurrencyCoins
}

// BalanceColumn is the accounts column holding this currency.
func (c Currency) BalanceColumn() string {
	if c == CurrencyMoney {
		return "money_balance"
	}
	return "coins_balance"
}

// Direction of a ledger entry.
type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionCredit || d == DirectionDebit
}

// Common source tags.
const (
	SourceReferral = "referral"
)

// LedgerEntry is an immutable record of one credit or debit.
type LedgerEntry struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	AccountID string    `gorm:"type:varchar(64);not null;index:idx_ledger_entries_account_created,priority:1" json:"account_id"`
	Direction Direction `gorm:"type:varchar(8);not null" json:"type"`
	Currency  Currency  `gorm:"type:varchar(8);not null" json:"currency"`
	Amount    int64     `gorm:"not null;check:amount > 0" json:"amount"`
	Source    string    `gorm:"type:varchar(64);not null" json:"source"`
	Metadata  JSON      `json:"meta,omitempty"`
	CreatedAt time.Time `gorm:"index:idx_ledger_entries_account_created,priority:2,sort:desc" json:"created_at"`
}

// Signed returns the amount with the sign of its direction.
func (e *LedgerEntry) Signed() int64 {
	if e.Direction == DirectionDebit {
		return -e.Amount
	}
	return e.Amount
}

// EntryFilter narrows a transaction history query.
type EntryFilter struct {
	Direction Direction
	Currency  Currency
}
