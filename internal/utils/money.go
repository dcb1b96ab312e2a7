package utils

import (
	"orusledger/internal/models"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of minor-unit digits of the money currency.
const MoneyScale = 2

// FormatAmount renders a minor-unit amount for display. Money carries
// two decimals; coins are whole units.
func FormatAmount(currency models.Currency, amount int64) string {
	if currency == models.CurrencyMoney {
		return decimal.New(amount, -MoneyScale).StringFixed(MoneyScale)
	}
	return decimal.NewFromInt(amount).String()
}
