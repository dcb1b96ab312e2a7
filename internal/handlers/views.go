package handlers

import (
	"time"

	"orusledger/internal/models"
	"orusledger/internal/utils"
)

type amountView struct {
	Amount  int64  `json:"amount"`
	Display string `json:"display"`
}

func newAmountView(currency models.Currency, amount int64) amountView {
	return amountView{Amount: amount, Display: utils.FormatAmount(currency, amount)}
}

type entryView struct {
	ID        string           `json:"id"`
	Type      models.Direction `json:"type"`
	Currency  models.Currency  `json:"currency"`
	Amount    amountView       `json:"amount"`
	Source    string           `json:"source"`
	Meta      models.JSON      `json:"meta,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

func newEntryView(e models.LedgerEntry) entryView {
	return entryView{
		ID:        e.ID,
		Type:      e.Direction,
		Currency:  e.Currency,
		Amount:    newAmountView(e.Currency, e.Amount),
		Source:    e.Source,
		Meta:      e.Metadata,
		CreatedAt: e.CreatedAt,
	}
}

func newEntryViews(entries []models.LedgerEntry) []entryView {
	out := make([]entryView, len(entries))
	for i, e := range entries {
		out[i] = newEntryView(e)
	}
	return out
}
