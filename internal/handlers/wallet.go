package handlers

import (
	"context"

	"orusledger/internal/models"
	"orusledger/internal/services/wallet"
	"orusledger/internal/utils"
	"orusledger/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type WalletHandler struct {
	walletService wallet.Service
}

func NewWalletHandler(walletService wallet.Service) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
	}
}

func (h *WalletHandler) GetBalance(c *fiber.Ctx) error {
	balance, err := h.walletService.GetBalance(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"account_id": balance.AccountID,
		"money":      newAmountView(models.CurrencyMoney, balance.Money),
		"coins":      newAmountView(models.CurrencyCoins, balance.Coins),
	})
}

// GetCurrencyBalance serves /balance/money and /balance/coins.
func (h *WalletHandler) GetCurrencyBalance(currency models.Currency) fiber.Handler {
	return func(c *fiber.Ctx) error {
		amount, err := h.walletService.GetCurrencyBalance(c.Context(), c.Params("id"), currency)
		if err != nil {
			return respondError(c, err)
		}
		return utils.Success(c, fiber.Map{
			"account_id": c.Params("id"),
			"currency":   currency,
			"balance":    newAmountView(currency, amount),
		})
	}
}

func (h *WalletHandler) GetTransactions(c *fiber.Ctx) error {
	return h.transactions(c, models.Currency(c.Query("currency")))
}

// GetCurrencyTransactions serves the currency-scoped history routes.
func (h *WalletHandler) GetCurrencyTransactions(currency models.Currency) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return h.transactions(c, currency)
	}
}

func (h *WalletHandler) transactions(c *fiber.Ctx, currency models.Currency) error {
	p := utils.GetPagination(c, 1, wallet.DefaultPageSize)
	page, err := h.walletService.GetTransactions(c.Context(), c.Params("id"), wallet.TransactionQuery{
		Page:      p.Page,
		Limit:     p.Limit,
		Direction: models.Direction(c.Query("type")),
		Currency:  currency,
	})
	if err != nil {
		return respondError(c, err)
	}

	return utils.Success(c, utils.NewPaginatedResponse(newEntryViews(page.Entries), page.Pagination))
}

// Credit is called by collaborating services, never by end users.
func (h *WalletHandler) Credit(c *fiber.Ctx) error {
	return h.mutate(c, h.walletService.Credit)
}

func (h *WalletHandler) Debit(c *fiber.Ctx) error {
	return h.mutate(c, h.walletService.Debit)
}

type mutateFunc func(ctx context.Context, req wallet.MutationRequest) (*wallet.MutationResult, error)

func (h *WalletHandler) mutate(c *fiber.Ctx, fn mutateFunc) error {
	var input validation.MutationInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if err := validation.ValidateMutation(input); err != nil {
		return respondError(c, err)
	}

	res, err := fn(c.Context(), wallet.MutationRequest{
		AccountID: input.AccountID,
		Amount:    input.Amount,
		Currency:  input.Currency,
		Source:    input.Source,
		Metadata:  input.Metadata,
	})
	if err != nil {
		return respondError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"balance": newAmountView(input.Currency, res.NewBalance),
		"entry":   newEntryView(res.Entry),
	})
}

func (h *WalletHandler) Reconcile(c *fiber.Ctx) error {
	report, err := h.walletService.Reconcile(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.Map{
		"report":     report,
		"consistent": report.Consistent(),
	})
}
