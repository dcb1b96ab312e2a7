package handlers

import (
	"log"

	"orusledger/internal/services/referral"
	"orusledger/internal/utils"
	"orusledger/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type AccountHandler struct {
	referralService referral.Service
}

func NewAccountHandler(referralService referral.Service) *AccountHandler {
	return &AccountHandler{
		referralService: referralService,
	}
}

// OpenAccount creates the ledger account of a newly registered user and,
// when a referral code came with the signup, redeems it.
func (h *AccountHandler) OpenAccount(c *fiber.Ctx) error {
	var input struct {
		AccountID    string `json:"account_id"`
		ReferralCode string `json:"referral_code"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if err := validation.ValidateOpenAccount(input.AccountID, input.ReferralCode); err != nil {
		return respondError(c, err)
	}

	account, err := h.referralService.OpenAccount(c.Context(), input.AccountID)
	if err != nil {
		return respondError(c, err)
	}

	body := fiber.Map{
		"account_id":    account.ID,
		"referral_code": account.ReferralCode,
	}
	if input.ReferralCode != "" {
		res, err := h.referralService.ApplyReferralOnSignup(c.Context(), account.ID, input.ReferralCode)
		if err != nil {
			// The account stays open; the code can be redeemed later.
			log.Printf("signup referral for %s not applied: %v", account.ID, err)
			body["referral_error"] = err.Error()
		} else {
			body["referral"] = res
		}
	}

	return utils.Created(c, body)
}
