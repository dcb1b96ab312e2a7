package handlers

import (
	"orusledger/internal/services/referral"
	"orusledger/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type ReferralHandler struct {
	referralService referral.Service
}

func NewReferralHandler(referralService referral.Service) *ReferralHandler {
	return &ReferralHandler{
		referralService: referralService,
	}
}

func (h *ReferralHandler) GetReferralCode(c *fiber.Ctx) error {
	code, err := h.referralService.GetReferralCode(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, code)
}

func (h *ReferralHandler) ApplyReferral(c *fiber.Ctx) error {
	var input struct {
		ReferralCode string `json:"referral_code"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}

	res, err := h.referralService.ApplyReferral(c.Context(), c.Params("id"), input.ReferralCode)
	if err != nil {
		return respondError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"message":      "Referral applied successfully",
		"coins_earned": res.BonusAmount,
		"referrer_id":  res.ReferrerID,
	})
}
