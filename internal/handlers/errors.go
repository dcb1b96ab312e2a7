package handlers

import (
	"errors"
	"log"

	apperrors "orusledger/internal/errors"
	"orusledger/internal/utils"
	"orusledger/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps a domain error onto an HTTP status.
func StatusFor(de *apperrors.DomainError) int {
	switch de {
	case apperrors.ErrInvalidAmount,
		apperrors.ErrInvalidCurrency,
		apperrors.ErrInvalidDirection,
		apperrors.ErrInvalidAccountID,
		apperrors.ErrInvalidReferralCode:
		return fiber.StatusBadRequest
	case apperrors.ErrAccountNotFound:
		return fiber.StatusNotFound
	case apperrors.ErrAlreadyReferred, apperrors.ErrAccountExists:
		return fiber.StatusConflict
	case apperrors.ErrInsufficientFunds, apperrors.ErrSelfReferral:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

func respondError(c *fiber.Ctx, err error) error {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return utils.Respond(c, fiber.StatusBadRequest, fiber.Map{
			"error":  "validation failed",
			"code":   "VALIDATION_FAILED",
			"fields": verrs,
		})
	}
	if de, ok := apperrors.As(err); ok {
		return utils.Error(c, StatusFor(de), de.Code, de.Message)
	}
	log.Printf("⚠️ %s %s failed: %v", c.Method(), c.Path(), err)
	return utils.InternalError(c, "internal server error")
}
