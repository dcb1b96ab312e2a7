// Package middleware provides HTTP middleware components for the application.
package middleware

import (
	"crypto/subtle"
	"log"

	"github.com/gofiber/fiber/v2"
)

// InternalTokenHeader carries the shared secret of internal callers.
const InternalTokenHeader = "X-Internal-Token"

// InternalOnly admits requests presenting token in InternalTokenHeader.
// An empty token admits everything, for local development.
func InternalOnly(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token == "" {
			return c.Next()
		}
		got := c.Get(InternalTokenHeader)
		if got == "" {
			log.Printf("Missing %s header from %s", InternalTokenHeader, c.IP())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing internal token"})
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			log.Printf("Invalid internal token from %s", c.IP())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid internal token"})
		}
		return c.Next()
	}
}
