package middleware

import (
	"github.com/bkoseoglu/mallhub/internal/access"
	"github.com/bkoseoglu/mallhub/internal/dto"
	"github.com/gofiber/fiber/v2"
)

// Guard translates the access gate's verdict to an HTTP response. Denials
// terminate the request; the protected handler never runs partially.
func Guard(requirement access.Requirement) fiber.Handler {
	return func(c *fiber.Ctx) error {
		decision := access.Decide(SessionFromCtx(c), requirement)

		switch decision.Verdict {
		case access.Allow:
			return c.Next()
		case access.ShowLoading:
			c.Set(fiber.HeaderRetryAfter, "1")
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Error: true, Message: "Session is still loading, retry shortly",
			})
		case access.RedirectToLogin:
			c.Set(fiber.HeaderLocation, decision.Location)
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Authentication required",
			})
		case access.Deny:
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: decision.Message,
			})
		case access.Redirect:
			return c.Redirect(decision.Location, fiber.StatusSeeOther)
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Forbidden",
		})
	}
}
