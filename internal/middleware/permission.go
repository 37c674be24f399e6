package middleware

import (
	"github.com/autohub-app/autohub-backend/internal/dto"
	"github.com/autohub-app/autohub-backend/internal/models"
	"github.com/autohub-app/autohub-backend/internal/permission"
	"github.com/autohub-app/autohub-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// accessDenied is the one message every authorization failure gets. A
// denied caller must not be able to tell a missing feature from a missing
// bit.
const accessDenied = "Access denied"

// RequireFeature guards a route behind a (feature, action) grant check.
// The current user is loaded fresh from the database so a role change
// takes effect without waiting for token expiry; any load failure denies.
func RequireFeature(db *gorm.DB, grants *services.GrantService, feature permission.Feature, action permission.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := CurrentUserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		var user models.User
		if err := db.First(&user, "id = ?", userID).Error; err != nil {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: accessDenied,
			})
		}

		if !grants.Authorize(&user, feature, action) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: accessDenied,
			})
		}

		c.Locals("actor", &user)
		return c.Next()
	}
}
