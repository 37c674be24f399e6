package handlers

import (
	"errors"

	"github.com/autohub-app/autohub-backend/internal/dto"
	"github.com/autohub-app/autohub-backend/internal/middleware"
	"github.com/autohub-app/autohub-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type SettingsHandler struct {
	settingsService *services.SettingsService
}

func NewSettingsHandler(settingsService *services.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// List handles GET /admin/settings.
func (h *SettingsHandler) List(c *fiber.Ctx) error {
	settings, err := h.settingsService.List()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load settings",
		})
	}
	return c.JSON(fiber.Map{"settings": settings})
}

// Set handles PUT /admin/settings/:key.
func (h *SettingsHandler) Set(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	key := c.Params("key")
	if key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Setting key is required",
		})
	}

	var req dto.SettingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	setting, err := h.settingsService.Set(key, req.Value, userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to save setting",
		})
	}
	return c.JSON(setting)
}

// Delete handles DELETE /admin/settings/:key.
func (h *SettingsHandler) Delete(c *fiber.Ctx) error {
	key := c.Params("key")

	if err := h.settingsService.Delete(key); err != nil {
		if errors.Is(err, services.ErrSettingNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to delete setting",
		})
	}
	return c.JSON(fiber.Map{"message": "Setting deleted"})
}
