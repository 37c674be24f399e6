package handlers

import (
	"errors"
	"strconv"

	"github.com/autohub-app/autohub-backend/internal/dto"
	"github.com/autohub-app/autohub-backend/internal/entitlement"
	"github.com/autohub-app/autohub-backend/internal/middleware"
	"github.com/autohub-app/autohub-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type VehicleHandler struct {
	vehicleService *services.VehicleService
}

func NewVehicleHandler(vehicleService *services.VehicleService) *VehicleHandler {
	return &VehicleHandler{vehicleService: vehicleService}
}

// ListPublic handles GET /vehicles - the public marketplace.
func (h *VehicleHandler) ListPublic(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	vehicles, total, err := h.vehicleService.ListPublic(limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load vehicles",
		})
	}

	return c.JSON(fiber.Map{
		"vehicles": vehicles,
		"total":    total,
	})
}

// ListOwned handles GET /my/vehicles.
func (h *VehicleHandler) ListOwned(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	vehicles, err := h.vehicleService.ListOwned(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load vehicles",
		})
	}
	return c.JSON(fiber.Map{"vehicles": vehicles})
}

func (h *VehicleHandler) Create(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.VehicleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	vehicle, err := h.vehicleService.Create(userID, &req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(vehicle)
}

func (h *VehicleHandler) Update(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid vehicle id",
		})
	}

	var req dto.VehicleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	vehicle, err := h.vehicleService.Update(userID, id, &req)
	if err != nil {
		return vehicleError(c, err)
	}
	return c.JSON(vehicle)
}

func (h *VehicleHandler) Delete(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid vehicle id",
		})
	}

	if err := h.vehicleService.Delete(userID, id); err != nil {
		return vehicleError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Vehicle deleted"})
}

// MarkPremium handles POST /my/vehicles/:id/premium. The error kind
// matters to the client: quota exhaustion and auto-cancel both call for a
// renewal prompt, a missing active subscription calls for the plan page.
func (h *VehicleHandler) MarkPremium(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid vehicle id",
		})
	}

	vehicle, result, err := h.vehicleService.MarkPremium(userID, id)
	if err != nil {
		switch {
		case errors.Is(err, entitlement.ErrNotActive):
			return c.Status(fiber.StatusPaymentRequired).JSON(dto.ErrorResponse{
				Error: true, Message: "No active subscription",
			})
		case errors.Is(err, entitlement.ErrQuotaExhausted):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrAlreadyPremium):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		default:
			return vehicleError(c, err)
		}
	}

	return c.JSON(dto.MarkPremiumResponse{
		VehicleID:     vehicle.ID,
		IsPremium:     vehicle.IsPremium,
		AutoCancelled: result.AutoCancelled,
		Subscription:  subscriptionResponse(result.Subscription),
	})
}

// Moderate handles PUT /admin/vehicles/:id/status.
func (h *VehicleHandler) Moderate(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid vehicle id",
		})
	}

	var req dto.ModerateVehicleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	vehicle, err := h.vehicleService.Moderate(id, req.Status)
	if err != nil {
		return vehicleError(c, err)
	}
	return c.JSON(vehicle)
}

// ListForModeration handles GET /admin/vehicles/pending.
func (h *VehicleHandler) ListForModeration(c *fiber.Ctx) error {
	vehicles, err := h.vehicleService.ListForModeration()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load vehicles",
		})
	}
	return c.JSON(fiber.Map{"vehicles": vehicles})
}

func vehicleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrVehicleNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, services.ErrNotOwner):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	default:
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}
}
