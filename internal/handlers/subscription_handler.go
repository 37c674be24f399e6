package handlers

import (
	"errors"

	"github.com/autohub-app/autohub-backend/internal/dto"
	"github.com/autohub-app/autohub-backend/internal/entitlement"
	"github.com/autohub-app/autohub-backend/internal/middleware"
	"github.com/autohub-app/autohub-backend/internal/models"
	"github.com/autohub-app/autohub-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type SubscriptionHandler struct {
	subscriptionService *services.SubscriptionService
	planService         *services.PlanService
}

func NewSubscriptionHandler(subscriptionService *services.SubscriptionService, planService *services.PlanService) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
		planService:         planService,
	}
}

// Purchase handles POST /subscriptions.
func (h *SubscriptionHandler) Purchase(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.PurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	plan, err := h.planService.Get(req.PlanID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Plan not found",
		})
	}

	sub, err := h.subscriptionService.Purchase(userID, plan, &req)
	if err != nil {
		switch {
		case errors.Is(err, entitlement.ErrActiveSubscription):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, entitlement.ErrPlanInactive),
			errors.Is(err, entitlement.ErrEndDateRequired),
			errors.Is(err, services.ErrPaymentDeclined):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Failed to process purchase",
			})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(subscriptionResponse(sub))
}

// Current handles GET /subscriptions/current.
func (h *SubscriptionHandler) Current(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	sub, err := h.subscriptionService.Current(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load subscription",
		})
	}

	resp := dto.EntitlementResponse{Active: sub != nil}
	if sub != nil {
		r := subscriptionResponse(sub)
		resp.Subscription = &r
	}
	return c.JSON(resp)
}

// Entitlement handles GET /subscriptions/entitlement. It answers the
// one question the listing form needs before offering premium promotion,
// without shipping the whole subscription record.
func (h *SubscriptionHandler) Entitlement(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	active, err := h.subscriptionService.HasActiveEntitlement(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load subscription",
		})
	}
	return c.JSON(dto.EntitlementResponse{Active: active})
}

// History handles GET /subscriptions.
func (h *SubscriptionHandler) History(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	subs, err := h.subscriptionService.History(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load subscriptions",
		})
	}

	out := make([]dto.SubscriptionResponse, 0, len(subs))
	for i := range subs {
		out = append(out, subscriptionResponse(&subs[i]))
	}
	return c.JSON(fiber.Map{"subscriptions": out})
}

// Cancel handles POST /subscriptions/:id/cancel. Owners can cancel their
// own subscription; the admin route reuses this handler behind a
// subscription_management grant.
func (h *SubscriptionHandler) Cancel(c *fiber.Ctx) error {
	subID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid subscription id",
		})
	}

	// The admin route arrives through a subscription_management grant
	// check which stores the actor; the self-service route is limited to
	// the caller's own records.
	var sub *models.Subscription
	if c.Locals("actor") != nil {
		sub, err = h.subscriptionService.Cancel(subID)
	} else {
		userID, uidErr := middleware.CurrentUserID(c)
		if uidErr != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}
		sub, err = h.subscriptionService.CancelOwned(userID, subID)
	}
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSubscriptionNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, entitlement.ErrAlreadyTerminal),
			errors.Is(err, entitlement.ErrNotActive):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Failed to cancel subscription",
			})
		}
	}

	return c.JSON(subscriptionResponse(sub))
}

// ListPending handles GET /admin/payments/pending.
func (h *SubscriptionHandler) ListPending(c *fiber.Ctx) error {
	subs, err := h.subscriptionService.ListPending()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load pending payments",
		})
	}

	out := make([]dto.SubscriptionResponse, 0, len(subs))
	for i := range subs {
		out = append(out, subscriptionResponse(&subs[i]))
	}
	return c.JSON(fiber.Map{"subscriptions": out})
}

// ConfirmPayment handles POST /admin/payments/:id/confirm.
func (h *SubscriptionHandler) ConfirmPayment(c *fiber.Ctx) error {
	subID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid subscription id",
		})
	}

	var req dto.ConfirmPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	sub, err := h.subscriptionService.ConfirmPayment(subID, req.TransactionID)
	if err != nil {
		return paymentError(c, err)
	}
	return c.JSON(subscriptionResponse(sub))
}

// RejectPayment handles POST /admin/payments/:id/reject.
func (h *SubscriptionHandler) RejectPayment(c *fiber.Ctx) error {
	subID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid subscription id",
		})
	}

	sub, err := h.subscriptionService.RejectPayment(subID)
	if err != nil {
		return paymentError(c, err)
	}
	return c.JSON(subscriptionResponse(sub))
}

func paymentError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrSubscriptionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, entitlement.ErrNotPending),
		errors.Is(err, entitlement.ErrActiveSubscription):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to process payment update",
		})
	}
}

func subscriptionResponse(sub *models.Subscription) dto.SubscriptionResponse {
	return dto.SubscriptionResponse{
		ID:            sub.ID,
		PlanID:        sub.PlanID,
		PlanType:      sub.PlanType,
		Status:        sub.Status,
		StartDate:     sub.StartDate,
		EndDate:       sub.EndDate,
		Price:         sub.Price,
		PaymentMethod: sub.PaymentMethod,
		TransactionID: sub.TransactionID,
		ConsumedSlots: sub.ConsumedSlots,
	}
}
