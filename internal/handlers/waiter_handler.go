package handlers

import (
	"waiterfm/internal/services"

	"github.com/gofiber/fiber/v2"
)

// WaiterHandler serves the waiter roster.
type WaiterHandler struct {
	service *services.WaiterService
	errors  ErrorResponder
}

// NewWaiterHandler creates a new WaiterHandler.
func NewWaiterHandler(service *services.WaiterService, errors ErrorResponder) *WaiterHandler {
	return &WaiterHandler{
		service: service,
		errors:  errors,
	}
}

// RegisterRoutes registers the roster routes; reading is public.
func (h *WaiterHandler) RegisterRoutes(router fiber.Router, requireAuth fiber.Handler) {
	waiterRoutes := router.Group("/waiters")
	waiterRoutes.Get("/", h.HandleList)
	waiterRoutes.Post("/", requireAuth, h.HandleCreate)
}

func (h *WaiterHandler) HandleList(c *fiber.Ctx) error {
	names, err := h.service.ListNames()
	if err != nil {
		return h.errors.Respond(c, err)
	}
	return c.JSON(fiber.Map{"waiters": names})
}

func (h *WaiterHandler) HandleCreate(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return h.errors.invalidBody(c, err)
	}

	waiter, err := h.service.AddWaiter(req.Name)
	if err != nil {
		return h.errors.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Waiter added successfully",
		"waiter":  fiber.Map{"id": waiter.ID, "name": waiter.Name},
	})
}
