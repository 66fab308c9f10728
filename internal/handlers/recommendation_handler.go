package handlers

import (
	"waiterfm/internal/services"

	"github.com/gofiber/fiber/v2"
)

// RecommendationHandler serves the category recommendation stub.
type RecommendationHandler struct {
	service *services.RecommendationService
	errors  ErrorResponder
}

// NewRecommendationHandler creates a new RecommendationHandler.
func NewRecommendationHandler(service *services.RecommendationService, errors ErrorResponder) *RecommendationHandler {
	return &RecommendationHandler{
		service: service,
		errors:  errors,
	}
}

func (h *RecommendationHandler) RegisterRoutes(router fiber.Router, requireAuth fiber.Handler) {
	routes := router.Group("/recommend-categories", requireAuth)
	routes.Post("/", h.HandleRecommend)
	routes.Post("/categories", h.HandleRecommend)
}

func (h *RecommendationHandler) HandleRecommend(c *fiber.Ctx) error {
	var req services.RecommendationRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return h.errors.invalidBody(c, err)
		}
	}
	return c.JSON(fiber.Map{"recommendations": h.service.Recommend(req)})
}
