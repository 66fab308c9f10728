package handlers

import (
	"waiterfm/internal/apperrors"
	"waiterfm/internal/middleware"
	"waiterfm/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CompetitionHandler handles HTTP requests for sales competitions.
type CompetitionHandler struct {
	service *services.CompetitionService
	errors  ErrorResponder
}

// NewCompetitionHandler creates a new CompetitionHandler.
func NewCompetitionHandler(service *services.CompetitionService, errors ErrorResponder) *CompetitionHandler {
	return &CompetitionHandler{
		service: service,
		errors:  errors,
	}
}

// RegisterRoutes registers the competition routes. Only the active
// competition is readable without a token.
func (h *CompetitionHandler) RegisterRoutes(router fiber.Router, requireAuth fiber.Handler) {
	competitionRoutes := router.Group("/competition")
	competitionRoutes.Get("/active", h.HandleGetActive)

	competitionRoutes.Get("/", requireAuth, h.HandleListAll)
	competitionRoutes.Post("/start", requireAuth, h.HandleStart)
	competitionRoutes.Post("/stop", requireAuth, h.HandleStop)
	competitionRoutes.Post("/participate", requireAuth, h.HandleParticipate)
	competitionRoutes.Put("/progress", requireAuth, h.HandleUpdateProgress)
	competitionRoutes.Get("/status", requireAuth, h.HandleStatus)
	competitionRoutes.Get("/leaderboard", requireAuth, h.HandleLeaderboard)
}

func (h *CompetitionHandler) HandleGetActive(c *fiber.Ctx) error {
	competition, err := h.service.GetActive()
	if err != nil {
		return h.errors.Respond(c, err)
	}
	return c.JSON(fiber.Map{"competition": competition})
}

func (h *CompetitionHandler) HandleListAll(c *fiber.Ctx) error {
	competitions, err := h.service.ListAll(middleware.CurrentCaller(c))
	if err != nil {
		return h.errors.Respond(c, err)
	}
	return c.JSON(fiber.Map{"competitions": competitions})
}

// HandleStart starts a new competition, replacing the active one.
func (h *CompetitionHandler) HandleStart(c *fiber.Ctx) error {
	caller := middleware.CurrentCaller(c)
	if err := services.RequireAdmin(caller); err != nil {
		return h.errors.Respond(c, err)
	}

	var req services.StartInput
	if err := c.BodyParser(&req); err != nil {
		return h.errors.invalidBody(c, err)
	}

	competition, err := h.service.Start(caller, req)
	if err != nil {
		return h.errors.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":     "Competition started successfully",
		"competition": competition,
	})
}

func (h *CompetitionHandler) HandleStop(c *fiber.Ctx) error {
	if err := h.service.Stop(middleware.CurrentCaller(c)); err != nil {
		return h.errors.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Competition stopped successfully"})
}

// ParticipateRequest is the body of the participation toggle.
type ParticipateRequest struct {
	Participate *bool `json:"participate"`
}

func (h *CompetitionHandler) HandleParticipate(c *fiber.Ctx) error {
	var req ParticipateRequest
	if err := c.BodyParser(&req); err != nil {
		return h.errors.invalidBody(c, err)
	}
	if req.Participate == nil {
		return h.errors.Respond(c, apperrors.New(apperrors.InvalidInput, "participate must be true or false"))
	}

	if err := h.service.SetParticipation(middleware.CurrentCaller(c).ID, *req.Participate); err != nil {
		return h.errors.Respond(c, err)
	}

	message := "Successfully left competition"
	if *req.Participate {
		message = "Successfully joined competition"
	}
	return c.JSON(fiber.Map{
		"message":       message,
		"participating": *req.Participate,
	})
}

// ProgressRequest is the body of a progress update.
type ProgressRequest struct {
	ActualQuantity *int `json:"actualQuantity"`
}

func (h *CompetitionHandler) HandleUpdateProgress(c *fiber.Ctx) error {
	var req ProgressRequest
	if err := c.BodyParser(&req); err != nil {
		return h.errors.Respond(c, apperrors.Wrap(apperrors.InvalidInput, err, "Valid actual quantity is required"))
	}
	if req.ActualQuantity == nil {
		return h.errors.Respond(c, apperrors.New(apperrors.InvalidInput, "Valid actual quantity is required"))
	}

	result, err := h.service.UpdateProgress(middleware.CurrentCaller(c).ID, *req.ActualQuantity)
	if err != nil {
		return h.errors.Respond(c, err)
	}
	return c.JSON(fiber.Map{
		"message":        "Progress updated successfully",
		"actualQuantity": result.ActualQuantity,
		"targetQuantity": result.TargetQuantity,
		"progress":       result.ProgressPercent,
	})
}

func (h *CompetitionHandler) HandleStatus(c *fiber.Ctx) error {
	status, err := h.service.GetStatus(middleware.CurrentCaller(c).ID)
	if err != nil {
		return h.errors.Respond(c, err)
	}
	return c.JSON(status)
}

func (h *CompetitionHandler) HandleLeaderboard(c *fiber.Ctx) error {
	leaderboard, err := h.service.GetLeaderboard(middleware.CurrentCaller(c))
	if err != nil {
		return h.errors.Respond(c, err)
	}
	return c.JSON(leaderboard)
}
