package handlers

import (
	"strconv"

	"waiterfm/internal/apperrors"
	"waiterfm/internal/middleware"
	"waiterfm/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	errors      ErrorResponder
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, errors ErrorResponder) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		errors:      errors,
	}
}

// RegisterRoutes registers the authentication routes. requireAuth guards the
// routes that need a session token.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, requireAuth fiber.Handler) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Post("/federated", h.HandleFederatedLogin)
	authRoutes.Post("/google", h.HandleFederatedLogin)

	authRoutes.Get("/validate", requireAuth, h.HandleValidate)
	authRoutes.Get("/profile", requireAuth, h.HandleGetProfile)
	authRoutes.Put("/profile", requireAuth, h.HandleUpdateProfile)
	authRoutes.Get("/users", requireAuth, h.HandleListUsers)
	authRoutes.Get("/users/:id/history", requireAuth, h.HandleUserHistory)
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req services.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return h.errors.invalidBody(c, err)
	}

	result, err := h.authService.RegisterUser(req)
	if err != nil {
		return h.errors.Respond(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User created successfully",
		"token":   result.Token,
		"user":    result.User,
	})
}

// LoginRequest represents the request body for login. Username may also hold
// the account email.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin handles user login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return h.errors.invalidBody(c, err)
	}

	result, err := h.authService.LoginUser(req.Username, req.Password, clientInfo(c))
	if err != nil {
		return h.errors.Respond(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   result.Token,
		"user":    result.User,
	})
}

// HandleFederatedLogin signs in through an external identity provider.
func (h *AuthHandler) HandleFederatedLogin(c *fiber.Ctx) error {
	var req services.FederatedInput
	if err := c.BodyParser(&req); err != nil {
		return h.errors.invalidBody(c, err)
	}

	result, err := h.authService.FederatedLogin(req, clientInfo(c))
	if err != nil {
		return h.errors.Respond(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Federated authentication successful",
		"token":   result.Token,
		"user":    result.User,
	})
}

func (h *AuthHandler) HandleValidate(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"valid": true,
		"user":  middleware.Claims(c),
	})
}

func (h *AuthHandler) HandleGetProfile(c *fiber.Ctx) error {
	user, err := h.authService.GetProfile(middleware.CurrentCaller(c).ID)
	if err != nil {
		return h.errors.Respond(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

func (h *AuthHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	var req services.ProfileUpdate
	if err := c.BodyParser(&req); err != nil {
		return h.errors.invalidBody(c, err)
	}

	user, err := h.authService.UpdateProfile(middleware.CurrentCaller(c).ID, req)
	if err != nil {
		return h.errors.Respond(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

func (h *AuthHandler) HandleListUsers(c *fiber.Ctx) error {
	users, err := h.authService.ListUsers(middleware.CurrentCaller(c))
	if err != nil {
		return h.errors.Respond(c, err)
	}
	return c.JSON(fiber.Map{"users": users})
}

func (h *AuthHandler) HandleUserHistory(c *fiber.Ctx) error {
	caller := middleware.CurrentCaller(c)
	userID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		// Non-admins get 403 regardless of the path parameter.
		if authErr := services.RequireAdmin(caller); authErr != nil {
			return h.errors.Respond(c, authErr)
		}
		return h.errors.Respond(c, apperrors.New(apperrors.InvalidInput, "Invalid user id"))
	}

	history, err := h.authService.GetUserHistory(caller, uint(userID))
	if err != nil {
		return h.errors.Respond(c, err)
	}
	return c.JSON(fiber.Map{"history": history})
}

func clientInfo(c *fiber.Ctx) services.ClientInfo {
	return services.ClientInfo{
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}
}
