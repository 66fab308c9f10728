package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"waiterfm/internal/apperrors"
	"waiterfm/internal/models"
	"waiterfm/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/crypto/bcrypt"
)

// HistoryLimit caps the number of login history rows returned to admins.
const HistoryLimit = 50

// Claims are the session token contents.
type Claims struct {
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Role         string `json:"role"`
	RestaurantID string `json:"restaurant_id"`
	jwt.StandardClaims
}

// Caller identifies the authenticated user behind a request.
type Caller struct {
	ID   uint
	Role string
}

// Caller returns the identity carried by the claims.
func (c *Claims) Caller() Caller {
	return Caller{ID: c.ID, Role: c.Role}
}

// RequireAdmin is the capability check guarding admin-only operations.
func RequireAdmin(caller Caller) error {
	if caller.Role != models.RoleAdmin {
		return apperrors.New(apperrors.Forbidden, "Admin access required")
	}
	return nil
}

// RegisterInput is the request body for password registration.
type RegisterInput struct {
	Username     string `json:"username" validate:"required,max=100"`
	Email        string `json:"email" validate:"required,email,max=255"`
	Password     string `json:"password" validate:"required,min=6"`
	FirstName    string `json:"firstName" validate:"required,max=100"`
	LastName     string `json:"lastName" validate:"required,max=100"`
	Role         string `json:"role" validate:"omitempty,oneof=admin waiter"`
	RestaurantID string `json:"restaurant_id" validate:"max=100"`
}

// FederatedInput carries the identity asserted by an external provider.
type FederatedInput struct {
	ProviderID     string `json:"googleId" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	FirstName      string `json:"firstName" validate:"required"`
	LastName       string `json:"lastName" validate:"required"`
	ProfilePicture string `json:"profilePicture"`
}

// ProfileUpdate is a partial profile change; nil fields are left untouched.
type ProfileUpdate struct {
	Username     *string `json:"username" validate:"omitempty,max=100"`
	Email        *string `json:"email" validate:"omitempty,email,max=255"`
	FirstName    *string `json:"firstName" validate:"omitempty,max=100"`
	LastName     *string `json:"lastName" validate:"omitempty,max=100"`
	RestaurantID *string `json:"restaurant_id" validate:"omitempty,max=100"`
}

// ClientInfo describes where a login came from.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// AuthResult is returned by every successful sign-in.
type AuthResult struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo   repositories.UserRepository
	jwtSecret  []byte
	tokenDurat time.Duration // Duration for which JWT is valid
	validate   *validator.Validate
	now        func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		userRepo:   userRepo,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: tokenTTL,
		validate:   validator.New(),
		now:        time.Now,
	}
}

// RegisterUser creates a password account and signs it in.
func (s *AuthService) RegisterUser(in RegisterInput) (*AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateStruct(s.validate, in, "Validation failed"); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = models.RoleWaiter
	}

	// Check if username or email already exists
	if _, err := s.userRepo.GetByUsername(in.Username); err == nil {
		return nil, apperrors.New(apperrors.Conflict, fmt.Sprintf("username '%s' already taken", in.Username))
	} else if !errors.Is(err, repositories.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.Internal, err, "failed to check username")
	}
	if _, err := s.userRepo.GetByEmail(in.Email); err == nil {
		return nil, apperrors.New(apperrors.Conflict, fmt.Sprintf("email '%s' already registered", in.Email))
	} else if !errors.Is(err, repositories.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.Internal, err, "failed to check email")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, err, "failed to hash password")
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hashedPassword),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         in.Role,
		RestaurantID: in.RestaurantID,
		IsActive:     true,
	}
	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.Wrap(apperrors.Conflict, err, "Username or email already exists")
		}
		return nil, apperrors.Wrap(apperrors.Internal, err, "failed to register user")
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user.Public()}, nil
}

// LoginUser authenticates by username or email and password.
func (s *AuthService) LoginUser(login, password string, client ClientInfo) (*AuthResult, error) {
	if strings.TrimSpace(login) == "" || password == "" {
		return nil, apperrors.New(apperrors.InvalidInput, "Username and password are required")
	}

	user, err := s.userRepo.GetByLogin(strings.TrimSpace(login))
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.Unauthorized, "invalid credentials")
		}
		return nil, apperrors.Wrap(apperrors.Internal, err, "failed to look up user")
	}

	// Federated-only accounts have no hash and never match.
	if user.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, apperrors.New(apperrors.Unauthorized, "invalid credentials")
	}
	if !user.IsActive {
		return nil, apperrors.New(apperrors.Unauthorized, "account is disabled")
	}

	return s.completeLogin(user, client)
}

// FederatedLogin signs in a user asserted by an external identity provider,
// linking or creating the local account as needed.
func (s *AuthService) FederatedLogin(in FederatedInput, client ClientInfo) (*AuthResult, error) {
	if err := validateStruct(s.validate, in, "Federated authentication data is incomplete"); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByProviderID(in.ProviderID)
	switch {
	case err == nil:
	case errors.Is(err, repositories.ErrRecordNotFound):
		user, err = s.userRepo.GetByEmail(in.Email)
		switch {
		case err == nil:
			if err := s.userRepo.LinkProvider(user.ID, in.ProviderID, in.ProfilePicture); err != nil {
				return nil, apperrors.Wrap(apperrors.Internal, err, "failed to link federated identity")
			}
			user.ProviderID = &in.ProviderID
			user.ProfilePicture = in.ProfilePicture
			log.Printf("Linked federated identity to user %d", user.ID)
		case errors.Is(err, repositories.ErrRecordNotFound):
			user, err = s.createFederatedUser(in)
			if err != nil {
				return nil, err
			}
		default:
			return nil, apperrors.Wrap(apperrors.Internal, err, "failed to look up user by email")
		}
	default:
		return nil, apperrors.Wrap(apperrors.Internal, err, "failed to look up federated identity")
	}

	if !user.IsActive {
		return nil, apperrors.New(apperrors.Unauthorized, "account is disabled")
	}
	return s.completeLogin(user, client)
}

func (s *AuthService) createFederatedUser(in FederatedInput) (*models.User, error) {
	username, err := s.generateUsername(in.Email)
	if err != nil {
		return nil, err
	}
	providerID := in.ProviderID
	user := &models.User{
		Username:       username,
		Email:          in.Email,
		ProviderID:     &providerID,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Role:           models.RoleWaiter,
		ProfilePicture: in.ProfilePicture,
		IsActive:       true,
	}
	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.Wrap(apperrors.Conflict, err, "account already exists")
		}
		return nil, apperrors.Wrap(apperrors.Internal, err, "failed to create user")
	}
	log.Printf("Created federated user %s", user.Username)
	return user, nil
}

// generateUsername derives a username from the email local part plus a random
// suffix, e.g. "jane-doe_3f9a1c2b".
func (s *AuthService) generateUsername(email string) (string, error) {
	local := email
	if at := strings.Index(email, "@"); at >= 0 {
		local = email[:at]
	}
	base := slug.Make(local)
	if base == "" {
		base = "user"
	}
	for attempt := 0; attempt < 5; attempt++ {
		candidate := base + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
		_, err := s.userRepo.GetByUsername(candidate)
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", apperrors.Wrap(apperrors.Internal, err, "failed to check username")
		}
	}
	return "", apperrors.New(apperrors.Internal, "could not generate a unique username")
}

// completeLogin applies the side effects shared by every successful sign-in.
func (s *AuthService) completeLogin(user *models.User, client ClientInfo) (*AuthResult, error) {
	now := s.now()
	entry := &models.LoginHistoryEntry{
		UserID:    user.ID,
		LoginTime: now,
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
	}
	if err := s.userRepo.RecordLogin(entry); err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, err, "failed to record login")
	}
	user.LoginCount++
	user.LastLogin = &now

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user.Public()}, nil
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	now := s.now()
	claims := Claims{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Role:         user.Role,
		RestaurantID: user.RestaurantID,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(s.tokenDurat).Unix(),
			IssuedAt:  now.Unix(),
		},
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", apperrors.Wrap(apperrors.Internal, err, "failed to generate token")
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Unauthorized, err, "invalid token")
	}
	if !token.Valid {
		return nil, apperrors.New(apperrors.Unauthorized, "invalid token")
	}
	return claims, nil
}

// GetProfile returns the public view of the user.
func (s *AuthService) GetProfile(userID uint) (*models.PublicUser, error) {
	user, err := s.loadUser(userID)
	if err != nil {
		return nil, err
	}
	view := user.Public()
	return &view, nil
}

// UpdateProfile applies a partial update and returns the refreshed view.
func (s *AuthService) UpdateProfile(userID uint, in ProfileUpdate) (*models.PublicUser, error) {
	if err := validateStruct(s.validate, in, "Validation failed"); err != nil {
		return nil, err
	}
	user, err := s.loadUser(userID)
	if err != nil {
		return nil, err
	}

	if in.Username != nil || in.Email != nil {
		username, email := "", ""
		if in.Username != nil {
			username = strings.TrimSpace(*in.Username)
		}
		if in.Email != nil {
			email = strings.TrimSpace(*in.Email)
		}
		if _, err := s.userRepo.FindConflict(username, email, userID); err == nil {
			return nil, apperrors.New(apperrors.Conflict, "Username or email already exists")
		} else if !errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, apperrors.Wrap(apperrors.Internal, err, "failed to check username and email")
		}
		if username != "" {
			user.Username = username
		}
		if email != "" {
			user.Email = email
		}
	}
	if in.FirstName != nil {
		user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		user.LastName = *in.LastName
	}
	if in.RestaurantID != nil {
		user.RestaurantID = *in.RestaurantID
	}

	if err := s.userRepo.Update(user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.Wrap(apperrors.Conflict, err, "Username or email already exists")
		}
		return nil, apperrors.Wrap(apperrors.Internal, err, "failed to update profile")
	}
	view := user.Public()
	return &view, nil
}

// ListUsers returns the roster with login totals. Admin only.
func (s *AuthService) ListUsers(caller Caller) ([]models.UserSummary, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	users, err := s.userRepo.ListWithLoginTotals()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, err, "failed to list users")
	}
	return users, nil
}

// GetUserHistory returns the latest logins of a user, newest first. Admin only.
func (s *AuthService) GetUserHistory(caller Caller, userID uint) ([]models.LoginHistoryEntry, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	history, err := s.userRepo.LoginHistory(userID, HistoryLimit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, err, "failed to get login history")
	}
	return history, nil
}

func (s *AuthService) loadUser(userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.NotFound, "User not found")
		}
		return nil, apperrors.Wrap(apperrors.Internal, err, "failed to load user")
	}
	return user, nil
}
