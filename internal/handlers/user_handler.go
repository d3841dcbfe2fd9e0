package handlers

import (
	"recipebox/internal/metrics"
	"recipebox/internal/middleware"
	"recipebox/internal/models"
	"recipebox/internal/services"
	"recipebox/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// UserHandler handles HTTP requests for accounts and tokens.
type UserHandler struct {
	accounts *services.AccountService
	tokens   *services.TokenService
	validate *validation.Validator
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(accounts *services.AccountService, tokens *services.TokenService) *UserHandler {
	return &UserHandler{
		accounts: accounts,
		tokens:   tokens,
		validate: validation.New(),
	}
}

// RegisterRoutes registers the user routes. auth guards /me; tokenLimit throttles /token.
func (h *UserHandler) RegisterRoutes(router fiber.Router, auth, tokenLimit fiber.Handler) {
	userRoutes := router.Group("/user")
	userRoutes.Post("/create", h.HandleCreate)
	userRoutes.Post("/token", tokenLimit, h.HandleToken)
	userRoutes.Get("/me", auth, h.HandleGetMe)
	userRoutes.Patch("/me", auth, h.HandleUpdateMe)
}

// UserResponse is the public view of an account.
type UserResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{Email: u.Email, Name: u.Name}
}

// TokenRequest is the credential exchange payload.
type TokenRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleCreate registers a new user.
func (h *UserHandler) HandleCreate(c *fiber.Ctx) error {
	var req services.RegisterInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := h.accounts.Register(c.UserContext(), req)
	if err != nil {
		return err
	}

	log.Info().Uint("user_id", user.ID).Msg("user registered")
	return c.Status(fiber.StatusCreated).JSON(toUserResponse(user))
}

// HandleToken exchanges credentials for a token.
func (h *UserHandler) HandleToken(c *fiber.Ctx) error {
	var req TokenRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.validate.Validate(req); err != nil {
		return err
	}

	token, err := h.tokens.IssueToken(c.UserContext(), req.Email, req.Password)
	metrics.RecordTokenIssued(err == nil)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"token": token})
}

// HandleGetMe returns the authenticated user's profile.
func (h *UserHandler) HandleGetMe(c *fiber.Ctx) error {
	return c.JSON(toUserResponse(middleware.CurrentUser(c)))
}

// HandleUpdateMe changes the authenticated user's name and/or password.
func (h *UserHandler) HandleUpdateMe(c *fiber.Ctx) error {
	var req services.ProfileUpdate
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := h.accounts.UpdateProfile(c.UserContext(), middleware.CurrentUser(c).ID, req)
	if err != nil {
		return err
	}
	return c.JSON(toUserResponse(user))
}
