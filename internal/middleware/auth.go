package middleware

import (
	"strings"

	"recipebox/internal/apperrors"
	"recipebox/internal/models"
	"recipebox/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const userKey = "user"

// TokenAuth is a Fiber middleware that resolves the Authorization header to an active user.
// Both "Token <key>" and "Bearer <key>" are accepted.
func TokenAuth(tokens *services.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return apperrors.Unauthorized("authentication credentials were not provided")
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !(strings.EqualFold(parts[0], "Token") || strings.EqualFold(parts[0], "Bearer")) {
			return apperrors.Unauthorized("authorization header format must be 'Token <key>'")
		}

		user, err := tokens.Authenticate(c.UserContext(), parts[1])
		if err != nil {
			log.Debug().Err(err).Str("path", c.Path()).Msg("token authentication failed")
			return err
		}

		c.Locals(userKey, user)
		return c.Next()
	}
}

// CurrentUser returns the user stored by TokenAuth, or nil on public routes.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userKey).(*models.User)
	return user
}
