package handlers

import (
	"errors"
	"strconv"

	"recipebox/internal/apperrors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// ErrorHandler renders every error returned by a handler or middleware as
// {"code","message","details"} JSON.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus()
		if status >= fiber.StatusInternalServerError {
			log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")
		}
		return c.Status(status).JSON(appErr)
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		if fe.Code == fiber.StatusMethodNotAllowed {
			return c.Status(fe.Code).JSON(apperrors.MethodNotAllowed(c.Method()))
		}
		return c.Status(fe.Code).JSON(&apperrors.Error{Code: fiberCode(fe.Code), Message: fe.Message})
	}

	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("unhandled error")
	return c.Status(fiber.StatusInternalServerError).JSON(apperrors.Internal("internal server error", nil))
}

func fiberCode(status int) apperrors.Code {
	switch status {
	case fiber.StatusBadRequest:
		return apperrors.CodeValidation
	case fiber.StatusUnauthorized:
		return apperrors.CodeUnauthorized
	case fiber.StatusNotFound:
		return apperrors.CodeNotFound
	case fiber.StatusRequestEntityTooLarge:
		return "REQUEST_TOO_LARGE"
	}
	if status >= fiber.StatusInternalServerError {
		return apperrors.CodeInternal
	}
	return apperrors.Code("HTTP_" + strconv.Itoa(status))
}

// parseBody decodes a JSON body into out. An empty body leaves out untouched.
func parseBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		log.Debug().Err(err).Str("path", c.Path()).Msg("invalid request body")
		return apperrors.Validation("invalid request body", nil)
	}
	return nil
}

// paramID reads a positive numeric :id. Anything else cannot name a record.
func paramID(c *fiber.Ctx, resource string) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, apperrors.NotFound(resource)
	}
	return uint(id), nil
}
