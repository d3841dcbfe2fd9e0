package middleware

import (
	"errors"
	"time"

	"recipebox/internal/apperrors"
	"recipebox/internal/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// Metrics records request counts and latency per route pattern.
// Must be registered before any handler that can return an error.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = statusOf(err)
		}
		// Labels outlive the request; fiber strings point into reused buffers.
		method := utils.CopyString(c.Method())
		route := utils.CopyString(c.Route().Path)
		metrics.ObserveRequest(method, route, status, time.Since(start))
		return err
	}
}

// statusOf predicts the status the error handler will write for err.
func statusOf(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return apperrors.CodeOf(err).HTTPStatus()
}
