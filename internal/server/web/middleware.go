package web

import (
	"time"

	"github.com/gofiber/fiber/v3"
)

// requestLogger logs one line per request.
func (s *Server) requestLogger(c fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		status = StatusFor(err)
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
	}

	s.logger.Info(c.Context(), "http request",
		"method", c.Method(),
		"path", c.Path(),
		"status", status,
		"latency", time.Since(start).String(),
		"ip", c.IP(),
	)
	return err
}
