package handlers

import (
	"errors"
	"log/slog"
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rohanjain1648/whisper-thrillz/internal/dto"
	"github.com/rohanjain1648/whisper-thrillz/internal/services"
)

// serviceError maps the typed service failures onto HTTP responses. Anything
// untyped is an opaque backend fault: logged, reported as "temporarily
// unavailable", details hidden.
func serviceError(c *fiber.Ctx, err error) error {
	var rateErr *services.RateLimitError
	if errors.As(err, &rateErr) {
		seconds := int(math.Ceil(rateErr.RetryAfter.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		c.Set("Retry-After", strconv.Itoa(seconds))
		return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	switch {
	case errors.Is(err, services.ErrInvalidContent),
		errors.Is(err, services.ErrInvalidLocation),
		errors.Is(err, services.ErrInvalidReaction),
		errors.Is(err, services.ErrInvalidReason):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, services.ErrRateLimited), errors.Is(err, services.ErrTooManyReports):
		return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrRecordNotFound),
		errors.Is(err, services.ErrReportNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, services.ErrExpired):
		return c.Status(fiber.StatusGone).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, services.ErrNotApproved):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	slog.Error("unexpected backend fault", "method", c.Method(), "path", c.Path(), "error", err.Error())
	return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
		Error: true, Message: "Temporarily unavailable, try again later",
	})
}
