package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/medtrack/medtrackd/internal/errors"
)

const sessionUserKey = "sessionUser"

func (s *Server) authMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return respondError(c, apperrors.ErrUnauthorized)
		}

		user, err := s.auth.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			return respondError(c, apperrors.ErrUnauthorized)
		}

		c.Locals(sessionUserKey, user)
		return c.Next()
	}
}

// respondError maps engine error codes onto HTTP statuses.
func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	if appErr, ok := err.(*apperrors.AppError); ok {
		switch appErr {
		case apperrors.ErrMedicationNotFound, apperrors.ErrPharmacyNotFound, apperrors.ErrNotFound:
			status = fiber.StatusNotFound
		case apperrors.ErrOutOfStock, apperrors.ErrAlreadyTaken:
			status = fiber.StatusConflict
		case apperrors.ErrBadRequest, apperrors.ErrInvalidStatus:
			status = fiber.StatusBadRequest
		case apperrors.ErrUnauthorized, apperrors.ErrSessionNotFound:
			status = fiber.StatusUnauthorized
		case apperrors.ErrRateLimited:
			status = fiber.StatusTooManyRequests
		}
		return c.Status(status).JSON(errorResponse{Error: appErr.Message, Code: appErr.Code})
	}
	return c.Status(status).JSON(errorResponse{Error: err.Error()})
}
