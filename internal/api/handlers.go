package api

import (
	"time"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/medtrack/medtrackd/internal/errors"
	"github.com/medtrack/medtrackd/internal/meds"
)

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(healthResponse{
		Status:     "ok",
		Time:       time.Now(),
		MemoryOnly: s.store.MemoryOnly(),
	})
}

// ==================== Auth ====================

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.ErrBadRequest)
	}
	if err := s.validate.Struct(req); err != nil {
		return respondError(c, apperrors.Wrap(err, apperrors.ErrBadRequest.Code, "invalid login payload"))
	}

	session, err := s.auth.Login(req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(session)
}

func (s *Server) handleSignup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.ErrBadRequest)
	}
	if err := s.validate.Struct(req); err != nil {
		return respondError(c, apperrors.Wrap(err, apperrors.ErrBadRequest.Code, "invalid signup payload"))
	}

	session, err := s.auth.Signup(req.Name, req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(session)
}

func (s *Server) handleGuest(c *fiber.Ctx) error {
	session, err := s.auth.Guest()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(session)
}

func (s *Server) handleLogout(c *fiber.Ctx) error {
	if err := s.auth.Logout(); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ==================== Medications ====================

func (s *Server) handleListMedications(c *fiber.Ctx) error {
	return c.JSON(s.store.Medications())
}

func (s *Server) handleAddMedication(c *fiber.Ctx) error {
	var req addMedicationRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.ErrBadRequest)
	}
	if err := s.validate.Struct(req); err != nil {
		return respondError(c, apperrors.Wrap(err, apperrors.ErrBadRequest.Code, "invalid medication payload"))
	}
	if _, _, err := meds.ParseClockTime(req.Time); err != nil {
		return respondError(c, apperrors.Wrap(err, apperrors.ErrBadRequest.Code, "invalid schedule time"))
	}

	created, err := s.store.AddMedication(req.toMedication())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (s *Server) handleDeleteMedication(c *fiber.Ctx) error {
	if err := s.store.DeleteMedication(c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleConfirm(c *fiber.Ctx) error {
	updated, err := s.processor.Confirm(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(updated)
}

func (s *Server) handleSkip(c *fiber.Ctx) error {
	updated, err := s.processor.Skip(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(updated)
}

func (s *Server) handleRemind(c *fiber.Ctx) error {
	if err := s.processor.Remind(c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusAccepted)
}

// ==================== Views ====================

func (s *Server) handleToday(c *fiber.Ctx) error {
	return c.JSON(s.viewOf(s.evaluator.Today()))
}

func (s *Server) handleUpcoming(c *fiber.Ctx) error {
	return c.JSON(s.viewOf(s.evaluator.Upcoming()))
}

func (s *Server) handleLowStock(c *fiber.Ctx) error {
	return c.JSON(s.viewOf(s.evaluator.LowStock()))
}

func (s *Server) viewOf(list []meds.Medication) []medicationView {
	out := make([]medicationView, len(list))
	for i, m := range list {
		out[i] = medicationView{
			Medication:    m,
			TimeRemaining: s.evaluator.TimeUntil(m.NextDose),
		}
	}
	return out
}

// ==================== History & stats ====================

func (s *Server) handleHistory(c *fiber.Ctx) error {
	return c.JSON(s.store.History())
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	return c.JSON(statsResponse{
		TotalMedications: len(s.store.Medications()),
		TakenToday:       s.store.TodaysHistoryCount(),
		LowStock:         len(s.evaluator.LowStock()),
	})
}

// ==================== Settings & theme ====================

func (s *Server) handleGetSettings(c *fiber.Ctx) error {
	return c.JSON(s.store.CurrentUser().Settings)
}

func (s *Server) handleUpdateSettings(c *fiber.Ctx) error {
	var settings meds.Settings
	if err := c.BodyParser(&settings); err != nil {
		return respondError(c, apperrors.ErrBadRequest)
	}
	s.store.UpdateSettings(settings)
	return c.JSON(settings)
}

func (s *Server) handleGetTheme(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"theme": s.store.Theme()})
}

func (s *Server) handleSetTheme(c *fiber.Ctx) error {
	var req themeRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.ErrBadRequest)
	}
	if err := s.validate.Struct(req); err != nil {
		return respondError(c, apperrors.Wrap(err, apperrors.ErrBadRequest.Code, "invalid theme"))
	}
	if err := s.store.SetTheme(req.Theme); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"theme": req.Theme})
}

// ==================== Pharmacies ====================

func (s *Server) handleSearchPharmacies(c *fiber.Ctx) error {
	results, err := s.pharmacies.Search(c.Query("q"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(results)
}
