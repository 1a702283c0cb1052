package api

import (
	"time"

	"github.com/medtrack/medtrackd/internal/meds"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type signupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type addMedicationRequest struct {
	Name              string `json:"name" validate:"required"`
	Description       string `json:"description"`
	DosageAmount      int    `json:"dosageAmount" validate:"required,min=1"`
	DosageUnit        string `json:"dosageUnit" validate:"required"`
	Time              string `json:"time" validate:"required"`
	StockCount        int    `json:"stockCount" validate:"min=0"`
	LowStockThreshold int    `json:"lowStockThreshold" validate:"min=0"`
	WithFood          bool   `json:"withFood"`
	Important         bool   `json:"important"`
	Color             string `json:"color"`
}

func (r addMedicationRequest) toMedication() meds.Medication {
	return meds.Medication{
		Name:              r.Name,
		Description:       r.Description,
		Dosage:            meds.Dosage{Amount: r.DosageAmount, Unit: r.DosageUnit},
		Time:              r.Time,
		StockCount:        r.StockCount,
		LowStockThreshold: r.LowStockThreshold,
		WithFood:          r.WithFood,
		Important:         r.Important,
		Color:             r.Color,
	}
}

type themeRequest struct {
	Theme string `json:"theme" validate:"required,oneof=light dark"`
}

// medicationView decorates a medication with the rendered time remaining
// before its next dose.
type medicationView struct {
	meds.Medication
	TimeRemaining string `json:"timeRemaining,omitempty"`
}

type statsResponse struct {
	TotalMedications int `json:"totalMedications"`
	TakenToday       int `json:"takenToday"`
	LowStock         int `json:"lowStock"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type healthResponse struct {
	Status     string    `json:"status"`
	Time       time.Time `json:"time"`
	MemoryOnly bool      `json:"memoryOnly"`
}
