package meds

import (
	"math/rand"
	"time"
)

var colorPalette = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4",
	"#FFD93D", "#FF8B94", "#98B4D4", "#9B5DE5",
}

// RandomColor picks a display accent from the fixed palette.
func RandomColor() string {
	return colorPalette[rand.Intn(len(colorPalette))]
}

// DefaultUser is the profile seeded on first run.
func DefaultUser() *UserProfile {
	return &UserProfile{
		ID:       "user123",
		Name:     "John's Profile",
		Email:    "john@example.com",
		JoinDate: "2024-05-01",
		Avatar:   "\U0001F464",
		Settings: Settings{
			Notifications: true,
			SMSAlerts:     false,
			Sound:         true,
			DarkMode:      false,
			Timezone:      "America/New_York",
		},
	}
}

type seedSpec struct {
	id          string
	name        string
	dosage      Dosage
	clockTime   string
	status      Status
	stock       int
	threshold   int
	withFood    bool
	important   bool
	description string
	color       string
}

var seedCatalog = []seedSpec{
	{"1", "Aspirin", Dosage{1, "tablet"}, "8:00 AM", StatusPending, 15, 5, true, true, "Take with water", "#FF6B6B"},
	{"2", "Metformin", Dosage{1, "tablet"}, "9:00 AM", StatusUpcoming, 20, 5, true, true, "Take with breakfast", "#4ECDC4"},
	{"3", "Lipitor", Dosage{1, "tablet"}, "10:00 AM", StatusUpcoming, 2, 5, false, true, "Take on empty stomach", "#45B7D1"},
	{"4", "Vitamin D3", Dosage{1, "tablet"}, "11:00 AM", StatusUpcoming, 30, 5, true, false, "Take with fatty meal", "#96CEB4"},
	{"5", "Omega-3", Dosage{2, "capsules"}, "1:00 PM", StatusUpcoming, 45, 10, true, false, "Take with lunch", "#FFD93D"},
	{"6", "Calcium", Dosage{1, "tablet"}, "3:00 PM", StatusUpcoming, 8, 5, false, false, "Take between meals", "#FF8B94"},
	{"7", "Zinc", Dosage{1, "tablet"}, "4:00 PM", StatusUpcoming, 12, 5, false, false, "Take on empty stomach", "#98B4D4"},
	{"8", "Magnesium", Dosage{1, "tablet"}, "8:00 PM", StatusUpcoming, 25, 5, false, false, "Take before bed", "#9B5DE5"},
}

// Seed returns the demonstration medication catalog with each next dose
// anchored to its clock time on the current calendar day.
func Seed(now time.Time) []*Medication {
	out := make([]*Medication, 0, len(seedCatalog))
	for _, s := range seedCatalog {
		nextDose, _ := DoseAt(now, s.clockTime)
		out = append(out, &Medication{
			ID:                s.id,
			Name:              s.name,
			Description:       s.description,
			Dosage:            s.dosage,
			Time:              s.clockTime,
			Frequency:         FrequencyDaily,
			NextDose:          nextDose,
			Status:            s.status,
			StockCount:        s.stock,
			LowStockThreshold: s.threshold,
			WithFood:          s.withFood,
			Important:         s.important,
			Color:             s.color,
		})
	}
	return out
}
