package meds

import (
	"time"
)

// Status tracks a medication through its current scheduling cycle.
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusPending  Status = "pending"
	StatusTaken    Status = "taken"
	StatusSkipped  Status = "skipped"
)

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusUpcoming, StatusPending, StatusTaken, StatusSkipped:
		return true
	}
	return false
}

// Action is what the user did with a pending dose.
type Action string

const (
	ActionTaken   Action = "taken"
	ActionSkipped Action = "skipped"
)

// Frequency describes the declared cadence of a medication. Only daily
// cadence drives the next-dose computation; the other values are carried
// in the schema for forward compatibility.
type Frequency string

const (
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyAsNeeded Frequency = "as_needed"
)

// Dosage is a single dose amount, e.g. {1, "tablet"} or {2, "capsules"}.
type Dosage struct {
	Amount int    `json:"amount"`
	Unit   string `json:"unit"`
}

// Medication is a scheduled medication owned by the store. Time is the
// canonical clock-time schedule ("8:00 AM"); NextDose is the absolute
// timestamp of the next occurrence and is advanced independently once a
// dose is confirmed.
type Medication struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	Dosage            Dosage    `json:"dosage"`
	Time              string    `json:"time"`
	Frequency         Frequency `json:"frequency,omitempty"`
	NextDose          time.Time `json:"nextDose"`
	Status            Status    `json:"status"`
	StockCount        int       `json:"stockCount"`
	LowStockThreshold int       `json:"lowStockThreshold"`
	WithFood          bool      `json:"withFood"`
	Important         bool      `json:"important"`
	Color             string    `json:"color"`
}

// LowStock reports whether remaining stock is at or below the warning
// threshold.
func (m *Medication) LowStock() bool {
	return m.StockCount <= m.LowStockThreshold
}

// HistoryEntry is an immutable snapshot of a medication at the moment a
// dose was taken or skipped. Entries are prepended most-recent-first and
// never mutated.
type HistoryEntry struct {
	Medication
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// Settings holds per-user preferences.
type Settings struct {
	Notifications bool   `json:"notifications"`
	SMSAlerts     bool   `json:"smsAlerts"`
	Sound         bool   `json:"sound"`
	DarkMode      bool   `json:"darkMode"`
	Timezone      string `json:"timezone"`
}

// UserProfile is the single active profile for a session.
type UserProfile struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	JoinDate string   `json:"joinDate,omitempty"`
	Avatar   string   `json:"avatar,omitempty"`
	Settings Settings `json:"settings"`
}

// Profile models caregiver/linked profiles. Carried in the schema but not
// exercised by any store operation yet.
type Profile struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	IsCaregiver    bool     `json:"isCaregiver"`
	LinkedProfiles []string `json:"linkedProfiles"`
}

// SessionUser is the authenticated (or guest) user written by the auth
// layer before the core initializes. The core never validates credentials.
type SessionUser struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email,omitempty"`
	IsGuest         bool   `json:"isGuest,omitempty"`
	IsAuthenticated bool   `json:"isAuthenticated"`
}
