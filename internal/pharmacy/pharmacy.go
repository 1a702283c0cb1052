// Package pharmacy provides the pharmacy directory backing the refill
// workflow.
package pharmacy

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/medtrack/medtrackd/internal/errors"
)

// Pharmacy is a directory entry.
type Pharmacy struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"index"`
	Address   string    `json:"address"`
	City      string    `json:"city" gorm:"index"`
	Phone     string    `json:"phone"`
	Hours     string    `json:"hours"`
	Open24h   bool      `json:"open24h"`
	CreatedAt time.Time `json:"created_at"`
}

func (p *Pharmacy) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = "pharm_" + uuid.NewString()
	}
	return nil
}

// Store handles pharmacy persistence.
type Store struct {
	db *gorm.DB
}

// NewStore migrates the schema and seeds the directory when empty.
func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Pharmacy{}); err != nil {
		return nil, fmt.Errorf("failed to migrate pharmacy schema: %w", err)
	}

	s := &Store{db: db}
	if err := s.seedIfEmpty(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) seedIfEmpty() error {
	var count int64
	if err := s.db.Model(&Pharmacy{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	seed := []Pharmacy{
		{Name: "City Pharmacy", Address: "12 Main St", City: "Springfield", Phone: "555-0101", Hours: "8 AM - 9 PM"},
		{Name: "HealthPlus Drugstore", Address: "48 Oak Ave", City: "Springfield", Phone: "555-0102", Hours: "24 hours", Open24h: true},
		{Name: "Greenleaf Apothecary", Address: "7 Elm Rd", City: "Riverton", Phone: "555-0103", Hours: "9 AM - 6 PM"},
		{Name: "Lakeside Pharmacy", Address: "230 Shore Dr", City: "Riverton", Phone: "555-0104", Hours: "8 AM - 8 PM"},
		{Name: "Night Owl Meds", Address: "99 Station Blvd", City: "Springfield", Phone: "555-0105", Hours: "24 hours", Open24h: true},
		{Name: "Corner Care Chemist", Address: "3 Birch Ln", City: "Hilltop", Phone: "555-0106", Hours: "9 AM - 7 PM"},
	}
	return s.db.Create(&seed).Error
}

// Get returns a single entry by id.
func (s *Store) Get(id string) (*Pharmacy, error) {
	var p Pharmacy
	err := s.db.Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrPharmacyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns the whole directory ordered by name.
func (s *Store) List() ([]Pharmacy, error) {
	var out []Pharmacy
	err := s.db.Order("name ASC").Find(&out).Error
	return out, err
}

// Search matches name or city, case-insensitively via LIKE.
func (s *Store) Search(query string) ([]Pharmacy, error) {
	if query == "" {
		return s.List()
	}
	pattern := "%" + query + "%"
	var out []Pharmacy
	err := s.db.Where("name LIKE ? OR city LIKE ?", pattern, pattern).
		Order("name ASC").
		Find(&out).Error
	return out, err
}

// Create adds a directory entry.
func (s *Store) Create(p *Pharmacy) error {
	return s.db.Create(p).Error
}
