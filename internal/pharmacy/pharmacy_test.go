package pharmacy

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/glebarez/go-sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	apperrors "github.com/medtrack/medtrackd/internal/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	conn, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "pharmacy.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(sqlite.Dialector{Conn: conn}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	s, err := NewStore(db)
	require.NoError(t, err)
	return s
}

func TestSeedsDirectory(t *testing.T) {
	s := newTestStore(t)

	all, err := s.List()
	require.NoError(t, err)
	require.Len(t, all, 6)

	// Ordered by name.
	assert.Equal(t, "City Pharmacy", all[0].Name)
	for _, p := range all {
		assert.NotEmpty(t, p.ID)
	}

	// A second construction over the same database does not reseed.
	again, err := NewStore(s.db)
	require.NoError(t, err)
	all, err = again.List()
	require.NoError(t, err)
	assert.Len(t, all, 6)
}

func TestGet(t *testing.T) {
	s := newTestStore(t)

	all, err := s.List()
	require.NoError(t, err)

	got, err := s.Get(all[0].ID)
	require.NoError(t, err)
	assert.Equal(t, all[0].Name, got.Name)

	_, err = s.Get("pharm_missing")
	assert.ErrorIs(t, err, apperrors.ErrPharmacyNotFound)
}

func TestSearch(t *testing.T) {
	s := newTestStore(t)

	byCity, err := s.Search("Springfield")
	require.NoError(t, err)
	assert.Len(t, byCity, 3)

	byName, err := s.Search("Lakeside")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Lakeside Pharmacy", byName[0].Name)

	empty, err := s.Search("")
	require.NoError(t, err)
	assert.Len(t, empty, 6)

	none, err := s.Search("nowhere")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCreate(t *testing.T) {
	s := newTestStore(t)

	p := &Pharmacy{Name: "New Dispensary", Address: "1 First St", City: "Hilltop", Phone: "555-0199", Hours: "9 AM - 5 PM"}
	require.NoError(t, s.Create(p))
	assert.NotEmpty(t, p.ID)

	got, err := s.Get(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "New Dispensary", got.Name)

	all, err := s.List()
	require.NoError(t, err)
	assert.Len(t, all, 7)
}
