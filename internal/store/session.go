package store

import (
	"encoding/json"

	apperrors "github.com/medtrack/medtrackd/internal/errors"
	"github.com/medtrack/medtrackd/internal/meds"
)

// Session state and the theme preference live under their own storage keys,
// separate from the main state document.

// SaveSession writes the session user record.
func (s *Store) SaveSession(u meds.SessionUser) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setKV(sessionKey, raw)
}

// Session returns the stored session user, or ErrSessionNotFound.
func (s *Store) Session() (meds.SessionUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.getKV(sessionKey)
	if err != nil {
		return meds.SessionUser{}, apperrors.ErrSessionNotFound
	}
	var u meds.SessionUser
	if err := json.Unmarshal(raw, &u); err != nil {
		return meds.SessionUser{}, apperrors.Wrap(err, apperrors.ErrStorageCorrupted.Code, "session record unreadable")
	}
	return u, nil
}

// ClearSession removes the session record and theme preference, mirroring a
// logout.
func (s *Store) ClearSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.deleteKV(sessionKey); err != nil {
		return err
	}
	return s.deleteKV(themeKey)
}

// SetTheme stores the theme preference.
func (s *Store) SetTheme(theme string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setKV(themeKey, []byte(theme))
}

// Theme returns the stored theme preference, defaulting to "light".
func (s *Store) Theme() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.getKV(themeKey)
	if err != nil {
		return "light"
	}
	return string(raw)
}
