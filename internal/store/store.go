// Package store owns the medication collection, the action history log and
// the current user profile. All mutation is mediated through the store so
// persistence and history stay consistent; no other component writes the
// collections directly.
package store

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/medtrack/medtrackd/internal/errors"
	"github.com/medtrack/medtrackd/internal/meds"
)

// Storage keys. The whole state document lives under dataKey; the session
// user, theme preference and daily-reset marker each get their own key.
const (
	dataKey      = "dmr:data"
	lastResetKey = "dmr:lastReset"
	sessionKey   = "dmr:session"
	themeKey     = "dmr:theme"
)

// document is the single JSON blob persisted under dataKey. Overwrite
// semantics: no merge, no versioning. Concurrent processes sharing the same
// database are not coordinated; last writer wins.
type document struct {
	Medications []*meds.Medication  `json:"medications"`
	History     []meds.HistoryEntry `json:"history"`
	CurrentUser *meds.UserProfile   `json:"currentUser"`
}

// Store is the explicitly owned state object passed to all components.
// A mutex serializes mutation-then-persist, standing in for the cooperative
// single thread of the original design.
type Store struct {
	mu     sync.Mutex
	kv     *badger.DB
	memKV  map[string][]byte
	clock  meds.Clock
	logger *zap.Logger

	medications []*meds.Medication
	history     []meds.HistoryEntry
	currentUser *meds.UserProfile
}

// Options configures Open.
type Options struct {
	Path   string
	Clock  meds.Clock
	Logger *zap.Logger
}

// Open opens the durable key-value store at opts.Path, loads the persisted
// state (seeding defaults on first run or on a corrupted blob) and performs
// the once-per-startup daily reset. If durable storage cannot be opened the
// store degrades to in-memory-only operation instead of failing.
func Open(opts Options) (*Store, error) {
	s := &Store{
		clock:  opts.Clock,
		logger: opts.Logger,
	}
	if s.clock == nil {
		s.clock = meds.SystemClock()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	kv, err := badger.Open(badger.DefaultOptions(opts.Path).
		WithLogger(nil).
		WithNumVersionsToKeep(1).
		WithCompactL0OnClose(true))
	if err != nil {
		s.logger.Warn("durable storage unavailable, running in-memory only",
			zap.String("path", opts.Path),
			zap.Error(apperrors.Wrap(err, apperrors.ErrStorageUnavailable.Code, apperrors.ErrStorageUnavailable.Message)))
		s.memKV = make(map[string][]byte)
	} else {
		s.kv = kv
	}

	s.mu.Lock()
	s.loadLocked()
	s.dailyResetLocked()
	s.mu.Unlock()

	return s, nil
}

// Close releases the underlying key-value store.
func (s *Store) Close() error {
	if s.kv != nil {
		return s.kv.Close()
	}
	return nil
}

// MemoryOnly reports whether the store is running without durable storage.
func (s *Store) MemoryOnly() bool {
	return s.kv == nil
}

// ==================== Mutation operations ====================

// AddMedication assigns a fresh id and defaults (pending status, random
// color, next dose derived from the schedule time today), appends the
// record, persists and returns the stored copy.
func (s *Store) AddMedication(input meds.Medication) (meds.Medication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := input
	m.ID = uuid.NewString()
	if m.Status == "" {
		m.Status = meds.StatusPending
	}
	if m.Color == "" {
		m.Color = meds.RandomColor()
	}
	if m.Frequency == "" {
		m.Frequency = meds.FrequencyDaily
	}
	if m.NextDose.IsZero() && m.Time != "" {
		dose, err := meds.DoseAt(s.clock.Now(), m.Time)
		if err != nil {
			return meds.Medication{}, err
		}
		m.NextDose = dose
	}

	s.medications = append(s.medications, &m)
	s.persistLocked()

	s.logger.Info("medication added",
		zap.String("id", m.ID),
		zap.String("name", m.Name))
	return m, nil
}

// DeleteMedication removes the matching record and persists. Unknown ids
// yield ErrMedicationNotFound.
func (s *Store) DeleteMedication(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, m := range s.medications {
		if m.ID == id {
			s.medications = append(s.medications[:i], s.medications[i+1:]...)
			s.persistLocked()
			s.logger.Info("medication deleted", zap.String("id", id))
			return nil
		}
	}
	return apperrors.ErrMedicationNotFound
}

// UpdateStatus sets the status of the matching medication. When the new
// status is taken it also appends a history entry and advances the next
// dose to the same hour/minute on the following calendar day.
func (s *Store) UpdateStatus(id string, status meds.Status) error {
	if !status.Valid() {
		return apperrors.ErrInvalidStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.findLocked(id)
	if m == nil {
		return apperrors.ErrMedicationNotFound
	}

	m.Status = status
	if status == meds.StatusTaken {
		s.appendHistoryLocked(*m, meds.ActionTaken)
		m.NextDose = meds.NextDailyDose(m.NextDose, s.clock.Now())
	}
	s.persistLocked()
	return nil
}

// ConfirmDose validates and applies a confirm as one atomic transition:
// the medication must exist, must not already be taken and must have stock
// left. Stock is decremented, the status set to taken, a history entry
// recorded and the next occurrence scheduled for the same clock time
// tomorrow, all under a single critical section so concurrent confirms of
// the same dose cannot both pass the checks. Returns the updated copy.
func (s *Store) ConfirmDose(id string) (meds.Medication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.findLocked(id)
	if m == nil {
		return meds.Medication{}, apperrors.ErrMedicationNotFound
	}
	if m.Status == meds.StatusTaken {
		return meds.Medication{}, apperrors.ErrAlreadyTaken
	}
	if m.StockCount <= 0 {
		return meds.Medication{}, apperrors.ErrOutOfStock
	}

	m.StockCount--
	m.Status = meds.StatusTaken
	s.appendHistoryLocked(*m, meds.ActionTaken)
	m.NextDose = meds.NextDailyDose(m.NextDose, s.clock.Now())
	s.persistLocked()
	return *m, nil
}

// SkipDose marks the dose skipped and records a history entry in the same
// critical section. Stock is never changed by a skip.
func (s *Store) SkipDose(id string) (meds.Medication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.findLocked(id)
	if m == nil {
		return meds.Medication{}, apperrors.ErrMedicationNotFound
	}

	m.Status = meds.StatusSkipped
	s.appendHistoryLocked(*m, meds.ActionSkipped)
	s.persistLocked()
	return *m, nil
}

// AddToHistory prepends an immutable snapshot of the medication plus the
// action and a timestamp, then persists.
func (s *Store) AddToHistory(snapshot meds.Medication, action meds.Action) meds.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.appendHistoryLocked(snapshot, action)
	s.persistLocked()
	return entry
}

// PromoteDue transitions every upcoming medication whose next dose has
// arrived to pending. This is the only timer-driven transition. Returns
// copies of the promoted records.
func (s *Store) PromoteDue(now time.Time) []meds.Medication {
	s.mu.Lock()
	defer s.mu.Unlock()

	var promoted []meds.Medication
	for _, m := range s.medications {
		if m.Status == meds.StatusUpcoming && !m.NextDose.After(now) {
			m.Status = meds.StatusPending
			promoted = append(promoted, *m)
		}
	}
	if len(promoted) > 0 {
		s.persistLocked()
	}
	return promoted
}

// SetCurrentUser replaces the active profile and persists.
func (s *Store) SetCurrentUser(u meds.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentUser = &u
	s.persistLocked()
}

// UpdateSettings replaces the active profile's settings and persists.
func (s *Store) UpdateSettings(settings meds.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentUser.Settings = settings
	s.persistLocked()
}

// ==================== Read accessors ====================

// Medication returns a copy of the record with the given id.
func (s *Store) Medication(id string) (meds.Medication, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m := s.findLocked(id); m != nil {
		return *m, true
	}
	return meds.Medication{}, false
}

// Medications returns copies of every record.
func (s *Store) Medications() []meds.Medication {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]meds.Medication, len(s.medications))
	for i, m := range s.medications {
		out[i] = *m
	}
	return out
}

// History returns the action log, most recent first.
func (s *Store) History() []meds.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]meds.HistoryEntry, len(s.history))
	copy(out, s.history)
	return out
}

// TodaysHistoryCount counts history entries recorded on the current
// calendar day.
func (s *Store) TodaysHistoryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	n := 0
	for _, e := range s.history {
		if meds.SameDay(e.Timestamp, now) {
			n++
		}
	}
	return n
}

// CurrentUser returns a copy of the active profile.
func (s *Store) CurrentUser() meds.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.currentUser
}

// ==================== Internals ====================

func (s *Store) findLocked(id string) *meds.Medication {
	for _, m := range s.medications {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (s *Store) appendHistoryLocked(snapshot meds.Medication, action meds.Action) meds.HistoryEntry {
	entry := meds.HistoryEntry{
		Medication: snapshot,
		Action:     action,
		Timestamp:  s.clock.Now(),
	}
	s.history = append([]meds.HistoryEntry{entry}, s.history...)
	return entry
}

func (s *Store) seedLocked() {
	s.medications = meds.Seed(s.clock.Now())
	s.history = nil
	s.currentUser = meds.DefaultUser()
}

// loadLocked replaces the in-memory collections wholesale from the persisted
// blob, or seeds defaults and persists them once when the key is absent. A
// blob that fails to deserialize falls back to seeded defaults rather than
// crashing.
func (s *Store) loadLocked() {
	raw, err := s.getKV(dataKey)
	if err != nil {
		s.seedLocked()
		s.persistLocked()
		return
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil || doc.CurrentUser == nil {
		s.logger.Error("discarding corrupted state blob",
			zap.Error(apperrors.Wrap(err, apperrors.ErrStorageCorrupted.Code, apperrors.ErrStorageCorrupted.Message)))
		s.seedLocked()
		s.persistLocked()
		return
	}

	s.medications = doc.Medications
	s.history = doc.History
	s.currentUser = doc.CurrentUser
}

// dailyResetLocked compares the stored last-reset marker to today and, on a
// new day, sets every medication whose next dose falls on today back to
// pending. Runs once at startup only; a process kept open across midnight
// does not re-trigger it.
func (s *Store) dailyResetLocked() {
	today := meds.DayMarker(s.clock.Now())
	if marker, err := s.getKV(lastResetKey); err == nil && string(marker) == today {
		return
	}

	now := s.clock.Now()
	for _, m := range s.medications {
		if meds.SameDay(m.NextDose, now) {
			m.Status = meds.StatusPending
		}
	}
	s.persistLocked()
	if err := s.setKV(lastResetKey, []byte(today)); err != nil {
		s.logger.Warn("failed to write reset marker", zap.Error(err))
	}
}

// DailyReset re-runs the startup reset routine. Idempotent within a
// calendar day.
func (s *Store) DailyReset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dailyResetLocked()
}

// Save persists the current state blob.
func (s *Store) Save() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persistLocked()
}

func (s *Store) persistLocked() {
	doc := document{
		Medications: s.medications,
		History:     s.history,
		CurrentUser: s.currentUser,
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		s.logger.Error("failed to serialize state", zap.Error(err))
		return
	}
	if err := s.setKV(dataKey, raw); err != nil {
		s.logger.Warn("failed to persist state", zap.Error(err))
	}
}

func (s *Store) setKV(key string, value []byte) error {
	if s.kv == nil {
		s.memKV[key] = append([]byte(nil), value...)
		return nil
	}
	return s.kv.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

func (s *Store) getKV(key string) ([]byte, error) {
	if s.kv == nil {
		if v, ok := s.memKV[key]; ok {
			return append([]byte(nil), v...), nil
		}
		return nil, apperrors.ErrNotFound
	}
	var val []byte
	err := s.kv.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			val = append([]byte{}, v...)
			return nil
		})
	})
	return val, err
}

func (s *Store) deleteKV(key string) error {
	if s.kv == nil {
		delete(s.memKV, key)
		return nil
	}
	return s.kv.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}
