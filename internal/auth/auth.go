// Package auth implements the session layer: login, signup and guest mode.
// The core never validates credentials; any well-formed login is accepted
// after a simulated processing delay, matching the reference behavior.
package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	apperrors "github.com/medtrack/medtrackd/internal/errors"
	"github.com/medtrack/medtrackd/internal/meds"
	"github.com/medtrack/medtrackd/internal/store"
)

const tokenTTL = 24 * time.Hour

// Session is an issued login session.
type Session struct {
	Token     string           `json:"token"`
	User      meds.SessionUser `json:"user"`
	ExpiresAt time.Time        `json:"expiresAt"`
}

type sessionClaims struct {
	Name  string `json:"name"`
	Guest bool   `json:"guest,omitempty"`
	jwt.RegisteredClaims
}

// Manager issues and verifies sessions and writes the session user record
// to the store before the core serves requests.
type Manager struct {
	store   *store.Store
	secret  []byte
	delay   time.Duration
	limiter *rate.Limiter
	logger  *zap.Logger
	clock   meds.Clock
}

// Config for NewManager.
type Config struct {
	Secret string
	// Delay simulates the reference authentication latency. Zero in tests.
	Delay time.Duration
	// AttemptsPerMinute caps login/signup attempts. Zero disables limiting.
	AttemptsPerMinute int
}

func NewManager(st *store.Store, cfg Config, logger *zap.Logger, clock meds.Clock) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = meds.SystemClock()
	}
	var limiter *rate.Limiter
	if cfg.AttemptsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.AttemptsPerMinute)), cfg.AttemptsPerMinute)
	}
	return &Manager{
		store:   st,
		secret:  []byte(cfg.Secret),
		delay:   cfg.Delay,
		limiter: limiter,
		logger:  logger,
		clock:   clock,
	}
}

// Login starts a session for an existing account.
func (m *Manager) Login(email, password string) (Session, error) {
	if email == "" || password == "" {
		return Session{}, apperrors.ErrBadRequest
	}
	if err := m.allow(); err != nil {
		return Session{}, err
	}
	m.simulateWork()

	user := meds.SessionUser{
		ID:              "user_" + uuid.NewString(),
		Name:            displayName(email),
		Email:           email,
		IsAuthenticated: true,
	}
	return m.begin(user)
}

// Signup creates an account and starts a session.
func (m *Manager) Signup(name, email, password string) (Session, error) {
	if name == "" || email == "" || password == "" {
		return Session{}, apperrors.ErrBadRequest
	}
	if err := m.allow(); err != nil {
		return Session{}, err
	}
	m.simulateWork()

	user := meds.SessionUser{
		ID:              "user_" + uuid.NewString(),
		Name:            name,
		Email:           email,
		IsAuthenticated: true,
	}
	return m.begin(user)
}

// Guest starts a limited session without credentials.
func (m *Manager) Guest() (Session, error) {
	user := meds.SessionUser{
		ID:              "guest_" + uuid.NewString(),
		Name:            "Guest User",
		IsGuest:         true,
		IsAuthenticated: true,
	}
	return m.begin(user)
}

// Logout clears the stored session and theme preference.
func (m *Manager) Logout() error {
	m.logger.Info("session cleared")
	return m.store.ClearSession()
}

// Verify parses and validates a session token.
func (m *Manager) Verify(token string) (meds.SessionUser, error) {
	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.ErrUnauthorized
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return meds.SessionUser{}, apperrors.ErrUnauthorized
	}
	return meds.SessionUser{
		ID:              claims.Subject,
		Name:            claims.Name,
		IsGuest:         claims.Guest,
		IsAuthenticated: true,
	}, nil
}

func (m *Manager) begin(user meds.SessionUser) (Session, error) {
	if err := m.store.SaveSession(user); err != nil {
		return Session{}, err
	}

	now := m.clock.Now()
	expires := now.Add(tokenTTL)
	claims := sessionClaims{
		Name:  user.Name,
		Guest: user.IsGuest,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return Session{}, apperrors.Wrap(err, apperrors.ErrInternal.Code, "failed to sign session token")
	}

	m.logger.Info("session started",
		zap.String("user_id", user.ID),
		zap.Bool("guest", user.IsGuest))
	return Session{Token: token, User: user, ExpiresAt: expires}, nil
}

func (m *Manager) allow() error {
	if m.limiter != nil && !m.limiter.Allow() {
		return apperrors.ErrRateLimited
	}
	return nil
}

func (m *Manager) simulateWork() {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
}

func displayName(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}
