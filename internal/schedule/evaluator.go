// Package schedule derives today's, upcoming and low-stock views from the
// store and promotes medications from upcoming to pending as their dose
// time arrives.
package schedule

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/medtrack/medtrackd/internal/meds"
	"github.com/medtrack/medtrackd/internal/metrics"
	"github.com/medtrack/medtrackd/internal/notify"
	"github.com/medtrack/medtrackd/internal/store"
)

const defaultInterval = time.Minute

// Evaluator runs the timer-driven state machine. The clock source and tick
// interval are injectable so tests simulate time passage without real
// timers.
type Evaluator struct {
	store    *store.Store
	notifier notify.Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
	clock    meds.Clock
	interval time.Duration

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// Option configures an Evaluator.
type Option func(*Evaluator)

func WithClock(c meds.Clock) Option {
	return func(e *Evaluator) { e.clock = c }
}

func WithInterval(d time.Duration) Option {
	return func(e *Evaluator) { e.interval = d }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Evaluator) { e.metrics = m }
}

func New(st *store.Store, notifier notify.Notifier, logger *zap.Logger, opts ...Option) *Evaluator {
	e := &Evaluator{
		store:    st,
		notifier: notifier,
		logger:   logger,
		clock:    meds.SystemClock(),
		interval: defaultInterval,
	}
	if e.notifier == nil {
		e.notifier = notify.Nop()
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start begins the recurring evaluation. The first tick runs immediately.
func (e *Evaluator) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return fmt.Errorf("evaluator already running")
	}

	c := cron.New()
	if _, err := c.AddFunc("@every "+e.interval.String(), e.Tick); err != nil {
		return fmt.Errorf("failed to schedule evaluation: %w", err)
	}
	c.Start()
	e.cron = c
	e.running = true

	e.logger.Info("schedule evaluator started", zap.Duration("interval", e.interval))
	go e.Tick()
	return nil
}

// Stop tears the timer down and waits for an in-flight tick to finish,
// supporting clean shutdown and deterministic tests.
func (e *Evaluator) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	c := e.cron
	e.cron = nil
	e.running = false
	e.mu.Unlock()

	<-c.Stop().Done()
	e.logger.Info("schedule evaluator stopped")
}

// IsRunning reports whether the timer is active.
func (e *Evaluator) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Tick promotes every upcoming medication whose next dose has arrived to
// pending and fires a reminder for each when the user has notifications
// enabled. This is the only automatic transition; pending doses never
// expire on their own.
func (e *Evaluator) Tick() {
	now := e.clock.Now()
	promoted := e.store.PromoteDue(now)

	if len(promoted) > 0 {
		notifyUser := e.store.CurrentUser().Settings.Notifications
		for _, m := range promoted {
			e.logger.Info("dose due",
				zap.String("id", m.ID),
				zap.String("name", m.Name),
				zap.Time("next_dose", m.NextDose))
			if notifyUser {
				e.notifier.Notify(m.Name, true)
				if e.metrics != nil {
					e.metrics.RemindersSent.Inc()
				}
			}
		}
	}

	if e.metrics != nil {
		all := e.store.Medications()
		low := 0
		for _, m := range all {
			if m.LowStock() {
				low++
			}
		}
		e.metrics.Medications.Set(float64(len(all)))
		e.metrics.LowStock.Set(float64(low))
	}
}

// ==================== Derived views ====================

// Today returns pending medications whose next dose falls on the current
// calendar day.
func (e *Evaluator) Today() []meds.Medication {
	now := e.clock.Now()
	return filter(e.store.Medications(), func(m meds.Medication) bool {
		return m.Status == meds.StatusPending && meds.SameDay(m.NextDose, now)
	})
}

// Upcoming returns not-yet-due medications scheduled later today.
func (e *Evaluator) Upcoming() []meds.Medication {
	now := e.clock.Now()
	return filter(e.store.Medications(), func(m meds.Medication) bool {
		return m.Status == meds.StatusUpcoming && meds.SameDay(m.NextDose, now)
	})
}

// LowStock returns medications at or below their warning threshold,
// regardless of status.
func (e *Evaluator) LowStock() []meds.Medication {
	return filter(e.store.Medications(), func(m meds.Medication) bool {
		return m.LowStock()
	})
}

// TimeUntil renders the remaining time before a dose ("2h", "15m").
func (e *Evaluator) TimeUntil(dose time.Time) string {
	return meds.TimeUntil(dose, e.clock.Now())
}

func filter(in []meds.Medication, keep func(meds.Medication) bool) []meds.Medication {
	out := make([]meds.Medication, 0, len(in))
	for _, m := range in {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}
