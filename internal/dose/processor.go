// Package dose applies user-initiated state transitions to medications.
package dose

import (
	"go.uber.org/zap"

	apperrors "github.com/medtrack/medtrackd/internal/errors"
	"github.com/medtrack/medtrackd/internal/meds"
	"github.com/medtrack/medtrackd/internal/metrics"
	"github.com/medtrack/medtrackd/internal/notify"
	"github.com/medtrack/medtrackd/internal/store"
)

// Processor validates and applies confirm/skip actions through the store.
type Processor struct {
	store    *store.Store
	notifier notify.Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewProcessor(st *store.Store, notifier notify.Notifier, m *metrics.Metrics, logger *zap.Logger) *Processor {
	if notifier == nil {
		notifier = notify.Nop()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		store:    st,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
	}
}

// Confirm marks the dose taken: stock is decremented, a history entry is
// recorded, the next occurrence is scheduled for the same clock time
// tomorrow and the user is notified. A dose already taken or a medication
// with no stock left is rejected. The whole transition runs atomically in
// the store; requests arrive on concurrent goroutines.
func (p *Processor) Confirm(id string) (meds.Medication, error) {
	updated, err := p.store.ConfirmDose(id)
	if err != nil {
		return meds.Medication{}, err
	}

	p.notifier.Notify(updated.Name, false)
	if p.metrics != nil {
		p.metrics.DosesConfirmed.Inc()
	}
	p.logger.Info("dose confirmed",
		zap.String("id", updated.ID),
		zap.String("name", updated.Name),
		zap.Int("stock", updated.StockCount),
		zap.Time("next_dose", updated.NextDose))
	return updated, nil
}

// Skip marks the dose skipped and records a history entry. Stock is never
// changed by a skip.
func (p *Processor) Skip(id string) (meds.Medication, error) {
	updated, err := p.store.SkipDose(id)
	if err != nil {
		return meds.Medication{}, err
	}

	if p.metrics != nil {
		p.metrics.DosesSkipped.Inc()
	}
	p.logger.Info("dose skipped",
		zap.String("id", updated.ID),
		zap.String("name", updated.Name))
	return updated, nil
}

// Remind re-triggers a reminder notification for the medication without
// changing any state.
func (p *Processor) Remind(id string) error {
	m, ok := p.store.Medication(id)
	if !ok {
		return apperrors.ErrMedicationNotFound
	}
	p.notifier.Notify(m.Name, true)
	if p.metrics != nil {
		p.metrics.RemindersSent.Inc()
	}
	return nil
}
