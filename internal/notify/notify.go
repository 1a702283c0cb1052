// Package notify defines the side-effecting notification call invoked by
// the action processor and schedule evaluator. Delivery mechanics beyond
// the in-process call are out of scope; calls are fire-and-forget.
package notify

import (
	"go.uber.org/zap"
)

// Notifier receives a medication name and whether this is a reminder (a
// dose coming due) as opposed to a confirmation acknowledgement.
type Notifier interface {
	Notify(name string, reminder bool)
}

// Func adapts a plain function to the Notifier interface.
type Func func(name string, reminder bool)

func (f Func) Notify(name string, reminder bool) { f(name, reminder) }

// Nop discards all notifications.
func Nop() Notifier {
	return Func(func(string, bool) {})
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(name string, reminder bool) {
	if reminder {
		n.logger.Info("medication reminder", zap.String("medication", name))
		return
	}
	n.logger.Info("medication taken", zap.String("medication", name))
}

// Multi fans a notification out to every wrapped notifier.
type Multi []Notifier

func (m Multi) Notify(name string, reminder bool) {
	for _, n := range m {
		n.Notify(name, reminder)
	}
}
