// Package notify carries short user-facing messages produced after board
// operations. Delivery is fire-and-forget: nothing flows back into the
// operation that produced a message.
package notify

import (
	"context"
	"sync"

	"github.com/yukikurage/taskboard/internal/logger"
	"go.uber.org/zap"
)

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

// Notification is a single message for the notification surface.
type Notification struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

func Success(message string) Notification {
	return Notification{Message: message, Severity: SeveritySuccess}
}

func Error(message string) Notification {
	return Notification{Message: message, Severity: SeverityError}
}

func Info(message string) Notification {
	return Notification{Message: message, Severity: SeverityInfo}
}

// Notifier receives notifications.
type Notifier interface {
	Notify(n Notification)
}

// LogNotifier writes every notification to the application log.
type LogNotifier struct{}

func (LogNotifier) Notify(n Notification) {
	logger.Info("Notification",
		zap.String("message", n.Message),
		zap.String("severity", string(n.Severity)))
}

// Recorder keeps every notification it receives.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	r.items = append(r.items, n)
	r.mu.Unlock()
}

// All returns the recorded notifications, oldest first.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return Notification{}, false
	}
	return r.items[len(r.items)-1], true
}

type inboxKey struct{}

// Collect returns a context whose notifications are also recorded in the
// returned Recorder. It lets a request see the messages its own
// operations produced even when other requests run concurrently.
func Collect(ctx context.Context) (context.Context, *Recorder) {
	inbox := &Recorder{}
	return context.WithValue(ctx, inboxKey{}, inbox), inbox
}

// Publish sends n to notifier, when non-nil, and to the Recorder attached
// to ctx by Collect, if any.
func Publish(ctx context.Context, notifier Notifier, n Notification) {
	if notifier != nil {
		notifier.Notify(n)
	}
	if inbox, ok := ctx.Value(inboxKey{}).(*Recorder); ok {
		inbox.Notify(n)
	}
}
