// Package notify delivers user-facing rules notices.
//
// Notices are fire-and-forget: the ledger never waits on them and their
// failure never changes a ledger result. Messages are catalog keys
// rendered through the i18n printer.
package notify

import (
	"context"
	"log"
	"sync"

	"github.com/louisbranch/duality-engine/internal/platform/i18n"
)

// Level is a notice severity.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Notifier receives notices.
type Notifier interface {
	Notify(ctx context.Context, level Level, key string, args ...any)
}

// Nop drops every notice.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, Level, string, ...any) {}

// LogNotifier writes localized notices to a logger.
type LogNotifier struct {
	logger *log.Logger
	locale string
}

// NewLogNotifier creates a notifier for locale. A nil logger uses the
// standard logger.
func NewLogNotifier(logger *log.Logger, locale string) *LogNotifier {
	if logger == nil {
		logger = log.Default()
	}
	return &LogNotifier{logger: logger, locale: locale}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(_ context.Context, level Level, key string, args ...any) {
	n.logger.Printf("notice %s: %s", level, i18n.Sprintf(n.locale, key, args...))
}

// Notice is a recorded notification.
type Notice struct {
	Level Level
	Key   string
	Args  []any
}

// Render localizes the notice.
func (n Notice) Render(locale string) string {
	return i18n.Sprintf(locale, n.Key, n.Args...)
}

// Recorder keeps notices in memory.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

// Notify implements Notifier.
func (r *Recorder) Notify(_ context.Context, level Level, key string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, Notice{Level: level, Key: key, Args: args})
}

// Notices returns the recorded notices in order.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// Keys returns the recorded notice keys in order.
func (r *Recorder) Keys() []string {
	notices := r.Notices()
	keys := make([]string, len(notices))
	for i, notice := range notices {
		keys[i] = notice.Key
	}
	return keys
}

// Multi fans a notice out to several notifiers.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, level Level, key string, args ...any) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, level, key, args...)
		}
	}
}
