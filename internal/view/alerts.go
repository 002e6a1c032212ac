package view

import (
	"sync"
	"time"
)

type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Alert is a transient message. It disappears once Expires has passed.
type Alert struct {
	Level   Level
	Message string
	Expires time.Time
}

type alerts struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items []Alert
}

func (a *alerts) push(level Level, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.items = append(a.items, Alert{Level: level, Message: message, Expires: a.now().Add(a.ttl)})
}

// active drops expired alerts and returns the rest, oldest first.
func (a *alerts) active() []Alert {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	kept := a.items[:0]
	for _, alert := range a.items {
		if now.Before(alert.Expires) {
			kept = append(kept, alert)
		}
	}
	a.items = kept

	out := make([]Alert, len(kept))
	copy(out, kept)
	return out
}
