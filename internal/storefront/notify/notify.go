// Package notify holds the storefront's transient notices and alerts.
package notify

import (
	"sort"
	"sync"
	"time"
)

// Level classifies a notification
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelAlert   Level = "alert"
)

// Notification is one message shown to the customer
type Notification struct {
	ID        uint64
	Level     Level
	Message   string
	CreatedAt time.Time
}

// Listener is called synchronously for every posted notification
type Listener func(Notification)

// Notifier keeps the visible notifications. Notices dismiss themselves after
// ttl; alerts stay until dismissed.
type Notifier struct {
	ttl      time.Duration
	listener Listener

	mu     sync.Mutex
	nextID uint64
	active map[uint64]Notification
	timers map[uint64]*time.Timer
}

// New creates a notifier whose notices live for ttl
func New(ttl time.Duration, listener Listener) *Notifier {
	return &Notifier{
		ttl:      ttl,
		listener: listener,
		active:   make(map[uint64]Notification),
		timers:   make(map[uint64]*time.Timer),
	}
}

// Notify posts a self-dismissing success notice
func (n *Notifier) Notify(message string) uint64 {
	return n.post(LevelSuccess, message, true)
}

// Info posts a self-dismissing informational notice
func (n *Notifier) Info(message string) uint64 {
	return n.post(LevelInfo, message, true)
}

// Alert posts a message that stays until Dismiss is called
func (n *Notifier) Alert(message string) uint64 {
	return n.post(LevelAlert, message, false)
}

func (n *Notifier) post(level Level, message string, expires bool) uint64 {
	n.mu.Lock()
	n.nextID++
	note := Notification{
		ID:        n.nextID,
		Level:     level,
		Message:   message,
		CreatedAt: time.Now(),
	}
	n.active[note.ID] = note
	if expires && n.ttl > 0 {
		id := note.ID
		n.timers[id] = time.AfterFunc(n.ttl, func() { n.Dismiss(id) })
	}
	n.mu.Unlock()

	if n.listener != nil {
		n.listener(note)
	}
	return note.ID
}

// Dismiss removes a notification. Unknown ids are ignored.
func (n *Notifier) Dismiss(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if t, ok := n.timers[id]; ok {
		t.Stop()
		delete(n.timers, id)
	}
	delete(n.active, id)
}

// Active returns the visible notifications, oldest first
func (n *Notifier) Active() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]Notification, 0, len(n.active))
	for _, note := range n.active {
		out = append(out, note)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Close stops every pending dismissal timer
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for id, t := range n.timers {
		t.Stop()
		delete(n.timers, id)
	}
}
