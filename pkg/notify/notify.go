// Package notify fans user-facing notices (success or error, title plus
// description) out to sinks: an in-memory feed and optionally Telegram.
package notify

import (
	"log/slog"
	"sync"
	"time"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

type Notice struct {
	ID          int64     `json:"id"`
	Level       Level     `json:"level"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	At          time.Time `json:"at"`
}

// Notifier is fire-and-forget: callers never wait on or see delivery errors.
type Notifier interface {
	Success(title, description string)
	Error(title, description string)
}

type Sink interface {
	Deliver(n Notice)
}

// Hub is a Notifier that stamps notices and hands them to every sink.
type Hub struct {
	mu     sync.Mutex
	nextID int64
	sinks  []Sink
	log    *slog.Logger
}

func NewHub(log *slog.Logger, sinks ...Sink) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{sinks: sinks, log: log}
}

func (h *Hub) Success(title, description string) { h.publish(LevelSuccess, title, description) }

func (h *Hub) Error(title, description string) { h.publish(LevelError, title, description) }

func (h *Hub) publish(level Level, title, description string) {
	h.mu.Lock()
	h.nextID++
	n := Notice{ID: h.nextID, Level: level, Title: title, Description: description, At: time.Now()}
	h.mu.Unlock()

	h.log.Debug("notify", "level", level, "title", title)
	for _, s := range h.sinks {
		s.Deliver(n)
	}
}

// Discard drops every notice.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Success(string, string) {}
func (discard) Error(string, string)   {}
