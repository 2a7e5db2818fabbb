package usecase

import (
	"log"
	"sync"
	"time"

	"github.com/shelfscan/backend/internal/domain"
)

// StatusBoard keeps the latest status line for the active session and logs
// every report
type StatusBoard struct {
	mu      sync.RWMutex
	active  string
	current domain.Status
}

// NewStatusBoard creates a board showing the idle status
func NewStatusBoard() *StatusBoard {
	return &StatusBoard{
		current: domain.Status{
			Kind:    domain.StatusIdle,
			Message: "Camera idle.",
			At:      time.Now(),
		},
	}
}

// Activate makes id the session whose reports are displayed
func (b *StatusBoard) Activate(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.active = id
}

// Report stores status unless it belongs to a superseded session
func (b *StatusBoard) Report(status domain.Status) {
	if status.At.IsZero() {
		status.At = time.Now()
	}
	log.Printf("[Scan] session=%s kind=%s isbn=%s: %s", shortID(status.SessionID), status.Kind, status.ISBN, status.Message)

	b.mu.Lock()
	defer b.mu.Unlock()
	if status.SessionID != "" && b.active != "" && status.SessionID != b.active {
		return
	}
	b.current = status
}

// Current returns the displayed status
func (b *StatusBoard) Current() domain.Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	if id == "" {
		return "-"
	}
	return id
}
