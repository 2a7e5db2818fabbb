package domain

import "time"

// StatusKind classifies a user-visible status line
type StatusKind string

const (
	StatusIdle      StatusKind = "idle"
	StatusAcquiring StatusKind = "acquiring"
	StatusScanning  StatusKind = "scanning"
	StatusDetected  StatusKind = "detected"
	StatusFound     StatusKind = "found"
	StatusNotFound  StatusKind = "not_found"
	StatusError     StatusKind = "error"
	StatusStopped   StatusKind = "stopped"
)

// Status is what the operator sees after each pipeline step
type Status struct {
	SessionID string     `json:"sessionId,omitempty"`
	Kind      StatusKind `json:"kind"`
	Message   string     `json:"message"`
	ISBN      string     `json:"isbn,omitempty"`
	Book      *Book      `json:"book,omitempty"`
	At        time.Time  `json:"at"`
}
