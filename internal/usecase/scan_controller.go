package usecase

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/shelfscan/backend/internal/domain"
)

// ScanStatus is a snapshot of the controller for display
type ScanStatus struct {
	SessionID string        `json:"sessionId,omitempty"`
	State     string        `json:"state"`
	Status    domain.Status `json:"status"`
	Outcome   *Outcome      `json:"outcome,omitempty"`
}

// ScanController owns the current scan session. Starting a scan stops the
// previous one; sessions run in the background.
type ScanController struct {
	baseCtx context.Context
	svc     *ScanService
	board   *StatusBoard

	mu      sync.Mutex
	current *Session
	done    chan struct{}
	outcome *Outcome
}

// NewScanController creates a controller. baseCtx bounds every session and
// lookup it starts.
func NewScanController(baseCtx context.Context, svc *ScanService, board *StatusBoard) *ScanController {
	return &ScanController{
		baseCtx: baseCtx,
		svc:     svc,
		board:   board,
	}
}

// Start stops any running session and begins a new one on deviceID
// (empty selects the preferred device). It returns the new session id.
func (c *ScanController) Start(deviceID string) (string, error) {
	if err := c.baseCtx.Err(); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil {
		c.current.Stop()
	}

	sess := NewSession()
	done := make(chan struct{})
	c.current = sess
	c.done = done
	c.outcome = nil
	c.board.Activate(sess.ID())

	go func() {
		defer close(done)

		outcome, err := c.svc.Run(c.baseCtx, sess, deviceID)
		if err != nil && !errors.Is(err, domain.ErrBookNotFound) {
			log.Printf("[Scan] Session %s ended: %v", shortID(sess.ID()), err)
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.current == sess {
			c.outcome = outcome
		}
	}()

	return sess.ID(), nil
}

// Stop stops the current session. It is safe to call when nothing runs.
// A session whose pipeline already returned keeps its last status.
func (c *ScanController) Stop() {
	c.mu.Lock()
	sess, done := c.current, c.done
	c.mu.Unlock()

	if sess != nil && finished(done) {
		return
	}

	status := domain.Status{Kind: domain.StatusStopped, Message: "Camera stopped."}
	if sess != nil {
		sess.Stop()
		status.SessionID = sess.ID()
	}
	c.board.Report(status)
}

func finished(done <-chan struct{}) bool {
	select {
	case <-done:
		return true
	default:
		return false
	}
}

// Wait blocks until the current session's pipeline has returned or ctx is done
func (c *ScanController) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns the current session state and the last status line
func (c *ScanController) Status() ScanStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := ScanStatus{
		State:   StateIdle.String(),
		Status:  c.board.Current(),
		Outcome: c.outcome,
	}
	if c.current != nil {
		st.SessionID = c.current.ID()
		st.State = c.current.State().String()
	}
	return st
}

// Devices lists the cameras and the one an unqualified start would pick
func (c *ScanController) Devices(ctx context.Context) ([]domain.Device, string, error) {
	return c.svc.Devices(ctx)
}
