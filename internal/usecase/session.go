package usecase

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shelfscan/backend/internal/domain"
)

// State is the camera lifecycle state of a Session
type State int

const (
	StateIdle State = iota
	StateAcquiring
	StateActive
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiring:
		return "acquiring"
	case StateActive:
		return "active"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Session owns the camera stream and decoder of one scan. It is single-use:
// once started and stopped it stays Idle. Stop is safe at any time.
type Session struct {
	id string

	mu       sync.Mutex
	state    State
	started  bool
	stopped  bool
	scanning bool
	cancel   context.CancelFunc
	stream   domain.FrameStream
	decode   domain.DecodeSession
}

// NewSession creates an idle session with a fresh id
func NewSession() *Session {
	return &Session{id: uuid.NewString()}
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Scanning reports whether decode results are still acted on
func (s *Session) Scanning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanning
}

// begin moves Idle to Acquiring
func (s *Session) begin(cancel context.CancelFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return domain.ErrScanStopped
	}
	if s.started {
		return domain.ErrSessionBusy
	}
	s.started = true
	s.state = StateAcquiring
	s.scanning = true
	s.cancel = cancel
	return nil
}

// fail moves Acquiring back to Idle after a device error
func (s *Session) fail() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateAcquiring {
		s.state = StateIdle
		s.scanning = false
	}
}

// attachStream records the granted device. It returns false if the session
// was stopped while the device was being acquired.
func (s *Session) attachStream(stream domain.FrameStream) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAcquiring {
		return false
	}
	s.stream = stream
	return true
}

// activate moves Acquiring to Active once the first frame arrived
func (s *Session) activate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAcquiring {
		return false
	}
	s.state = StateActive
	return true
}

// attachDecoder records the running decoder
func (s *Session) attachDecoder(decode domain.DecodeSession) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		return false
	}
	s.decode = decode
	return true
}

// whileScanning runs fn under the session lock if the session is still
// scanning. Stop cannot interleave with fn.
func (s *Session) whileScanning(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scanning {
		fn()
	}
}

// claim flips the scanning flag off. Only the first caller gets true, so at
// most one hit per session triggers a lookup.
func (s *Session) claim() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.scanning || s.state != StateActive {
		return false
	}
	s.scanning = false
	return true
}

// Stop resets the decoder, releases the camera and returns to Idle.
// Calling it on an idle or stopping session does nothing.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.state == StateStopping {
		s.mu.Unlock()
		return
	}
	if !s.started {
		// Stopped before Run began; it must never start
		s.started, s.stopped = true, true
		s.mu.Unlock()
		return
	}
	cancel, decode, stream := s.cancel, s.decode, s.stream
	s.cancel, s.decode, s.stream = nil, nil, nil
	s.scanning = false
	if s.state == StateIdle && cancel == nil && decode == nil && stream == nil {
		s.mu.Unlock()
		return
	}
	s.state = StateStopping
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if decode != nil {
		decode.Reset()
	}
	if stream != nil {
		stream.Close()
	}

	s.mu.Lock()
	s.state = StateIdle
	s.mu.Unlock()
}
