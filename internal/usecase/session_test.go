package usecase

import (
	"context"
	"testing"

	"github.com/shelfscan/backend/internal/domain"
)

func TestSession_StopBeforeStart(t *testing.T) {
	sess := NewSession()

	sess.Stop()
	sess.Stop()

	if sess.State() != StateIdle {
		t.Errorf("State = %v, want idle", sess.State())
	}
	if sess.Scanning() {
		t.Error("expected scanning to be false")
	}
	if sess.ID() == "" {
		t.Error("expected a session id")
	}

	_, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := sess.begin(cancel); err != domain.ErrScanStopped {
		t.Errorf("begin() after early stop error = %v, want ErrScanStopped", err)
	}
}

func TestSession_Lifecycle(t *testing.T) {
	sess := NewSession()
	_, cancel := context.WithCancel(context.Background())

	if err := sess.begin(cancel); err != nil {
		t.Fatalf("begin() error = %v", err)
	}
	if sess.State() != StateAcquiring {
		t.Fatalf("State = %v, want acquiring", sess.State())
	}

	stream := newMockStream(domain.Device{ID: "cam"})
	if !sess.attachStream(stream) {
		t.Fatal("attachStream() = false")
	}
	if !sess.activate() {
		t.Fatal("activate() = false")
	}
	if sess.State() != StateActive {
		t.Fatalf("State = %v, want active", sess.State())
	}

	if !sess.claim() {
		t.Fatal("first claim should succeed")
	}
	if sess.claim() {
		t.Fatal("second claim should fail")
	}

	sess.Stop()
	if sess.State() != StateIdle {
		t.Errorf("State = %v, want idle", sess.State())
	}
	if !stream.Closed() {
		t.Error("expected stream to be closed")
	}

	if err := sess.begin(cancel); err != domain.ErrSessionBusy {
		t.Errorf("begin() after stop error = %v, want ErrSessionBusy", err)
	}
}

func TestSession_StopWhileAcquiring(t *testing.T) {
	sess := NewSession()
	ctx, cancel := context.WithCancel(context.Background())
	if err := sess.begin(cancel); err != nil {
		t.Fatal(err)
	}

	sess.Stop()

	if ctx.Err() == nil {
		t.Error("expected scan context to be cancelled")
	}
	if sess.attachStream(newMockStream(domain.Device{})) {
		t.Error("attachStream after stop should be refused")
	}
	if sess.claim() {
		t.Error("claim after stop should be refused")
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		StateIdle:      "idle",
		StateAcquiring: "acquiring",
		StateActive:    "active",
		StateStopping:  "stopping",
		State(42):      "unknown",
	}
	for state, want := range tests {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}
