package usecase

import (
	"context"
	"image"
	"sync"

	"github.com/shelfscan/backend/internal/domain"
)

// MockCamera is a scripted domain.Camera
type MockCamera struct {
	devices []domain.Device
	openErr error

	mu      sync.Mutex
	opened  []string
	streams []*MockStream
}

func NewMockCamera(devices ...domain.Device) *MockCamera {
	if len(devices) == 0 {
		devices = []domain.Device{{ID: "cam0", Label: "Rear Camera"}}
	}
	return &MockCamera{devices: devices}
}

func (m *MockCamera) ListDevices(ctx context.Context) ([]domain.Device, error) {
	return m.devices, nil
}

func (m *MockCamera) Open(ctx context.Context, deviceID string) (domain.FrameStream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.opened = append(m.opened, deviceID)
	if m.openErr != nil {
		return nil, m.openErr
	}

	var device domain.Device
	for _, d := range m.devices {
		if d.ID == deviceID {
			device = d
		}
	}
	s := newMockStream(device)
	m.streams = append(m.streams, s)
	return s, nil
}

func (m *MockCamera) lastStream() *MockStream {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.streams) == 0 {
		return nil
	}
	return m.streams[len(m.streams)-1]
}

// MockStream delivers one frame and then stays open until closed
type MockStream struct {
	device domain.Device
	frames chan domain.Frame

	mu     sync.Mutex
	closes int
}

func newMockStream(device domain.Device) *MockStream {
	frames := make(chan domain.Frame, 1)
	frames <- domain.Frame{Seq: 1, Image: image.NewGray(image.Rect(0, 0, 1, 1))}
	return &MockStream{device: device, frames: frames}
}

func (s *MockStream) Device() domain.Device       { return s.device }
func (s *MockStream) Frames() <-chan domain.Frame { return s.frames }

func (s *MockStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closes == 0 {
		close(s.frames)
	}
	s.closes++
	return nil
}

func (s *MockStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes > 0
}

// MockDecoder replays a fixed script of results. When endless is set the
// last result repeats until the session is reset.
type MockDecoder struct {
	script   []domain.DecodeResult
	endless  bool
	startErr error

	mu       sync.Mutex
	sessions []*MockDecodeSession
	formats  []domain.BarcodeFormat
}

func (m *MockDecoder) Start(ctx context.Context, frames <-chan domain.Frame, formats []domain.BarcodeFormat) (domain.DecodeSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.formats = formats
	if m.startErr != nil {
		return nil, m.startErr
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &MockDecodeSession{
		results: make(chan domain.DecodeResult),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	m.sessions = append(m.sessions, s)

	go func() {
		defer close(s.done)
		defer close(s.results)

		for i := 0; ; i++ {
			if i >= len(m.script) {
				if !m.endless || len(m.script) == 0 {
					return
				}
				i = len(m.script) - 1
			}
			r := m.script[i]
			r.FrameSeq = uint64(i + 1)
			select {
			case s.results <- r:
				s.mu.Lock()
				s.delivered++
				s.mu.Unlock()
			case <-ctx.Done():
				return
			}
		}
	}()

	return s, nil
}

func (m *MockDecoder) lastSession() *MockDecodeSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sessions) == 0 {
		return nil
	}
	return m.sessions[len(m.sessions)-1]
}

type MockDecodeSession struct {
	results chan domain.DecodeResult
	cancel  context.CancelFunc
	done    chan struct{}

	mu        sync.Mutex
	resets    int
	delivered int
}

func (s *MockDecodeSession) Results() <-chan domain.DecodeResult { return s.results }

func (s *MockDecodeSession) Reset() {
	s.cancel()
	<-s.done
	s.mu.Lock()
	s.resets++
	s.mu.Unlock()
}

func (s *MockDecodeSession) WasReset() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resets > 0
}

// MockBooksClient is a mock implementation of domain.BooksClient
type MockBooksClient struct {
	book  *domain.Book
	err   error
	block chan struct{}

	mu    sync.Mutex
	calls []string
}

func (m *MockBooksClient) LookupISBN(ctx context.Context, isbn string) (*domain.Book, error) {
	m.mu.Lock()
	m.calls = append(m.calls, isbn)
	m.mu.Unlock()

	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.book, nil
}

func (m *MockBooksClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// recordingReporter keeps every status in order
type recordingReporter struct {
	mu       sync.Mutex
	statuses []domain.Status
}

func (r *recordingReporter) Report(status domain.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

func (r *recordingReporter) kinds() []domain.StatusKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]domain.StatusKind, len(r.statuses))
	for i, s := range r.statuses {
		kinds[i] = s.Kind
	}
	return kinds
}

func (r *recordingReporter) last() domain.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.statuses) == 0 {
		return domain.Status{}
	}
	return r.statuses[len(r.statuses)-1]
}

func notFound() domain.DecodeResult {
	return domain.DecodeResult{Kind: domain.DecodeNotFound}
}

func decoded(format domain.BarcodeFormat, text string) domain.DecodeResult {
	return domain.DecodeResult{Kind: domain.DecodeSymbol, Symbol: domain.Symbol{Format: format, Text: text}}
}

func testBook() *domain.Book {
	return &domain.Book{
		ISBN:          "9780134190440",
		Title:         "The Go Programming Language",
		Authors:       []string{"Alan A. A. Donovan", "Brian W. Kernighan"},
		AuthorLine:    "Alan A. A. Donovan, Brian W. Kernighan",
		Publisher:     "Addison-Wesley",
		PublishedDate: "2015",
	}
}
