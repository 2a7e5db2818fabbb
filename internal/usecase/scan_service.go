package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/shelfscan/backend/internal/domain"
	"github.com/shelfscan/backend/internal/infrastructure/camera"
	"github.com/shelfscan/backend/internal/isbn"
)

// ScanServiceConfig holds configuration for the scan service
type ScanServiceConfig struct {
	Formats            []domain.BarcodeFormat
	LabelKeywords      []string
	EnableDebugLogging bool
}

// Outcome describes how a scan session ended
type Outcome struct {
	SessionID      string        `json:"sessionId"`
	Device         domain.Device `json:"device"`
	Symbol         domain.Symbol `json:"symbol"`
	ISBN           string        `json:"isbn"`
	Book           *domain.Book  `json:"book,omitempty"`
	DecodeAttempts int           `json:"decodeAttempts"`
}

// ScanService runs the camera -> decoder -> validator -> lookup pipeline
type ScanService struct {
	camera   domain.Camera
	decoder  domain.Decoder
	books    domain.BooksClient
	reporter domain.StatusReporter
	config   ScanServiceConfig
}

// NewScanService creates a new scan service with dependencies
func NewScanService(
	cam domain.Camera,
	decoder domain.Decoder,
	books domain.BooksClient,
	reporter domain.StatusReporter,
	config ScanServiceConfig,
) *ScanService {
	if config.LabelKeywords == nil {
		config.LabelKeywords = camera.DefaultLabelKeywords
	}

	return &ScanService{
		camera:   cam,
		decoder:  decoder,
		books:    books,
		reporter: reporter,
		config:   config,
	}
}

// Run performs one scan session on sess. An empty deviceID selects the
// preferred device. It blocks until a valid ISBN-13 was looked up, the
// session is stopped, ctx is done or the camera fails. The camera and
// decoder are released before Run returns.
//
// A found book returns a nil error. A lookup without metadata returns the
// outcome together with domain.ErrBookNotFound.
func (s *ScanService) Run(ctx context.Context, sess *Session, deviceID string) (*Outcome, error) {
	scanCtx, cancel := context.WithCancel(ctx)
	if err := sess.begin(cancel); err != nil {
		cancel()
		return nil, err
	}
	defer sess.Stop()

	s.reportLive(sess, domain.StatusAcquiring, "Starting camera...")

	device, stream, err := s.acquire(scanCtx, deviceID)
	if err != nil {
		if scanCtx.Err() != nil {
			sess.fail()
			return nil, domain.ErrScanStopped
		}
		s.reportLive(sess, domain.StatusError, fmt.Sprintf("Camera failed to start: %v", err))
		sess.fail()
		return nil, err
	}
	if !sess.attachStream(stream) {
		stream.Close()
		return nil, domain.ErrScanStopped
	}

	var first domain.Frame
	select {
	case <-scanCtx.Done():
		return nil, domain.ErrScanStopped
	case f, ok := <-stream.Frames():
		if !ok {
			s.reportLive(sess, domain.StatusError, "Camera stream ended before the first frame.")
			return nil, domain.ErrStreamEnded
		}
		first = f
	}
	if !sess.activate() {
		return nil, domain.ErrScanStopped
	}

	decode, err := s.decoder.Start(scanCtx, prepend(scanCtx, first, stream.Frames()), s.config.Formats)
	if err != nil {
		if !errors.Is(err, domain.ErrDecoderInit) {
			err = fmt.Errorf("%w: %v", domain.ErrDecoderInit, err)
		}
		s.reportLive(sess, domain.StatusError, fmt.Sprintf("Scan failed: %v", err))
		return nil, err
	}
	if !sess.attachDecoder(decode) {
		decode.Reset()
		return nil, domain.ErrScanStopped
	}

	s.reportLive(sess, domain.StatusScanning, "Camera started, hold the barcode inside the frame...")

	outcome := &Outcome{SessionID: sess.ID(), Device: device}
	for {
		var result domain.DecodeResult
		select {
		case <-scanCtx.Done():
			return nil, domain.ErrScanStopped
		case r, ok := <-decode.Results():
			if !ok {
				if scanCtx.Err() != nil {
					return nil, domain.ErrScanStopped
				}
				s.reportLive(sess, domain.StatusError, "Camera stream ended before a barcode was found.")
				return nil, domain.ErrStreamEnded
			}
			result = r
		}
		outcome.DecodeAttempts++

		// Results may still arrive after a hit or a stop; they are dropped
		if scanCtx.Err() != nil || !sess.Scanning() {
			return nil, domain.ErrScanStopped
		}

		switch result.Kind {
		case domain.DecodeNotFound:
			continue
		case domain.DecodeFailed:
			log.Printf("[Scan] Decode error on frame %d: %v", result.FrameSeq, result.Err)
			continue
		}

		if !isbn.IsISBN13(result.Symbol.Text) {
			s.debugLog("Ignoring %s symbol %q: not an ISBN-13", result.Symbol.Format, result.Symbol.Text)
			continue
		}
		if !sess.claim() {
			return nil, domain.ErrScanStopped
		}

		outcome.Symbol = result.Symbol
		outcome.ISBN = isbn.Digits(result.Symbol.Text)
		s.report(sess, domain.StatusDetected, fmt.Sprintf("ISBN %s detected, looking up...", outcome.ISBN), outcome.ISBN, nil)

		// Release the camera before the network call
		sess.Stop()

		return s.lookup(ctx, sess, outcome)
	}
}

func (s *ScanService) acquire(ctx context.Context, deviceID string) (domain.Device, domain.FrameStream, error) {
	devices, err := s.camera.ListDevices(ctx)
	if err != nil {
		return domain.Device{}, nil, fmt.Errorf("%w: %v", domain.ErrCameraUnavailable, err)
	}

	device, err := camera.SelectDevice(devices, deviceID, s.config.LabelKeywords)
	if err != nil {
		return domain.Device{}, nil, err
	}

	stream, err := s.camera.Open(ctx, device.ID)
	if err != nil {
		return domain.Device{}, nil, err
	}
	return device, stream, nil
}

func (s *ScanService) lookup(ctx context.Context, sess *Session, outcome *Outcome) (*Outcome, error) {
	book, err := s.books.LookupISBN(ctx, outcome.ISBN)
	switch {
	case err == nil:
		outcome.Book = book
		s.report(sess, domain.StatusFound, fmt.Sprintf("Found %q by %s", book.Title, book.AuthorLine), outcome.ISBN, book)
		return outcome, nil

	case errors.Is(err, domain.ErrBookNotFound):
		s.report(sess, domain.StatusNotFound, fmt.Sprintf("No book data found for ISBN %s.", outcome.ISBN), outcome.ISBN, nil)
		return outcome, err

	default:
		s.report(sess, domain.StatusError, fmt.Sprintf("Lookup failed for ISBN %s: %v", outcome.ISBN, err), outcome.ISBN, nil)
		return outcome, err
	}
}

// reportLive reports a pre-detection status unless the session was stopped,
// so a stop is never overwritten by a status it raced with.
func (s *ScanService) reportLive(sess *Session, kind domain.StatusKind, msg string) {
	sess.whileScanning(func() {
		s.report(sess, kind, msg, "", nil)
	})
}

func (s *ScanService) report(sess *Session, kind domain.StatusKind, msg, isbnDigits string, book *domain.Book) {
	if s.reporter == nil {
		return
	}
	s.reporter.Report(domain.Status{
		SessionID: sess.ID(),
		Kind:      kind,
		Message:   msg,
		ISBN:      isbnDigits,
		Book:      book,
	})
}

func (s *ScanService) debugLog(format string, args ...interface{}) {
	if s.config.EnableDebugLogging {
		log.Printf("[Scan] "+format, args...)
	}
}

// prepend yields first followed by everything from rest, until rest closes
// or ctx is done
func prepend(ctx context.Context, first domain.Frame, rest <-chan domain.Frame) <-chan domain.Frame {
	out := make(chan domain.Frame)
	go func() {
		defer close(out)

		select {
		case out <- first:
		case <-ctx.Done():
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case f, ok := <-rest:
				if !ok {
					return
				}
				select {
				case out <- f:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Devices lists the available cameras together with the preferred device id
func (s *ScanService) Devices(ctx context.Context) ([]domain.Device, string, error) {
	devices, err := s.camera.ListDevices(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrCameraUnavailable, err)
	}
	if len(devices) == 0 {
		return devices, "", nil
	}

	preferred, err := camera.SelectDevice(devices, "", s.config.LabelKeywords)
	if err != nil {
		return devices, "", err
	}
	return devices, preferred.ID, nil
}
