package domain

import "context"

// BooksClient defines the interface for the book metadata endpoint
type BooksClient interface {
	LookupISBN(ctx context.Context, isbn string) (*Book, error)
}

// FrameStream is an open camera handle. Close releases the device and must be
// safe to call more than once.
type FrameStream interface {
	Device() Device
	Frames() <-chan Frame
	Close() error
}

// Camera enumerates and opens frame sources
type Camera interface {
	ListDevices(ctx context.Context) ([]Device, error)
	Open(ctx context.Context, deviceID string) (FrameStream, error)
}

// DecodeSession is a running decoder. Results is closed when the frame stream
// ends, the context is done or Reset is called. Reset is idempotent.
type DecodeSession interface {
	Results() <-chan DecodeResult
	Reset()
}

// Decoder starts decode sessions over a frame stream restricted to formats
type Decoder interface {
	Start(ctx context.Context, frames <-chan Frame, formats []BarcodeFormat) (DecodeSession, error)
}

// StatusReporter receives user-visible status updates
type StatusReporter interface {
	Report(status Status)
}
