package domain

import "errors"

var (
	// ErrInvalidISBN is returned when a string does not reduce to a valid ISBN-13
	ErrInvalidISBN = errors.New("invalid ISBN-13")

	// ErrBookNotFound is returned when the books API has no usable result for an ISBN
	ErrBookNotFound = errors.New("no metadata found for ISBN")

	// ErrBooksAPIFailure is returned when the books API request fails at transport level
	ErrBooksAPIFailure = errors.New("books API request failed")

	// ErrNoDevices is returned when no camera device is configured
	ErrNoDevices = errors.New("no camera devices available")

	// ErrDeviceNotFound is returned when a requested device id is not enumerated
	ErrDeviceNotFound = errors.New("camera device not found")

	// ErrDeviceBusy is returned when a device is already held by another stream
	ErrDeviceBusy = errors.New("camera device busy")

	// ErrCameraUnavailable is returned when a device cannot be opened
	ErrCameraUnavailable = errors.New("camera unavailable")

	// ErrDecoderInit is returned when the barcode decoder cannot be started
	ErrDecoderInit = errors.New("barcode decoder initialization failed")

	// ErrStreamEnded is returned when the frame stream closes before a hit
	ErrStreamEnded = errors.New("frame stream ended")

	// ErrScanStopped is returned when a session is stopped before a hit
	ErrScanStopped = errors.New("scan stopped")

	// ErrSessionBusy is returned when a session is started twice
	ErrSessionBusy = errors.New("scan session already started")
)
