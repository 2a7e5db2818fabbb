package domain

import (
	"image"
	"time"
)

// BarcodeFormat names a symbology recognized by the decoder
type BarcodeFormat string

const (
	FormatEAN13 BarcodeFormat = "EAN_13"
	FormatEAN8  BarcodeFormat = "EAN_8"
	FormatUPCA  BarcodeFormat = "UPC_A"
	FormatUPCE  BarcodeFormat = "UPC_E"
	FormatOther BarcodeFormat = "OTHER"
)

// Symbol is one decoded barcode payload
type Symbol struct {
	Format BarcodeFormat `json:"format"`
	Text   string        `json:"text"`
}

// DecodeKind tags a DecodeResult
type DecodeKind int

const (
	// DecodeNotFound means the frame held no recognizable symbol
	DecodeNotFound DecodeKind = iota
	// DecodeSymbol means a symbol was recognized
	DecodeSymbol
	// DecodeFailed means decoding the frame failed for another reason
	DecodeFailed
)

func (k DecodeKind) String() string {
	switch k {
	case DecodeNotFound:
		return "not_found"
	case DecodeSymbol:
		return "decoded"
	case DecodeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DecodeResult is one attempt of the decoder on one frame
type DecodeResult struct {
	Kind     DecodeKind
	Symbol   Symbol
	Err      error
	FrameSeq uint64
}

// Frame is a single still taken from a camera device
type Frame struct {
	Seq        uint64
	Image      image.Image
	Source     string
	CapturedAt time.Time
}

// Device describes an enumerable camera
type Device struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Path  string `json:"-"`
}
