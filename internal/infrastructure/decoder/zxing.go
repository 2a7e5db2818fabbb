// Package decoder turns camera frames into barcode decode results using the
// gozxing port of ZXing.
package decoder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/shelfscan/backend/internal/domain"
)

// DefaultFormats restrict decoding to the symbologies books carry
var DefaultFormats = []domain.BarcodeFormat{domain.FormatEAN13, domain.FormatEAN8}

var supportedFormats = map[domain.BarcodeFormat]gozxing.BarcodeFormat{
	domain.FormatEAN13: gozxing.BarcodeFormat_EAN_13,
	domain.FormatEAN8:  gozxing.BarcodeFormat_EAN_8,
	domain.FormatUPCA:  gozxing.BarcodeFormat_UPC_A,
	domain.FormatUPCE:  gozxing.BarcodeFormat_UPC_E,
}

// ParseFormats converts configured names such as "ean_13" or "EAN-8" to formats
func ParseFormats(names []string) ([]domain.BarcodeFormat, error) {
	formats := make([]domain.BarcodeFormat, 0, len(names))
	for _, name := range names {
		f := domain.BarcodeFormat(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), "-", "_")))
		if _, ok := supportedFormats[f]; !ok {
			return nil, fmt.Errorf("%w: unsupported barcode format %q", domain.ErrDecoderInit, name)
		}
		formats = append(formats, f)
	}
	return formats, nil
}

// ZXingDecoder decodes UPC/EAN symbols from frames
type ZXingDecoder struct {
	tryHarder bool
}

// NewZXingDecoder creates a decoder. tryHarder trades speed for accuracy.
func NewZXingDecoder(tryHarder bool) *ZXingDecoder {
	return &ZXingDecoder{tryHarder: tryHarder}
}

// Start begins decoding frames in arrival order. An empty format list means
// every supported format.
func (d *ZXingDecoder) Start(ctx context.Context, frames <-chan domain.Frame, formats []domain.BarcodeFormat) (domain.DecodeSession, error) {
	if frames == nil {
		return nil, fmt.Errorf("%w: no frame source", domain.ErrDecoderInit)
	}

	hints, err := d.hints(formats)
	if err != nil {
		return nil, err
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	s := &zxingSession{
		reader:  oned.NewMultiFormatUPCEANReader(hints),
		hints:   hints,
		results: make(chan domain.DecodeResult),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go s.run(sessionCtx, frames)

	return s, nil
}

func (d *ZXingDecoder) hints(formats []domain.BarcodeFormat) (map[gozxing.DecodeHintType]interface{}, error) {
	if len(formats) == 0 {
		formats = []domain.BarcodeFormat{domain.FormatEAN13, domain.FormatEAN8, domain.FormatUPCA, domain.FormatUPCE}
	}

	possible := make([]gozxing.BarcodeFormat, 0, len(formats))
	for _, f := range formats {
		zf, ok := supportedFormats[f]
		if !ok {
			return nil, fmt.Errorf("%w: unsupported barcode format %q", domain.ErrDecoderInit, f)
		}
		possible = append(possible, zf)
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_POSSIBLE_FORMATS: possible,
	}
	if d.tryHarder {
		hints[gozxing.DecodeHintType_TRY_HARDER] = true
	}
	return hints, nil
}

type zxingSession struct {
	reader  gozxing.Reader
	hints   map[gozxing.DecodeHintType]interface{}
	results chan domain.DecodeResult
	cancel  context.CancelFunc
	done    chan struct{}

	resetOnce sync.Once
}

func (s *zxingSession) Results() <-chan domain.DecodeResult {
	return s.results
}

// Reset stops decoding and waits for the worker to exit
func (s *zxingSession) Reset() {
	s.resetOnce.Do(func() {
		s.cancel()
		<-s.done
	})
}

func (s *zxingSession) run(ctx context.Context, frames <-chan domain.Frame) {
	defer close(s.done)
	defer close(s.results)

	for {
		var frame domain.Frame
		select {
		case <-ctx.Done():
			return
		case f, ok := <-frames:
			if !ok {
				return
			}
			frame = f
		}

		result := s.decode(frame)

		select {
		case s.results <- result:
		case <-ctx.Done():
			return
		}
	}
}

func (s *zxingSession) decode(frame domain.Frame) domain.DecodeResult {
	result := domain.DecodeResult{FrameSeq: frame.Seq}

	if frame.Image == nil {
		result.Kind = domain.DecodeFailed
		result.Err = fmt.Errorf("frame %d has no image", frame.Seq)
		return result
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(frame.Image)
	if err != nil {
		result.Kind = domain.DecodeFailed
		result.Err = fmt.Errorf("frame %d: %w", frame.Seq, err)
		return result
	}

	decoded, err := s.reader.Decode(bmp, s.hints)
	s.reader.Reset()
	if err != nil {
		var notFound gozxing.NotFoundException
		if errors.As(err, &notFound) {
			result.Kind = domain.DecodeNotFound
			return result
		}
		result.Kind = domain.DecodeFailed
		result.Err = fmt.Errorf("frame %d: %w", frame.Seq, err)
		return result
	}

	result.Kind = domain.DecodeSymbol
	result.Symbol = domain.Symbol{
		Format: fromZXing(decoded.GetBarcodeFormat()),
		Text:   decoded.GetText(),
	}
	return result
}

func fromZXing(f gozxing.BarcodeFormat) domain.BarcodeFormat {
	for ours, theirs := range supportedFormats {
		if theirs == f {
			return ours
		}
	}
	return domain.FormatOther
}
