// Command scan runs one barcode scan in the foreground and prints the book
// it found. It exits 0 on a found book, 2 when the ISBN has no metadata and
// 1 on any other failure.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shelfscan/backend/config"
	"github.com/shelfscan/backend/internal/domain"
	"github.com/shelfscan/backend/internal/infrastructure/camera"
	"github.com/shelfscan/backend/internal/infrastructure/decoder"
	"github.com/shelfscan/backend/internal/infrastructure/googlebooks"
	"github.com/shelfscan/backend/internal/usecase"
)

const (
	exitFound    = 0
	exitFailure  = 1
	exitNotFound = 2
)

// consoleReporter prints each status line as the scan progresses
type consoleReporter struct {
	out io.Writer
}

func (r consoleReporter) Report(status domain.Status) {
	fmt.Fprintf(r.out, "[%s] %s\n", status.Kind, status.Message)
}

func main() {
	configDir := flag.String("config", "", "directory holding config.yaml")
	deviceID := flag.String("device", "", "camera device id (default: preferred device)")
	timeout := flag.Duration("timeout", 0, "give up after this long (0 waits until interrupted)")
	verbose := flag.Bool("v", false, "log pipeline details")
	flag.Parse()

	if !*verbose {
		log.SetOutput(io.Discard)
	}

	os.Exit(run(*configDir, *deviceID, *timeout, os.Stdout))
}

func run(configDir, deviceID string, timeout time.Duration, out io.Writer) int {
	cfg, err := config.LoadFrom(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return exitFailure
	}

	formats, err := decoder.ParseFormats(cfg.Decoder.Formats)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return exitFailure
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	booksClient := googlebooks.NewClient(cfg.Books.BaseURL, googlebooks.Options{
		APIKey:            cfg.Books.APIKey,
		UserAgent:         cfg.Books.UserAgent,
		Timeout:           cfg.Books.Timeout,
		RequestsPerMinute: cfg.Books.RequestsPerMinute,
	})
	booksClient.SetDebug(cfg.Debug)

	svc := usecase.NewScanService(
		camera.NewDirectoryCamera(cfg.Camera.DomainDevices(), cfg.Camera.Options()),
		decoder.NewZXingDecoder(cfg.Decoder.TryHarder),
		booksClient,
		consoleReporter{out: out},
		usecase.ScanServiceConfig{
			Formats:            formats,
			LabelKeywords:      cfg.Camera.LabelKeywords,
			EnableDebugLogging: cfg.Debug,
		},
	)

	outcome, err := svc.Run(ctx, usecase.NewSession(), deviceID)
	switch {
	case err == nil:
		printBook(out, outcome.Book)
		return exitFound
	case errors.Is(err, domain.ErrBookNotFound):
		return exitNotFound
	default:
		fmt.Fprintf(os.Stderr, "scan: %v\n", err)
		return exitFailure
	}
}

func printBook(out io.Writer, book *domain.Book) {
	fmt.Fprintf(out, "ISBN:      %s\n", book.ISBN)
	fmt.Fprintf(out, "Title:     %s\n", book.Title)
	fmt.Fprintf(out, "Authors:   %s\n", book.AuthorLine)
	fmt.Fprintf(out, "Publisher: %s\n", book.Publisher)
	fmt.Fprintf(out, "Published: %s\n", book.PublishedDate)
	if book.CoverURL != "" {
		fmt.Fprintf(out, "Cover:     %s\n", book.CoverURL)
	}
}
