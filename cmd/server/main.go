package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shelfscan/backend/config"
	httpDelivery "github.com/shelfscan/backend/internal/delivery/http"
	"github.com/shelfscan/backend/internal/infrastructure/camera"
	"github.com/shelfscan/backend/internal/infrastructure/decoder"
	"github.com/shelfscan/backend/internal/infrastructure/googlebooks"
	"github.com/shelfscan/backend/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting ShelfScan Backend v%s", httpDelivery.Version)
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	devices := cfg.Camera.DomainDevices()
	cam := camera.NewDirectoryCamera(devices, cfg.Camera.Options())
	log.Printf("Camera: %d device(s), mode=%s, interval=%s, loop=%v",
		len(devices), cfg.Camera.Mode, cfg.Camera.FrameInterval, cfg.Camera.Loop)

	formats, err := decoder.ParseFormats(cfg.Decoder.Formats)
	if err != nil {
		log.Fatalf("Invalid decoder formats: %v", err)
	}
	zxing := decoder.NewZXingDecoder(cfg.Decoder.TryHarder)
	log.Printf("Decoder: formats=%v, try_harder=%v", formats, cfg.Decoder.TryHarder)

	booksClient := googlebooks.NewClient(cfg.Books.BaseURL, googlebooks.Options{
		APIKey:            cfg.Books.APIKey,
		UserAgent:         cfg.Books.UserAgent,
		Timeout:           cfg.Books.Timeout,
		RequestsPerMinute: cfg.Books.RequestsPerMinute,
	})
	if cfg.Debug || cfg.Server.Environment == "development" {
		booksClient.SetDebug(true)
		log.Printf("Google Books client debug mode enabled")
	}
	if cfg.Books.APIKey != "" {
		log.Printf("Google Books API configured: %s (key set)", cfg.Books.BaseURL)
	} else {
		log.Printf("Google Books API configured: %s (anonymous quota)", cfg.Books.BaseURL)
	}

	board := usecase.NewStatusBoard()
	scanService := usecase.NewScanService(cam, zxing, booksClient, board, usecase.ScanServiceConfig{
		Formats:            formats,
		LabelKeywords:      cfg.Camera.LabelKeywords,
		EnableDebugLogging: cfg.Debug,
	})
	controller := usecase.NewScanController(ctx, scanService, board)
	bookService := usecase.NewBookService(booksClient)

	handler := httpDelivery.NewHandler(controller, bookService)
	router := httpDelivery.SetupRouter(cfg, handler)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Printf("Shutting down")
		controller.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("Server listening on %s", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
