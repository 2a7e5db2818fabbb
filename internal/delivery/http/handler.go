package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shelfscan/backend/internal/domain"
	"github.com/shelfscan/backend/internal/isbn"
	"github.com/shelfscan/backend/internal/usecase"
)

// Version is reported by the health check
const Version = "1.0.0"

// Scanner drives scan sessions; usecase.ScanController implements it
type Scanner interface {
	Start(deviceID string) (string, error)
	Stop()
	Status() usecase.ScanStatus
	Devices(ctx context.Context) ([]domain.Device, string, error)
}

// BookLookup resolves a typed ISBN; usecase.BookService implements it
type BookLookup interface {
	Lookup(ctx context.Context, raw string) (*domain.Book, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	scanner Scanner
	books   BookLookup
}

// NewHandler creates a new HTTP handler. Either dependency may be nil, in
// which case its endpoints answer 501.
func NewHandler(scanner Scanner, books BookLookup) *Handler {
	return &Handler{
		scanner: scanner,
		books:   books,
	}
}

// StartScanRequest is the optional body of POST /scan/start
type StartScanRequest struct {
	DeviceID string `json:"deviceId"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "shelfscan-backend",
		"version": Version,
	})
}

// ListDevices returns the cameras and the one a plain start would use
func (h *Handler) ListDevices(c *gin.Context) {
	if h.scanner == nil {
		notConfigured(c, "Scanner")
		return
	}

	devices, preferred, err := h.scanner.Devices(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"devices":   devices,
		"preferred": preferred,
	})
}

// StartScan stops any running session and starts a new one
func (h *Handler) StartScan(c *gin.Context) {
	if h.scanner == nil {
		notConfigured(c, "Scanner")
		return
	}

	var req StartScanRequest
	// The body is optional; an empty one selects the preferred device
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
	}

	if req.DeviceID != "" {
		devices, _, err := h.scanner.Devices(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		if !hasDevice(devices, req.DeviceID) {
			respondError(c, domain.ErrDeviceNotFound)
			return
		}
	}

	sessionID, err := h.scanner.Start(req.DeviceID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"sessionId": sessionID,
		"state":     usecase.StateAcquiring.String(),
	})
}

// StopScan stops the current session; it succeeds when nothing is running
func (h *Handler) StopScan(c *gin.Context) {
	if h.scanner == nil {
		notConfigured(c, "Scanner")
		return
	}

	h.scanner.Stop()
	c.JSON(http.StatusOK, h.scanner.Status())
}

// ScanStatus reports the session state and last status line
func (h *Handler) ScanStatus(c *gin.Context) {
	if h.scanner == nil {
		notConfigured(c, "Scanner")
		return
	}

	c.JSON(http.StatusOK, h.scanner.Status())
}

// ValidateISBN checks a code against the ISBN-13 checksum
func (h *Handler) ValidateISBN(c *gin.Context) {
	code := c.Param("code")

	c.JSON(http.StatusOK, gin.H{
		"input":  code,
		"digits": isbn.Digits(code),
		"valid":  isbn.IsISBN13(code),
	})
}

// LookupBook fetches metadata for a typed ISBN
func (h *Handler) LookupBook(c *gin.Context) {
	if h.books == nil {
		notConfigured(c, "Book lookup")
		return
	}

	book, err := h.books.Lookup(c.Request.Context(), c.Param("isbn"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, book)
}

func hasDevice(devices []domain.Device, id string) bool {
	for _, d := range devices {
		if d.ID == id {
			return true
		}
	}
	return false
}

func notConfigured(c *gin.Context, what string) {
	c.JSON(http.StatusNotImplemented, gin.H{
		"error": what + " not configured",
	})
}

// respondError maps domain errors to HTTP status codes
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidISBN):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrBookNotFound),
		errors.Is(err, domain.ErrDeviceNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrBooksAPIFailure):
		status = http.StatusBadGateway
	case errors.Is(err, domain.ErrNoDevices),
		errors.Is(err, domain.ErrCameraUnavailable),
		errors.Is(err, domain.ErrDeviceBusy),
		errors.Is(err, context.Canceled):
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
