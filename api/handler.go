package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/facturaIA/expense-extractor/internal/db"
	"github.com/facturaIA/expense-extractor/internal/models"
	"github.com/facturaIA/expense-extractor/internal/money"
	"github.com/facturaIA/expense-extractor/internal/parser"
	"github.com/facturaIA/expense-extractor/internal/pdftext"
	"github.com/facturaIA/expense-extractor/internal/services"
	"github.com/facturaIA/expense-extractor/internal/storage"
)

const (
	MaxParseTextSize = 1 << 20 // 1MB of plain text
	Version          = "1.0.0"
)

// Handler handles HTTP requests for expense extraction
type Handler struct {
	config    *models.Config
	store     db.Store
	text      pdftext.Source
	validator *services.TaxValidator
	logger    zerolog.Logger
}

// NewHandler creates a new API handler. store may be nil, in which case the
// extraction endpoints work without persistence.
func NewHandler(config *models.Config, store db.Store, text pdftext.Source, logger zerolog.Logger) *Handler {
	return &Handler{
		config:    config,
		store:     store,
		text:      text,
		validator: services.NewTaxValidator(),
		logger:    logger,
	}
}

// SetupRoutes configures the HTTP routes
func (h *Handler) SetupRoutes() *mux.Router {
	router := mux.NewRouter()
	router.Use(
		hlog.NewHandler(h.logger),
		hlog.RequestIDHandler("req_id", "X-Request-Id"),
		hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
			hlog.FromRequest(r).Debug().
				Str("method", r.Method).
				Stringer("url", r.URL).
				Int("status", status).
				Int("size", size).
				Dur("duration", duration).
				Msg("request")
		}),
	)

	// Extraction
	router.HandleFunc("/api/expenses/extract", h.ExtractExpense).Methods("POST")
	router.HandleFunc("/api/parse", h.ParseText).Methods("POST")

	// Stored extractions
	router.HandleFunc("/api/expenses/{id:[0-9]+}/extraction", h.GetExtraction).Methods("GET")
	router.HandleFunc("/api/expenses/{id:[0-9]+}/extraction", h.PutExtraction).Methods("PUT")
	router.HandleFunc("/api/expenses/{id:[0-9]+}/extraction", h.DeleteExtraction).Methods("DELETE")

	// Health check
	router.HandleFunc("/health", h.Health).Methods("GET")

	return router
}

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status     string        `json:"status"`
	Version    string        `json:"version"`
	Timestamp  string        `json:"timestamp"`
	Uptime     string        `json:"uptime"`
	Memory     MemoryStats   `json:"memory"`
	TextEngine string        `json:"textEngine"`
	Database   ServiceStatus `json:"database"`
	Storage    ServiceStatus `json:"storage"`
}

// MemoryStats represents memory usage statistics
type MemoryStats struct {
	Allocated string `json:"allocated"`
	Total     string `json:"total"`
	System    string `json:"system"`
}

// ServiceStatus represents the status of a service dependency
type ServiceStatus struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

var startTime = time.Now()

// Health endpoint. Database and storage are optional, so the service only
// reports itself degraded when neither persistence backend is available.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	databaseStatus := h.checkDatabase()
	storageStatus := h.checkStorage()

	response := HealthResponse{
		Status:    "healthy",
		Version:   Version,
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    time.Since(startTime).String(),
		Memory: MemoryStats{
			Allocated: fmt.Sprintf("%.2f MB", float64(m.Alloc)/1024/1024),
			Total:     fmt.Sprintf("%.2f MB", float64(m.TotalAlloc)/1024/1024),
			System:    fmt.Sprintf("%.2f MB", float64(m.Sys)/1024/1024),
		},
		TextEngine: h.config.Extraction.TextEngine,
		Database:   databaseStatus,
		Storage:    storageStatus,
	}

	if !databaseStatus.Available {
		response.Status = "degraded"
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// checkDatabase reports which extraction store is in use
func (h *Handler) checkDatabase() ServiceStatus {
	switch h.store.(type) {
	case nil:
		return ServiceStatus{
			Available: false,
			Error:     "no extraction store configured",
		}
	case *db.PostgresStore:
		return ServiceStatus{
			Available: true,
			Version:   "PostgreSQL",
		}
	case *db.BoltStore:
		return ServiceStatus{
			Available: true,
			Version:   "bbolt (embedded)",
		}
	default:
		return ServiceStatus{Available: true}
	}
}

// checkStorage verifies MinIO connection
func (h *Handler) checkStorage() ServiceStatus {
	if !storage.Available() {
		return ServiceStatus{
			Available: false,
			Error:     "storage client not initialized",
		}
	}

	return ServiceStatus{
		Available: true,
		Version:   "MinIO S3",
	}
}

// ExtractExpense handles a PDF upload: stores the file, extracts its text
// and returns the parsed fields for the expense form
func (h *Handler) ExtractExpense(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()
	logger := zerolog.Ctx(ctx)
	started := time.Now()

	maxSize := h.config.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		h.sendError(w, http.StatusBadRequest, "File too large or invalid form data")
		return
	}

	expenseID, hasExpenseID, err := optionalExpenseID(r.FormValue("expense_id"))
	if err != nil {
		h.sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Accept both "pdf" and "file" field names
	file, _, err := r.FormFile("pdf")
	if err != nil {
		file, _, err = r.FormFile("file")
		if err != nil {
			h.sendError(w, http.StatusBadRequest, "No file provided (use 'pdf' or 'file' field)")
			return
		}
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "Failed to read file")
		return
	}

	if contentType := http.DetectContentType(data); contentType != "application/pdf" {
		logger.Info().Str("content_type", contentType).Msg("Rejected non-PDF upload")
		h.sendError(w, http.StatusUnsupportedMediaType, "El archivo debe ser un PDF")
		return
	}

	// Upload to MinIO (if configured)
	var pdfPath string
	if storage.Available() {
		pdfPath, err = storage.UploadExpensePDF(ctx, bytes.NewReader(data), int64(len(data)))
		if err != nil {
			// Continue without the stored copy
			logger.Warn().Err(err).Msg("Failed to store expense PDF")
			pdfPath = ""
		}
	}

	text := pdftext.ExtractOrEmpty(ctx, h.text, data)
	response := h.extract(text)
	if pdfPath != "" {
		response.PDFPath = &pdfPath
	}

	if hasExpenseID {
		if h.store == nil {
			logger.Warn().Int64("expense_id", expenseID).Msg("No extraction store, result not saved")
		} else {
			extraction := &db.ExpenseExtraction{
				ExpenseID:  expenseID,
				Extracted:  response.Extracted,
				PDFPath:    pdfPath,
				HasContent: response.HasContent,
			}
			if err := h.store.SaveExtraction(ctx, extraction); err != nil {
				logger.Error().Err(err).Int64("expense_id", expenseID).Msg("Failed to save extraction")
			} else {
				response.Saved = true
			}
		}
	}

	response.TotalDuration = time.Since(started).Seconds()

	logger.Info().
		Int("bytes", len(data)).
		Bool("has_content", response.HasContent).
		Int("fields", len(response.Extracted.Populated())).
		Bool("saved", response.Saved).
		Float64("duration", response.TotalDuration).
		Msg("Expense PDF processed")

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// ParseText runs the parser over text the client already extracted
func (h *Handler) ParseText(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	started := time.Now()

	var req models.ParseRequest
	r.Body = http.MaxBytesReader(w, r.Body, MaxParseTextSize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	response := h.extract(pdftext.Normalize(req.Text))
	response.TotalDuration = time.Since(started).Seconds()

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// extract builds the response shared by both extraction endpoints
func (h *Handler) extract(text string) models.ExtractResponse {
	result := parser.Parse(text)

	return models.ExtractResponse{
		Success:    true,
		HasContent: parser.HasUsefulContent(text),
		Extracted:  result,
		Validation: h.validator.Validate(&result),
		Display: models.Display{
			BaseAmount:  money.FormatNull(result.BaseAmount),
			VATRate:     formatRate(result),
			VATAmount:   money.FormatNull(result.VATAmount),
			TotalAmount: money.FormatNull(result.TotalAmount),
		},
	}
}

func formatRate(r parser.Result) string {
	if !r.VATRate.Valid {
		return ""
	}
	return money.FormatRate(r.VATRate.Decimal)
}

// GetExtraction returns the stored extraction of an expense
func (h *Handler) GetExtraction(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.store == nil {
		h.sendError(w, http.StatusServiceUnavailable, "extraction store not available")
		return
	}

	expenseID, err := pathExpenseID(r)
	if err != nil {
		h.sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	extraction, err := h.store.GetExtraction(r.Context(), expenseID)
	if err != nil {
		h.sendStoreError(w, r, err, "failed to get extraction")
		return
	}

	response := map[string]interface{}{
		"success":    true,
		"extraction": extraction,
	}
	if storage.Available() && extraction.PDFPath != "" {
		url, err := storage.GetPresignedURL(r.Context(), extraction.PDFPath)
		if err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Str("pdf_path", extraction.PDFPath).Msg("Failed to sign expense PDF URL")
		} else {
			response["pdf_url"] = url
		}
	}
	json.NewEncoder(w).Encode(response)
}

// PutExtraction stores a corrected extraction for an expense
func (h *Handler) PutExtraction(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.store == nil {
		h.sendError(w, http.StatusServiceUnavailable, "extraction store not available")
		return
	}

	expenseID, err := pathExpenseID(r)
	if err != nil {
		h.sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	var extraction db.ExpenseExtraction
	r.Body = http.MaxBytesReader(w, r.Body, MaxParseTextSize)
	if err := json.NewDecoder(r.Body).Decode(&extraction); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	extraction.ExpenseID = expenseID

	if err := h.store.SaveExtraction(r.Context(), &extraction); err != nil {
		h.sendStoreError(w, r, err, "failed to save extraction")
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":    true,
		"extraction": extraction,
	})
}

// DeleteExtraction removes the stored extraction of an expense and its PDF
func (h *Handler) DeleteExtraction(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.store == nil {
		h.sendError(w, http.StatusServiceUnavailable, "extraction store not available")
		return
	}

	ctx := r.Context()
	expenseID, err := pathExpenseID(r)
	if err != nil {
		h.sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Optionally: delete the PDF from MinIO
	if storage.Available() {
		extraction, err := h.store.GetExtraction(ctx, expenseID)
		if err == nil && extraction.PDFPath != "" {
			if err := storage.DeleteObject(ctx, extraction.PDFPath); err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Str("pdf_path", extraction.PDFPath).Msg("Failed to delete expense PDF")
			}
		}
	}

	if err := h.store.DeleteExtraction(ctx, expenseID); err != nil {
		h.sendStoreError(w, r, err, "failed to delete extraction")
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "extraction deleted",
	})
}

func pathExpenseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid expense id")
	}
	return id, nil
}

func optionalExpenseID(value string) (int64, bool, error) {
	if value == "" {
		return 0, false, nil
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, false, errors.New("invalid expense_id")
	}
	return id, true, nil
}

func (h *Handler) sendStoreError(w http.ResponseWriter, r *http.Request, err error, message string) {
	if errors.Is(err, db.ErrNotFound) {
		h.sendError(w, http.StatusNotFound, err.Error())
		return
	}
	zerolog.Ctx(r.Context()).Error().Err(err).Msg(message)
	h.sendError(w, http.StatusInternalServerError, message)
}

func (h *Handler) sendError(w http.ResponseWriter, statusCode int, message string) {
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
