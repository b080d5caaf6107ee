package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"postpulse/internal/dataprocessing"
	apierrors "postpulse/internal/errors"
	"postpulse/internal/infrastructure"
	"postpulse/internal/services"
)

// DashboardHandler handles dataset, filter and aggregate HTTP requests
type DashboardHandler struct {
	service        AnalyticsServiceInterface
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
	maxUploadBytes int64
}

// NewDashboardHandler creates a new dashboard handler with RFC 7807 error handling
func NewDashboardHandler(service AnalyticsServiceInterface, maxUploadBytes int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:        service,
		logger:         logger.With(slog.String("component", "dashboard_handler")),
		errorHandler:   errorHandler,
		maxUploadBytes: maxUploadBytes,
	}
}

// Routes returns the dashboard routes with proper Chi patterns
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/dataset", h.UploadDataset)
	r.Get("/dataset", h.GetDataset)
	r.Get("/filters", h.GetFilters)
	r.Put("/filters", h.SetFilters)
	r.Get("/dashboard", h.GetDashboard)

	return r
}

// UploadDataset handles POST /api/dataset with a multipart "file" field
func (h *DashboardHandler) UploadDataset(w http.ResponseWriter, r *http.Request) {
	reqID := infrastructure.GetTraceID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "Multipart field \"file\" is required"))
		return
	}
	defer file.Close()

	h.logger.InfoContext(r.Context(), "dataset upload received",
		slog.String("request_id", reqID),
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size),
	)

	info, err := h.service.Upload(r.Context(), header.Filename, file)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "dataset upload failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, h.mapUploadError(err, header.Filename))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"success": true,
		"dataset": info,
	})
}

func (h *DashboardHandler) mapUploadError(err error, filename string) error {
	switch {
	case errors.Is(err, dataprocessing.ErrUnsupportedFormat):
		return apierrors.UnsupportedFormatError(filename)
	case errors.Is(err, dataprocessing.ErrNoDataRows):
		return apierrors.ErrEmptyDataset
	default:
		return apierrors.IngestError(err)
	}
}

// GetDataset handles GET /api/dataset
func (h *DashboardHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Info(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"success": true,
		"dataset": info,
	})
}

// GetFilters handles GET /api/filters
func (h *DashboardHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.Filters(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"success": true,
		"filters": state,
	})
}

// SetFilters handles PUT /api/filters
func (h *DashboardHandler) SetFilters(w http.ResponseWriter, r *http.Request) {
	var sel dataprocessing.Selection
	if err := render.DecodeJSON(r.Body, &sel); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	state, err := h.service.SetFilters(r.Context(), sel)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"success": true,
		"filters": state,
	})
}

// GetDashboard handles GET /api/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"success":   true,
		"dashboard": dashboard,
	})
}

func (h *DashboardHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "service call failed",
		slog.String("error", err.Error()),
		slog.String("request_id", infrastructure.GetTraceID(r.Context())),
		slog.String("path", r.URL.Path),
	)

	var valErrs validator.ValidationErrors
	switch {
	case errors.Is(err, services.ErrNoDataset):
		h.errorHandler.HandleError(w, r, apierrors.ErrDatasetNotFound)
	case errors.As(err, &valErrs):
		fields := make([]apierrors.ValidationError, 0, len(valErrs))
		for _, fe := range valErrs {
			fields = append(fields, apierrors.ValidationError{
				Field:   fe.Field(),
				Message: "failed " + fe.Tag() + " validation",
			})
		}
		h.errorHandler.HandleError(w, r, apierrors.NewValidationErrors(fields))
	case errors.Is(err, services.ErrUnknownFilterValue):
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", err.Error()))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}
