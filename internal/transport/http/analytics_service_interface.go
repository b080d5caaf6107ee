package http

import (
	"context"
	"io"

	"postpulse/internal/dataprocessing"
	"postpulse/internal/services"
)

// AnalyticsServiceInterface defines the operations the dashboard handlers need
type AnalyticsServiceInterface interface {
	Upload(ctx context.Context, filename string, r io.Reader) (*services.DatasetInfo, error)
	Info(ctx context.Context) (*services.DatasetInfo, error)
	Filters(ctx context.Context) (*services.FilterState, error)
	SetFilters(ctx context.Context, sel dataprocessing.Selection) (*services.FilterState, error)
	Dashboard(ctx context.Context) (*services.Dashboard, error)
}
