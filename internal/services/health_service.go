package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"
)

// ClientCounter reports how many dashboard clients are connected
type ClientCounter interface {
	ClientCount() int
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	analytics *AnalyticsService
	hub       ClientCounter
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// VersionInfo describes the running build
type VersionInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// NewHealthService creates a new health service with injected dependencies
func NewHealthService(version, buildTime string, analytics *AnalyticsService, hub ClientCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("health service initialized",
		slog.String("version", version),
		slog.String("build_time", buildTime))

	return &HealthService{
		version:   version,
		buildTime: buildTime,
		analytics: analytics,
		hub:       hub,
		startTime: time.Now(),
		logger:    logger,
	}
}

// Health returns the full health report
func (s *HealthService) Health(ctx context.Context) *HealthStatus {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	services := map[string]interface{}{}
	if s.analytics != nil {
		datasetLoaded := false
		records := 0
		if info, err := s.analytics.Info(ctx); err == nil {
			datasetLoaded = true
			records = info.Records
		}
		services["analytics"] = map[string]interface{}{
			"status":         "up",
			"dataset_loaded": datasetLoaded,
			"records":        records,
		}
	}
	if s.hub != nil {
		services["websocket"] = map[string]interface{}{
			"status":  "up",
			"clients": s.hub.ClientCount(),
		}
	}

	return &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   s.version,
		Runtime: map[string]interface{}{
			"uptime":       time.Since(s.startTime).String(),
			"go_version":   runtime.Version(),
			"goroutines":   runtime.NumGoroutine(),
			"alloc_bytes":  memStats.Alloc,
			"num_gc":       memStats.NumGC,
			"os":           runtime.GOOS,
			"architecture": runtime.GOARCH,
		},
		Services: services,
	}
}

// Liveness reports whether the process is running
func (s *HealthService) Liveness(ctx context.Context) *HealthStatus {
	return &HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   s.version,
	}
}

// Readiness reports whether the service can accept traffic.
// The service is ready as soon as it is constructed; a missing dataset is a
// normal state, not a readiness failure.
func (s *HealthService) Readiness(ctx context.Context) *HealthStatus {
	return &HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   s.version,
	}
}

// Version returns build and runtime information
func (s *HealthService) Version(ctx context.Context) *VersionInfo {
	return &VersionInfo{
		Version:   s.version,
		BuildTime: s.buildTime,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Uptime returns how long the service has been running
func (s *HealthService) Uptime() string {
	return fmt.Sprintf("%.0fs", time.Since(s.startTime).Seconds())
}
