package usecase

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"budgettool/src/core/ports"
)

// HealthService checks the backends the API depends on.
type HealthService struct {
	log     *slog.Logger
	timeout time.Duration
	checks  map[string]ports.ExternalService
}

// NewHealthService creates a new HealthService. Each named dependency is
// pinged on every detailed check.
func NewHealthService(log *slog.Logger, checks map[string]ports.ExternalService) *HealthService {
	return &HealthService{
		log:     log,
		timeout: 2 * time.Second,
		checks:  checks,
	}
}

// HealthStatus represents the health of the application.
type HealthStatus struct {
	Status     string                     `json:"status"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

// ComponentHealth represents the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Check pings every dependency. Overall status is "ok" only when all are healthy.
func (s *HealthService) Check(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:     "ok",
		Components: make(map[string]ComponentHealth, len(s.checks)),
	}

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, s.timeout)
		err := s.checks[name].Health(checkCtx)
		cancel()

		if err != nil {
			s.log.Warn("health check failed", "component", name, "error", err)
			status.Status = "degraded"
			status.Components[name] = ComponentHealth{Status: "unhealthy", Message: err.Error()}
			continue
		}
		status.Components[name] = ComponentHealth{Status: "healthy"}
	}

	return status
}
