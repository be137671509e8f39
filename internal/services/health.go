package services

import (
	"context"
	"time"

	"github.com/nimasrn/review-runner/internal/apperr"
	"github.com/nimasrn/review-runner/pkg/logger"
)

const healthTimeout = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthReport struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies"`
}

type HealthService struct {
	deps map[string]Pinger
}

func NewHealthService(deps map[string]Pinger) *HealthService {
	return &HealthService{deps: deps}
}

// Check pings every dependency. Any failure degrades the service to 503.
func (s *HealthService) Check(ctx context.Context) (*HealthReport, error) {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	report := &HealthReport{Status: "ok", Dependencies: make(map[string]string, len(s.deps))}
	for name, p := range s.deps {
		if err := p.Ping(ctx); err != nil {
			logger.Error("health check failed", "dependency", name, "error", err)
			report.Dependencies[name] = "down"
			report.Status = "degraded"
			continue
		}
		report.Dependencies[name] = "up"
	}

	if report.Status != "ok" {
		return report, apperr.Unavailable("service degraded", report)
	}
	return report, nil
}
