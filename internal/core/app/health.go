package app

import (
	"context"
	"fmt"
	"time"
)

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

type HealthService struct {
	app *App
}

func NewHealthService(app *App) *HealthService {
	return &HealthService{app: app}
}

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	linter := s.app.Linter()
	if linter == nil {
		status.Status = "degraded"
		status.Components["linter"] = "missing"
	} else {
		status.Components["linter"] = fmt.Sprintf("ok (%d rules)", len(linter.Enabled()))
		status.Components["parser"] = fmt.Sprintf("ok (%d extensions)", len(linter.Parser().SupportedExtensions()))
	}

	cfg := s.app.Config()
	switch {
	case s.app.cache != nil:
		if n, err := s.app.cache.Len(); err != nil {
			status.Status = "degraded"
			status.Components["cache"] = "error: " + err.Error()
		} else {
			status.Components["cache"] = fmt.Sprintf("ok (%d entries)", n)
		}
	case cfg.Cache.CacheEnabled() && !s.app.opts.NoCache && !s.app.opts.Fix:
		status.Components["cache"] = "unavailable"
	default:
		status.Components["cache"] = "disabled"
	}

	if s.app.history != nil {
		status.Components["history"] = "ok"
	} else if cfg.History.Enabled {
		status.Status = "degraded"
		status.Components["history"] = "missing but enabled in config"
	}

	if last, ok := s.app.LastRun(); ok {
		status.Components["last_run"] = fmt.Sprintf("%s (%d files, %d errors, %d warnings)",
			last.At.Format(time.RFC3339), last.Files, last.Errors, last.Warnings)
		if last.Failed > 0 {
			status.Status = "degraded"
		}
	}

	return status
}
