package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// HealthStatus represents the overall health of the service.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "ok"
	HealthStatusUnhealthy HealthStatus = "unavailable"
)

// ComponentStatus represents the health of an individual component.
type ComponentStatus string

const (
	ComponentStatusUp   ComponentStatus = "up"
	ComponentStatusDown ComponentStatus = "down"
)

// Health is the readiness response body.
type Health struct {
	Status     HealthStatus               `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents the health of a single dependency.
type ComponentHealth struct {
	Status    ComponentStatus `json:"status"`
	Message   string          `json:"message,omitempty"`
	LatencyMs int64           `json:"latency_ms"`
}

// HandleLive provides a liveness probe (is the process running?)
func (cfg Config) HandleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleReady reports whether the database and the storage directory are
// usable. It answers 503 when any component is down.
func (cfg Config) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	health := Health{
		Status:    HealthStatusHealthy,
		Timestamp: time.Now().UTC(),
		Version:   cfg.Build.Version,
		Components: map[string]ComponentHealth{
			"database": check(func() error { return cfg.Files.Ping(ctx) }),
			"storage":  check(cfg.Disk.Writable),
		},
	}

	status := http.StatusOK
	for _, c := range health.Components {
		if c.Status == ComponentStatusDown {
			health.Status = HealthStatusUnhealthy
			status = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, status, health)
}

func check(probe func() error) ComponentHealth {
	start := time.Now()
	err := probe()
	c := ComponentHealth{
		Status:    ComponentStatusUp,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		c.Status = ComponentStatusDown
		c.Message = err.Error()
	}
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
