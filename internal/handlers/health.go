package handlers

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	domain "github.com/mailcomposer/api/internal/domain"
	"github.com/mailcomposer/api/internal/services"
)

// HealthHandlers serves liveness and readiness probes.
type HealthHandlers struct {
	build  services.BuildInfo
	system services.SystemService
	clock  func() time.Time
}

// HealthOption customises HealthHandlers.
type HealthOption func(*HealthHandlers)

// WithHealthBuildInfo sets the build metadata reported by /healthz.
func WithHealthBuildInfo(info services.BuildInfo) HealthOption {
	return func(h *HealthHandlers) {
		h.build = info
	}
}

// WithHealthSystemService enables dependency checks on /readyz.
func WithHealthSystemService(svc services.SystemService) HealthOption {
	return func(h *HealthHandlers) {
		h.system = svc
	}
}

// WithHealthClock injects a clock for tests.
func WithHealthClock(clock func() time.Time) HealthOption {
	return func(h *HealthHandlers) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// NewHealthHandlers builds the probe handlers.
func NewHealthHandlers(opts ...HealthOption) *HealthHandlers {
	h := &HealthHandlers{clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	if h.build.StartedAt.IsZero() {
		h.build.StartedAt = h.clock()
	}
	return h
}

// Healthz reports process liveness without touching dependencies.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, _ *http.Request) {
	now := h.clock().UTC()
	payload := map[string]any{
		"status":    domain.HealthStatusOK,
		"uptime":    now.Sub(h.build.StartedAt).String(),
		"timestamp": now.Format(time.RFC3339),
	}
	addBuildFields(payload, h.build.Version, h.build.CommitSHA, h.build.Environment)
	writeJSONResponse(w, http.StatusOK, payload)
}

// Readyz reports dependency health, answering 503 unless every check is ok.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	now := h.clock().UTC()
	if h.system == nil {
		payload := map[string]any{
			"status":      domain.HealthStatusOK,
			"generatedAt": now.Format(time.RFC3339),
			"checks":      map[string]any{},
		}
		addBuildFields(payload, h.build.Version, h.build.CommitSHA, h.build.Environment)
		writeJSONResponse(w, http.StatusOK, payload)
		return
	}

	report, err := h.system.HealthReport(r.Context())
	if err != nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, map[string]any{
			"status":      domain.HealthStatusError,
			"generatedAt": now.Format(time.RFC3339),
			"details":     []string{err.Error()},
		})
		return
	}

	checks := make(map[string]any, len(report.Checks))
	names := make([]string, 0, len(report.Checks))
	for name := range report.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	details := []string{}
	for _, name := range names {
		check := report.Checks[name]
		entry := map[string]any{
			"status":    check.Status,
			"latencyMs": check.Latency.Milliseconds(),
		}
		if check.Detail != "" {
			entry["detail"] = check.Detail
		}
		if check.Error != "" {
			entry["error"] = check.Error
		}
		if !check.CheckedAt.IsZero() {
			entry["checkedAt"] = check.CheckedAt.UTC().Format(time.RFC3339)
		}
		checks[name] = entry
		if check.Status != domain.HealthStatusOK {
			reason := check.Error
			if reason == "" {
				reason = check.Detail
			}
			details = append(details, fmt.Sprintf("%s: %s", name, reason))
		}
	}

	generatedAt := report.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = now
	}
	payload := map[string]any{
		"status":      report.Status,
		"generatedAt": generatedAt.UTC().Format(time.RFC3339),
		"uptime":      report.Uptime.String(),
		"checks":      checks,
		"details":     details,
	}
	addBuildFields(payload, report.Version, report.CommitSHA, report.Environment)

	status := http.StatusOK
	if report.Status != domain.HealthStatusOK {
		status = http.StatusServiceUnavailable
	}
	writeJSONResponse(w, status, payload)
}

func addBuildFields(payload map[string]any, version, commit, env string) {
	if version != "" {
		payload["version"] = version
	}
	if commit != "" {
		payload["commitSha"] = commit
	}
	if env != "" {
		payload["environment"] = env
	}
}
