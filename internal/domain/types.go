package domain

import (
	"fmt"
	"time"
)

// Section is one rich-text block of an email template. Order in a slice is render order.
type Section struct {
	ID   int    `json:"id" firestore:"id" bson:"id"`
	HTML string `json:"html" firestore:"html" bson:"html"`
}

// Template is an immutable snapshot of a saved section list.
type Template struct {
	ID        string
	Sections  []Section
	CreatedAt time.Time
}

// UploadedImage describes an image stored in the blob store.
type UploadedImage struct {
	Key         string
	URL         string
	ContentType string
	Size        int64
}

// ValidateSections reports the first duplicate or non-positive id.
func ValidateSections(sections []Section) error {
	seen := make(map[int]struct{}, len(sections))
	for _, section := range sections {
		if section.ID <= 0 {
			return fmt.Errorf("section id must be positive, got %d", section.ID)
		}
		if _, ok := seen[section.ID]; ok {
			return fmt.Errorf("duplicate section id %d", section.ID)
		}
		seen[section.ID] = struct{}{}
	}
	return nil
}

// CloneSections returns a copy that shares no backing array with sections.
func CloneSections(sections []Section) []Section {
	if sections == nil {
		return nil
	}
	out := make([]Section, len(sections))
	copy(out, sections)
	return out
}

// JoinSectionHTML concatenates section bodies with a line break, as the editor does
// before rendering.
func JoinSectionHTML(sections []Section) string {
	out := ""
	for i, section := range sections {
		if i > 0 {
			out += "<br/>"
		}
		out += section.HTML
	}
	return out
}

const (
	// HealthStatusOK indicates all dependencies are healthy.
	HealthStatusOK = "ok"
	// HealthStatusDegraded indicates at least one dependency failed but the process keeps serving.
	HealthStatusDegraded = "degraded"
	// HealthStatusError indicates a dependency timed out or was cancelled.
	HealthStatusError = "error"
)

// SystemHealthCheck describes the outcome of an individual dependency probe.
type SystemHealthCheck struct {
	Status    string
	Detail    string
	Error     string
	Latency   time.Duration
	CheckedAt time.Time
}

// SystemHealthReport aggregates dependency status for health endpoints.
type SystemHealthReport struct {
	Status      string
	Checks      map[string]SystemHealthCheck
	Version     string
	CommitSHA   string
	Environment string
	Uptime      time.Duration
	GeneratedAt time.Time
}
