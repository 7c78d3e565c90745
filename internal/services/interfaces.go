package services

import (
	"context"
	"io"
	"time"

	domain "github.com/mailcomposer/api/internal/domain"
)

// TemplateService owns the section layout lifecycle: serving, saving and rendering.
type TemplateService interface {
	Layout(ctx context.Context) ([]domain.Section, error)
	Save(ctx context.Context, sections []domain.Section) (domain.Template, error)
	Render(ctx context.Context, cmd RenderCommand) (RenderedFile, error)
}

// ImageService stores uploaded images and returns their public location.
type ImageService interface {
	Upload(ctx context.Context, cmd ImageUploadCommand) (domain.UploadedImage, error)
}

// SystemService exposes health information.
type SystemService interface {
	HealthReport(ctx context.Context) (SystemHealthReport, error)
}

// SystemHealthReport is re-exported for handlers.
type SystemHealthReport = domain.SystemHealthReport

// BuildInfo captures runtime metadata exposed via health endpoints.
type BuildInfo struct {
	Version     string
	CommitSHA   string
	Environment string
	StartedAt   time.Time
}

// TemplateRenderer produces the final document for the merged section HTML.
type TemplateRenderer interface {
	RenderToTempFile(ctx context.Context, dir, html string) (string, func(), error)
}

// TemplateEventPublisher announces saved templates to downstream consumers.
type TemplateEventPublisher interface {
	PublishTemplateSaved(ctx context.Context, event TemplateSavedEvent) (string, error)
}

// TemplateSavedEvent is the payload published after a successful save.
type TemplateSavedEvent struct {
	EventID      string    `json:"eventId"`
	TemplateID   string    `json:"templateId"`
	SectionCount int       `json:"sectionCount"`
	SavedAt      time.Time `json:"savedAt"`
}

// RenderCommand carries the render config. A nil Config is rejected with ErrRenderConfigMissing.
type RenderCommand struct {
	Config *RenderConfig
}

// RenderConfig holds the merged section HTML.
type RenderConfig struct {
	HTML string `json:"html"`
}

// RenderedFile is a rendered document on local disk. Cleanup must be called once the
// file has been streamed.
type RenderedFile struct {
	Path    string
	Name    string
	Cleanup func()
}

// ImageUploadCommand describes one uploaded file.
type ImageUploadCommand struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
	ClientKey   string
}
