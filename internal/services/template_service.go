package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/mailcomposer/api/internal/domain"
	"github.com/mailcomposer/api/internal/repositories"
)

const (
	defaultDownloadName     = "rendered-template.html"
	templateEventSaved      = "template.saved"
	templateEventPublishErr = "template.saved.publish_failed"
	templateEventLayoutSeed = "template.layout.seed"
	templateEventRendered   = "template.rendered"
)

// TemplateServiceDeps wires dependencies for the template service.
type TemplateServiceDeps struct {
	Repository   repositories.TemplateRepository
	Renderer     TemplateRenderer
	Publisher    TemplateEventPublisher
	Seed         func() []domain.Section
	TempDir      string
	DownloadName string
	Clock        func() time.Time
	IDGenerator  func() string
	Logger       func(ctx context.Context, event string, fields map[string]any)
}

type templateService struct {
	repo         repositories.TemplateRepository
	renderer     TemplateRenderer
	publisher    TemplateEventPublisher
	seed         func() []domain.Section
	tempDir      string
	downloadName string
	clock        func() time.Time
	newID        func() string
	logger       func(context.Context, string, map[string]any)
}

var _ TemplateService = (*templateService)(nil)

// NewTemplateService constructs the template service. Publisher is optional.
func NewTemplateService(deps TemplateServiceDeps) (TemplateService, error) {
	if deps.Repository == nil {
		return nil, errors.New("template service: repository is required")
	}
	if deps.Renderer == nil {
		return nil, errors.New("template service: renderer is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	seed := deps.Seed
	if seed == nil {
		seed = domain.SeedSections
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	name := strings.TrimSpace(deps.DownloadName)
	if name == "" {
		name = defaultDownloadName
	}

	return &templateService{
		repo:         deps.Repository,
		renderer:     deps.Renderer,
		publisher:    deps.Publisher,
		seed:         seed,
		tempDir:      strings.TrimSpace(deps.TempDir),
		downloadName: name,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		logger: logger,
	}, nil
}

// Layout serves the latest saved template, falling back to the seed layout when nothing
// has been saved.
func (s *templateService) Layout(ctx context.Context) ([]domain.Section, error) {
	latest, err := s.repo.Latest(ctx)
	switch {
	case err == nil:
		sections := domain.CloneSections(latest.Sections)
		if sections == nil {
			sections = []domain.Section{}
		}
		return sections, nil
	case repositories.IsNotFound(err):
		s.logger(ctx, templateEventLayoutSeed, nil)
		return s.seed(), nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrTemplateRepository, err)
	}
}

// Save stores a new snapshot and announces it. Publishing is best effort.
func (s *templateService) Save(ctx context.Context, sections []domain.Section) (domain.Template, error) {
	if sections == nil {
		return domain.Template{}, fmt.Errorf("%w: sections are required", ErrTemplateInvalid)
	}
	if err := domain.ValidateSections(sections); err != nil {
		return domain.Template{}, fmt.Errorf("%w: %v", ErrTemplateInvalid, err)
	}

	template := domain.Template{
		ID:        s.newID(),
		Sections:  domain.CloneSections(sections),
		CreatedAt: s.clock(),
	}
	if err := s.repo.Insert(ctx, template); err != nil {
		return domain.Template{}, fmt.Errorf("%w: %v", ErrTemplateRepository, err)
	}
	s.logger(ctx, templateEventSaved, map[string]any{
		"templateId":   template.ID,
		"sectionCount": len(template.Sections),
	})

	if s.publisher != nil {
		event := TemplateSavedEvent{
			EventID:      s.newID(),
			TemplateID:   template.ID,
			SectionCount: len(template.Sections),
			SavedAt:      template.CreatedAt,
		}
		if _, err := s.publisher.PublishTemplateSaved(ctx, event); err != nil {
			s.logger(ctx, templateEventPublishErr, map[string]any{
				"templateId": template.ID,
				"error":      err.Error(),
			})
		}
	}
	return template, nil
}

// Render writes the document to a per-call temporary file.
func (s *templateService) Render(ctx context.Context, cmd RenderCommand) (RenderedFile, error) {
	if cmd.Config == nil {
		return RenderedFile{}, ErrRenderConfigMissing
	}
	path, cleanup, err := s.renderer.RenderToTempFile(ctx, s.tempDir, cmd.Config.HTML)
	if err != nil {
		return RenderedFile{}, fmt.Errorf("%w: %v", ErrRender, err)
	}
	s.logger(ctx, templateEventRendered, map[string]any{"bytesIn": len(cmd.Config.HTML)})
	return RenderedFile{
		Path:    path,
		Name:    s.downloadName,
		Cleanup: cleanup,
	}, nil
}
