package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/mailcomposer/api/internal/domain"
	pfirestore "github.com/mailcomposer/api/internal/platform/firestore"
	"github.com/mailcomposer/api/internal/repositories"
)

const defaultTemplateCollection = "emailTemplates"

// TemplateRepository stores template snapshots as one document per save, keyed by template id.
type TemplateRepository struct {
	base     *pfirestore.BaseRepository[templateDocument]
	provider *pfirestore.Provider
}

var _ repositories.TemplateRepository = (*TemplateRepository)(nil)

type templateDocument struct {
	Sections  []sectionDocument `firestore:"sections"`
	CreatedAt time.Time         `firestore:"createdAt"`
}

type sectionDocument struct {
	ID   int    `firestore:"id"`
	HTML string `firestore:"html"`
}

// NewTemplateRepository constructs a Firestore-backed template repository.
func NewTemplateRepository(provider *pfirestore.Provider, collection string) (*TemplateRepository, error) {
	if provider == nil {
		return nil, errors.New("template repository requires firestore provider")
	}
	collection = strings.TrimSpace(collection)
	if collection == "" {
		collection = defaultTemplateCollection
	}
	return &TemplateRepository{
		base:     pfirestore.NewBaseRepository[templateDocument](provider, collection),
		provider: provider,
	}, nil
}

// Insert creates the snapshot document. Reusing an id is reported as a conflict.
func (r *TemplateRepository) Insert(ctx context.Context, template domain.Template) error {
	if r == nil || r.base == nil {
		return errors.New("template repository not initialised")
	}
	if strings.TrimSpace(template.ID) == "" {
		return errors.New("template id is required")
	}
	_, err := r.base.Create(ctx, template.ID, toTemplateDocument(template))
	return err
}

// Latest returns the snapshot with the newest createdAt.
func (r *TemplateRepository) Latest(ctx context.Context) (domain.Template, error) {
	if r == nil || r.base == nil {
		return domain.Template{}, errors.New("template repository not initialised")
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("createdAt", firestore.Desc).Limit(1)
	})
	if err != nil {
		return domain.Template{}, err
	}
	if len(docs) == 0 {
		return domain.Template{}, repositories.ErrTemplateNotFound
	}
	return fromTemplateDocument(docs[0].ID, docs[0].Data, docs[0].CreateTime), nil
}

// Ping verifies the collection can be read.
func (r *TemplateRepository) Ping(ctx context.Context) error {
	if r == nil || r.base == nil {
		return errors.New("template repository not initialised")
	}
	return r.base.Ping(ctx)
}

// Close releases the shared Firestore client.
func (r *TemplateRepository) Close(context.Context) error {
	if r == nil || r.provider == nil {
		return nil
	}
	return r.provider.Close()
}

func toTemplateDocument(template domain.Template) templateDocument {
	sections := make([]sectionDocument, 0, len(template.Sections))
	for _, section := range template.Sections {
		sections = append(sections, sectionDocument{ID: section.ID, HTML: section.HTML})
	}
	return templateDocument{
		Sections:  sections,
		CreatedAt: template.CreatedAt.UTC(),
	}
}

func fromTemplateDocument(id string, doc templateDocument, createTime time.Time) domain.Template {
	sections := make([]domain.Section, 0, len(doc.Sections))
	for _, section := range doc.Sections {
		sections = append(sections, domain.Section{ID: section.ID, HTML: section.HTML})
	}
	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = createTime
	}
	return domain.Template{
		ID:        id,
		Sections:  sections,
		CreatedAt: createdAt.UTC(),
	}
}
