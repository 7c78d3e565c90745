package repositories

import (
	"context"
	"strings"
	"sync"

	domain "github.com/mailcomposer/api/internal/domain"
)

// MemoryTemplateRepository keeps snapshots in process memory. Safe for concurrent use.
type MemoryTemplateRepository struct {
	mu        sync.RWMutex
	templates []domain.Template
	ids       map[string]struct{}
}

var _ TemplateRepository = (*MemoryTemplateRepository)(nil)

// NewMemoryTemplateRepository returns an empty repository.
func NewMemoryTemplateRepository() *MemoryTemplateRepository {
	return &MemoryTemplateRepository{ids: make(map[string]struct{})}
}

// Insert appends a copy of template.
func (r *MemoryTemplateRepository) Insert(_ context.Context, template domain.Template) error {
	id := strings.TrimSpace(template.ID)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.ids[id]; exists {
		return NewConflictError("template repository: duplicate template id "+id, nil)
	}
	template.Sections = domain.CloneSections(template.Sections)
	r.templates = append(r.templates, template)
	r.ids[id] = struct{}{}
	return nil
}

// Latest returns the most recently inserted template.
func (r *MemoryTemplateRepository) Latest(_ context.Context) (domain.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.templates) == 0 {
		return domain.Template{}, ErrTemplateNotFound
	}
	latest := r.templates[len(r.templates)-1]
	latest.Sections = domain.CloneSections(latest.Sections)
	return latest, nil
}

// Len reports the number of stored snapshots.
func (r *MemoryTemplateRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.templates)
}

func (r *MemoryTemplateRepository) Ping(context.Context) error  { return nil }
func (r *MemoryTemplateRepository) Close(context.Context) error { return nil }

// DiscardTemplateRepository accepts every write and never returns a saved template,
// so the seed layout is always served.
type DiscardTemplateRepository struct{}

var _ TemplateRepository = DiscardTemplateRepository{}

func (DiscardTemplateRepository) Insert(context.Context, domain.Template) error { return nil }

func (DiscardTemplateRepository) Latest(context.Context) (domain.Template, error) {
	return domain.Template{}, ErrTemplateNotFound
}

func (DiscardTemplateRepository) Ping(context.Context) error  { return nil }
func (DiscardTemplateRepository) Close(context.Context) error { return nil }
