package repositories

import (
	"context"

	domain "github.com/mailcomposer/api/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// TemplateRepository persists template snapshots. Latest returns an error whose
// IsNotFound reports true when nothing has been saved yet.
type TemplateRepository interface {
	Insert(ctx context.Context, template domain.Template) error
	Latest(ctx context.Context) (domain.Template, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// HealthRepository aggregates dependency health information.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}
