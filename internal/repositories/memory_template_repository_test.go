package repositories

import (
	"context"
	"testing"
	"time"

	domain "github.com/mailcomposer/api/internal/domain"
)

func TestMemoryTemplateRepositoryLatest(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTemplateRepository()

	if _, err := repo.Latest(ctx); !IsNotFound(err) {
		t.Fatalf("expected not found on empty repository, got %v", err)
	}

	first := domain.Template{ID: "01A", Sections: []domain.Section{{ID: 1, HTML: "a"}}, CreatedAt: time.Unix(1, 0)}
	second := domain.Template{ID: "01B", Sections: []domain.Section{{ID: 1, HTML: "b"}}, CreatedAt: time.Unix(2, 0)}
	if err := repo.Insert(ctx, first); err != nil {
		t.Fatalf("insert first: %v", err)
	}
	if err := repo.Insert(ctx, second); err != nil {
		t.Fatalf("insert second: %v", err)
	}

	latest, err := repo.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest.ID != "01B" || latest.Sections[0].HTML != "b" {
		t.Fatalf("unexpected latest %+v", latest)
	}

	latest.Sections[0].HTML = "mutated"
	again, _ := repo.Latest(ctx)
	if again.Sections[0].HTML != "b" {
		t.Fatalf("repository state leaked through returned slice")
	}
	if repo.Len() != 2 {
		t.Fatalf("expected 2 templates, got %d", repo.Len())
	}
}

func TestMemoryTemplateRepositoryRejectsDuplicateID(t *testing.T) {
	repo := NewMemoryTemplateRepository()
	tpl := domain.Template{ID: "01A"}
	if err := repo.Insert(context.Background(), tpl); err != nil {
		t.Fatalf("insert: %v", err)
	}
	err := repo.Insert(context.Background(), tpl)
	repoErr, ok := err.(RepositoryError)
	if !ok || !repoErr.IsConflict() {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestDiscardTemplateRepository(t *testing.T) {
	repo := DiscardTemplateRepository{}
	if err := repo.Insert(context.Background(), domain.Template{ID: "x"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := repo.Latest(context.Background()); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
