package editor

import (
	"testing"

	domain "github.com/mailcomposer/api/internal/domain"
)

type fakePointerSource struct {
	listeners map[int]func(any)
	next      int
}

func (s *fakePointerSource) SubscribePointerDown(fn func(any)) func() {
	if s.listeners == nil {
		s.listeners = map[int]func(any){}
	}
	id := s.next
	s.next++
	s.listeners[id] = fn
	return func() { delete(s.listeners, id) }
}

func (s *fakePointerSource) press(target any) {
	for _, fn := range s.listeners {
		fn(target)
	}
}

func TestFocusResolverClearsOnlyOutsideRegions(t *testing.T) {
	store := loadedStore(t, domain.Section{ID: 1}, domain.Section{ID: 2})
	resolver := NewFocusResolver(store)
	resolver.Track("section-1", RegionFunc(func(target any) bool { return target == "section-1" }))
	resolver.Track("editor", RegionFunc(func(target any) bool { return target == "toolbar" }))

	src := &fakePointerSource{}
	resolver.Attach(src)
	if !store.Focus(1) {
		t.Fatal("expected focus to succeed")
	}

	for _, target := range []string{"toolbar", "section-1"} {
		src.press(target)
		if store.EditingID() != 1 {
			t.Fatalf("press on %s cleared focus", target)
		}
	}

	src.press("page-background")
	if store.EditingID() != NoFocus {
		t.Fatalf("expected focus cleared, got %d", store.EditingID())
	}
}

func TestFocusResolverUntrack(t *testing.T) {
	store := loadedStore(t, domain.Section{ID: 1})
	resolver := NewFocusResolver(store)
	resolver.Track("content", RegionFunc(func(target any) bool { return target == "content" }))
	resolver.Untrack("content")
	if !store.Focus(1) {
		t.Fatal("expected focus to succeed")
	}

	resolver.PointerDown("content")
	if store.EditingID() != NoFocus {
		t.Fatalf("expected untracked region to clear focus, got %d", store.EditingID())
	}
}

func TestFocusResolverDetach(t *testing.T) {
	store := loadedStore(t, domain.Section{ID: 1})
	resolver := NewFocusResolver(store)
	src := &fakePointerSource{}

	detach := resolver.Attach(src)
	if len(src.listeners) != 1 {
		t.Fatalf("expected one listener, got %d", len(src.listeners))
	}

	resolver.Attach(src)
	if len(src.listeners) != 1 {
		t.Fatalf("re-attach replaces the previous subscription, got %d listeners", len(src.listeners))
	}

	resolver.Close()
	if len(src.listeners) != 0 {
		t.Fatalf("expected listeners removed on close, got %d", len(src.listeners))
	}
	detach()
	resolver.Close()

	if !store.Focus(1) {
		t.Fatal("expected focus to succeed")
	}
	src.press("anywhere")
	if store.EditingID() != 1 {
		t.Fatalf("detached resolver changed focus to %d", store.EditingID())
	}
}
