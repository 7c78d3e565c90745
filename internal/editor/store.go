package editor

import (
	"fmt"

	domain "github.com/mailcomposer/api/internal/domain"
)

// NoFocus is the EditingID value when no section is under edit.
const NoFocus = 0

// State is a snapshot of the section list and the edit session.
type State struct {
	Sections  []domain.Section
	EditingID int
	Draft     string
	NextID    int
	Loading   bool
}

// Clone returns a copy that shares no backing array with s.
func (s State) Clone() State {
	s.Sections = domain.CloneSections(s.Sections)
	return s
}

func (s State) index(id int) int {
	for i, section := range s.Sections {
		if section.ID == id {
			return i
		}
	}
	return -1
}

// allocateID returns the next id, never below max(ids)+1.
func (s *State) allocateID() int {
	id := s.NextID
	if floor := maxID(s.Sections) + 1; id < floor {
		id = floor
	}
	s.NextID = id + 1
	return id
}

func maxID(sections []domain.Section) int {
	highest := 0
	for _, section := range sections {
		if section.ID > highest {
			highest = section.ID
		}
	}
	return highest
}

// Store owns the editor state. It starts in the loading state; every mutating call is
// ignored until Load succeeds.
type Store struct {
	state State
}

// NewStore returns an empty store waiting for its initial load.
func NewStore() *Store {
	return &Store{state: State{Loading: true, NextID: 1}}
}

// Load replaces the whole list, clears the loading flag and focus, and recomputes the
// id counter.
func (s *Store) Load(sections []domain.Section) error {
	if err := domain.ValidateSections(sections); err != nil {
		return fmt.Errorf("editor: load: %w", err)
	}
	cloned := domain.CloneSections(sections)
	if cloned == nil {
		cloned = []domain.Section{}
	}
	s.state = State{
		Sections:  cloned,
		EditingID: NoFocus,
		NextID:    maxID(cloned) + 1,
	}
	return nil
}

// PatchFocused commits html to the focused section. With nothing focused it appends a
// new section and focuses it. It returns the id that received the content, or NoFocus
// while loading.
func (s *Store) PatchFocused(html string) int {
	if s.state.Loading {
		return NoFocus
	}
	if i := s.state.index(s.state.EditingID); s.state.EditingID != NoFocus && i >= 0 {
		s.state.Sections[i].HTML = html
		s.state.Draft = html
		return s.state.EditingID
	}
	id := s.state.allocateID()
	s.state.Sections = append(s.state.Sections, domain.Section{ID: id, HTML: html})
	s.state.EditingID = id
	s.state.Draft = html
	return id
}

// InsertAfter places a new section right after id and returns its id. Unknown ids are
// a no-op.
func (s *Store) InsertAfter(id int, html string) (int, bool) {
	if s.state.Loading {
		return NoFocus, false
	}
	i := s.state.index(id)
	if i < 0 {
		return NoFocus, false
	}
	newID := s.state.allocateID()
	s.state.Sections = insertAt(s.state.Sections, i+1, domain.Section{ID: newID, HTML: html})
	return newID, true
}

// MoveUp swaps the section with its predecessor.
func (s *Store) MoveUp(id int) bool {
	if s.state.Loading {
		return false
	}
	i := s.state.index(id)
	if i <= 0 {
		return false
	}
	s.state.Sections[i-1], s.state.Sections[i] = s.state.Sections[i], s.state.Sections[i-1]
	return true
}

// MoveDown swaps the section with its successor.
func (s *Store) MoveDown(id int) bool {
	if s.state.Loading {
		return false
	}
	i := s.state.index(id)
	if i < 0 || i == len(s.state.Sections)-1 {
		return false
	}
	s.state.Sections[i+1], s.state.Sections[i] = s.state.Sections[i], s.state.Sections[i+1]
	return true
}

// Remove deletes the section. Callers must check CanRemove first; the dispatcher does.
func (s *Store) Remove(id int) bool {
	if s.state.Loading {
		return false
	}
	i := s.state.index(id)
	if i < 0 {
		return false
	}
	s.state.Sections = append(s.state.Sections[:i:i], s.state.Sections[i+1:]...)
	if s.state.EditingID == id {
		s.state.EditingID = NoFocus
		s.state.Draft = ""
	}
	return true
}

// Focus puts the section under edit and loads its html into the draft.
func (s *Store) Focus(id int) bool {
	if s.state.Loading {
		return false
	}
	i := s.state.index(id)
	if i < 0 {
		return false
	}
	s.state.EditingID = id
	s.state.Draft = s.state.Sections[i].HTML
	return true
}

// ClearFocus hides the editor surface.
func (s *Store) ClearFocus() {
	s.state.EditingID = NoFocus
	s.state.Draft = ""
}

// Dispatch applies a menu action through Reduce.
func (s *Store) Dispatch(action Action) error {
	if s.state.Loading {
		return ErrLoading
	}
	next, err := Reduce(s.state, action)
	if err != nil {
		return err
	}
	s.state = next
	return nil
}

// Sections returns a copy of the current list.
func (s *Store) Sections() []domain.Section { return domain.CloneSections(s.state.Sections) }

// EditingID returns the focused section id or NoFocus.
func (s *Store) EditingID() int { return s.state.EditingID }

// Draft returns the focused section's uncommitted content.
func (s *Store) Draft() string { return s.state.Draft }

// Loading reports whether the initial layout is still pending.
func (s *Store) Loading() bool { return s.state.Loading }

// CanRemove reports whether a delete would leave the list non-empty.
func (s *Store) CanRemove() bool { return len(s.state.Sections) > 1 }

// Snapshot returns a copy of the full state.
func (s *Store) Snapshot() State { return s.state.Clone() }

func insertAt(sections []domain.Section, at int, section domain.Section) []domain.Section {
	out := make([]domain.Section, 0, len(sections)+1)
	out = append(out, sections[:at]...)
	out = append(out, section)
	return append(out, sections[at:]...)
}
