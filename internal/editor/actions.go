package editor

import (
	"fmt"

	domain "github.com/mailcomposer/api/internal/domain"
)

// ActionKind names a section menu action.
type ActionKind string

const (
	ActionDelete   ActionKind = "delete"
	ActionMoveUp   ActionKind = "moveUp"
	ActionMoveDown ActionKind = "moveDown"
	ActionAddBelow ActionKind = "addBelow"
)

// Action targets one section with a menu action.
type Action struct {
	Kind ActionKind
	ID   int
}

// Reduce applies action to state and returns the next state. The input state is never
// mutated. Boundary moves return an unchanged copy without error.
func Reduce(state State, action Action) (State, error) {
	next := state.Clone()
	i := next.index(action.ID)

	switch action.Kind {
	case ActionDelete:
		if i < 0 {
			return state, fmt.Errorf("%w: %d", ErrSectionNotFound, action.ID)
		}
		if len(next.Sections) <= 1 {
			return state, ErrLastSection
		}
		next.Sections = append(next.Sections[:i], next.Sections[i+1:]...)
		next.EditingID = NoFocus
		next.Draft = ""
	case ActionMoveUp:
		if i < 0 {
			return state, fmt.Errorf("%w: %d", ErrSectionNotFound, action.ID)
		}
		if i > 0 {
			next.Sections[i-1], next.Sections[i] = next.Sections[i], next.Sections[i-1]
		}
	case ActionMoveDown:
		if i < 0 {
			return state, fmt.Errorf("%w: %d", ErrSectionNotFound, action.ID)
		}
		if i < len(next.Sections)-1 {
			next.Sections[i+1], next.Sections[i] = next.Sections[i], next.Sections[i+1]
		}
	case ActionAddBelow:
		if i < 0 {
			return state, fmt.Errorf("%w: %d", ErrSectionNotFound, action.ID)
		}
		id := next.allocateID()
		next.Sections = insertAt(next.Sections, i+1, domain.Section{ID: id})
		next.EditingID = id
		next.Draft = ""
	default:
		return state, fmt.Errorf("%w: %q", ErrUnknownAction, action.Kind)
	}
	return next, nil
}
