package editor

import "errors"

var (
	// ErrLastSection rejects deleting the only remaining section.
	ErrLastSection = errors.New("editor: cannot delete the last section")
	// ErrSectionNotFound indicates an action targeted an unknown section id.
	ErrSectionNotFound = errors.New("editor: section not found")
	// ErrUnknownAction indicates an unsupported action kind.
	ErrUnknownAction = errors.New("editor: unknown action")
	// ErrLoading rejects interaction before the initial layout has loaded.
	ErrLoading = errors.New("editor: layout is still loading")
	// ErrPickCancelled is returned by a FilePicker when the user dismisses the dialog.
	ErrPickCancelled = errors.New("editor: file selection cancelled")
)
