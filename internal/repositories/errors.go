package repositories

import (
	"errors"
	"fmt"
)

// ErrTemplateNotFound is returned by Latest when no template has been saved.
var ErrTemplateNotFound = NewNotFoundError("template repository: no saved template", nil)

type storeError struct {
	msg         string
	err         error
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e *storeError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *storeError) Unwrap() error       { return e.err }
func (e *storeError) IsNotFound() bool    { return e.notFound }
func (e *storeError) IsConflict() bool    { return e.conflict }
func (e *storeError) IsUnavailable() bool { return e.unavailable }

// NewNotFoundError categorises err as a missing record.
func NewNotFoundError(msg string, err error) RepositoryError {
	return &storeError{msg: msg, err: err, notFound: true}
}

// NewConflictError categorises err as a write conflict.
func NewConflictError(msg string, err error) RepositoryError {
	return &storeError{msg: msg, err: err, conflict: true}
}

// NewUnavailableError categorises err as a transient backend outage.
func NewUnavailableError(msg string, err error) RepositoryError {
	return &storeError{msg: msg, err: err, unavailable: true}
}

// IsNotFound reports whether err carries the not-found category.
func IsNotFound(err error) bool {
	var repoErr RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

// IsUnavailable reports whether err carries the unavailable category.
func IsUnavailable(err error) bool {
	var repoErr RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsUnavailable()
}
