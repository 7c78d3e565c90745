package services

import "errors"

var (
	// ErrTemplateInvalid indicates the submitted section list is malformed.
	ErrTemplateInvalid = errors.New("template: invalid sections")
	// ErrTemplateRepository wraps persistence failures.
	ErrTemplateRepository = errors.New("template: repository failure")
	// ErrRenderConfigMissing indicates the render request carried no config.
	ErrRenderConfigMissing = errors.New("template: render config missing")
	// ErrRender wraps render and file I/O failures.
	ErrRender = errors.New("template: render failed")

	// ErrImageMissing indicates no file was supplied.
	ErrImageMissing = errors.New("image: no file uploaded")
	// ErrImageTooLarge indicates the file exceeds the configured limit.
	ErrImageTooLarge = errors.New("image: file too large")
	// ErrImageTypeNotAllowed indicates the content type is not accepted.
	ErrImageTypeNotAllowed = errors.New("image: content type not allowed")
	// ErrImageStore wraps blob store failures.
	ErrImageStore = errors.New("image: store failure")
)
