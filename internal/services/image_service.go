package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	domain "github.com/mailcomposer/api/internal/domain"
	pstorage "github.com/mailcomposer/api/internal/platform/storage"
)

const (
	defaultMaxImageSize    = int64(10 * 1024 * 1024) // 10 MiB
	imageEventRejected     = "image.upload.rejected"
	imageEventStored       = "image.upload.stored"
	imageEventStoreFailure = "image.upload.store_failed"
)

var defaultAllowedImageTypes = []string{"image/*"}

// ImageServiceDeps wires dependencies for the image service.
type ImageServiceDeps struct {
	Store        pstorage.BlobStore
	Prefix       string
	MaxBytes     int64
	AllowedTypes []string
	Clock        func() time.Time
	Logger       func(ctx context.Context, event string, fields map[string]any)
}

type imageService struct {
	store        pstorage.BlobStore
	prefix       string
	maxBytes     int64
	allowedTypes []string
	clock        func() time.Time
	logger       func(context.Context, string, map[string]any)
}

var _ ImageService = (*imageService)(nil)

// NewImageService constructs the image service.
func NewImageService(deps ImageServiceDeps) (ImageService, error) {
	if deps.Store == nil {
		return nil, errors.New("image service: blob store is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	maxBytes := deps.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxImageSize
	}
	allowed := deps.AllowedTypes
	if len(allowed) == 0 {
		allowed = defaultAllowedImageTypes
	}
	return &imageService{
		store:        deps.Store,
		prefix:       strings.Trim(strings.TrimSpace(deps.Prefix), "/"),
		maxBytes:     maxBytes,
		allowedTypes: append([]string(nil), allowed...),
		clock:        clock,
		logger:       logger,
	}, nil
}

// Upload validates the file and writes it under <prefix>/<millis>_<name>.
func (s *imageService) Upload(ctx context.Context, cmd ImageUploadCommand) (domain.UploadedImage, error) {
	if cmd.Body == nil || strings.TrimSpace(cmd.FileName) == "" {
		return domain.UploadedImage{}, ErrImageMissing
	}
	if cmd.Size > s.maxBytes {
		s.reject(ctx, cmd, "too_large")
		return domain.UploadedImage{}, fmt.Errorf("%w: %d bytes exceeds %d", ErrImageTooLarge, cmd.Size, s.maxBytes)
	}
	contentType := strings.TrimSpace(cmd.ContentType)
	if !pstorage.ContentTypeAllowed(contentType, s.allowedTypes) {
		s.reject(ctx, cmd, "content_type")
		return domain.UploadedImage{}, fmt.Errorf("%w: %q", ErrImageTypeNotAllowed, contentType)
	}

	key, err := pstorage.BuildImageKey(s.prefix, cmd.FileName, s.clock())
	if err != nil {
		s.reject(ctx, cmd, "file_name")
		return domain.UploadedImage{}, fmt.Errorf("%w: %v", ErrImageMissing, err)
	}

	// Guard against a client that under-reports Size.
	body := &limitedReader{r: io.LimitReader(cmd.Body, s.maxBytes+1), limit: s.maxBytes}
	obj, err := s.store.Put(ctx, pstorage.PutInput{
		Key:         key,
		ContentType: contentType,
		Size:        cmd.Size,
		Body:        body,
	})
	if body.exceeded {
		s.reject(ctx, cmd, "too_large")
		return domain.UploadedImage{}, fmt.Errorf("%w: stream exceeds %d bytes", ErrImageTooLarge, s.maxBytes)
	}
	if err != nil {
		s.logger(ctx, imageEventStoreFailure, map[string]any{"key": key, "error": err.Error()})
		return domain.UploadedImage{}, fmt.Errorf("%w: %v", ErrImageStore, err)
	}

	s.logger(ctx, imageEventStored, map[string]any{"key": obj.Key, "size": obj.Size, "contentType": obj.ContentType})
	return domain.UploadedImage{
		Key:         obj.Key,
		URL:         obj.URL,
		ContentType: obj.ContentType,
		Size:        obj.Size,
	}, nil
}

func (s *imageService) reject(ctx context.Context, cmd ImageUploadCommand, reason string) {
	s.logger(ctx, imageEventRejected, map[string]any{
		"reason":      reason,
		"contentType": cmd.ContentType,
		"size":        cmd.Size,
	})
}

type limitedReader struct {
	r        io.Reader
	limit    int64
	read     int64
	exceeded bool
}

func (l *limitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.read += int64(n)
	if l.read > l.limit {
		l.exceeded = true
		return n, errors.New("image: upload exceeds size limit")
	}
	return n, err
}
