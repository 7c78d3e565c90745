package storage

import (
	"context"
	"errors"
	"io"
	"slices"
	"strings"
)

var (
	errInvalidBucket = errors.New("storage: bucket name is required")
	errInvalidObject = errors.New("storage: object name is required")
	errNilBody       = errors.New("storage: object body is required")
)

// PutInput describes an object written to a blob store.
type PutInput struct {
	Key         string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Object is the stored result, addressable by URL.
type Object struct {
	Key         string
	URL         string
	ContentType string
	Size        int64
}

// BlobStore persists uploaded objects and exposes their public URLs.
type BlobStore interface {
	Put(ctx context.Context, in PutInput) (Object, error)
	Ping(ctx context.Context) error
}

func validatePut(in PutInput) (PutInput, error) {
	in.Key = strings.TrimPrefix(strings.TrimSpace(in.Key), "/")
	if in.Key == "" {
		return in, errInvalidObject
	}
	if slices.Contains(strings.Split(in.Key, "/"), "..") {
		return in, errors.New("storage: object name contains invalid traversal sequence")
	}
	if in.Body == nil {
		return in, errNilBody
	}
	if strings.TrimSpace(in.ContentType) == "" {
		in.ContentType = "application/octet-stream"
	}
	return in, nil
}

func joinURL(base string, parts ...string) string {
	out := strings.TrimSuffix(base, "/")
	for _, part := range parts {
		part = strings.Trim(part, "/")
		if part == "" {
			continue
		}
		out += "/" + part
	}
	return out
}
