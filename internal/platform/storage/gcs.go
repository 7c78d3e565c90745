package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
	htransport "google.golang.org/api/transport/http"
)

const (
	defaultGCSBaseURL = "https://storage.googleapis.com"
	aclPublicRead     = "publicRead"
)

// GCSConfig configures a Cloud Storage backed store.
type GCSConfig struct {
	Bucket     string
	BaseURL    string
	PublicRead bool
}

// GCSStore writes objects to a Cloud Storage bucket.
type GCSStore struct {
	bucket     *gcs.BucketHandle
	name       string
	baseURL    string
	publicRead bool
}

var _ BlobStore = (*GCSStore)(nil)

// NewGCSStore wraps an existing bucket handle.
func NewGCSStore(bucket *gcs.BucketHandle, cfg GCSConfig) (*GCSStore, error) {
	if bucket == nil {
		return nil, errors.New("storage: bucket handle is required")
	}
	name := strings.TrimSpace(cfg.Bucket)
	if name == "" {
		name = bucket.BucketName()
	}
	if name == "" {
		return nil, errInvalidBucket
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultGCSBaseURL
	}
	return &GCSStore{
		bucket:     bucket,
		name:       name,
		baseURL:    base,
		publicRead: cfg.PublicRead,
	}, nil
}

// FirebaseBucketConfig carries the parameters used to bootstrap a Firebase app.
type FirebaseBucketConfig struct {
	ProjectID       string
	Bucket          string
	CredentialsFile string
}

// FirebaseBucket is a bucket handle resolved through the Firebase Admin SDK together with
// the HTTP client it was opened on.
type FirebaseBucket struct {
	Handle *gcs.BucketHandle
	hc     *http.Client
}

// Close releases the pooled connections of the bucket's HTTP client. The Firebase storage
// client has no Close of its own, so the transport is owned here.
func (b *FirebaseBucket) Close() error {
	if b == nil || b.hc == nil {
		return nil
	}
	b.hc.CloseIdleConnections()
	b.hc = nil
	return nil
}

// NewFirebaseBucket resolves the bucket handle through the Firebase Admin SDK, matching the
// service account flow used by Firebase hosted projects. Callers must Close the result.
func NewFirebaseBucket(ctx context.Context, cfg FirebaseBucketConfig, opts ...option.ClientOption) (*FirebaseBucket, error) {
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errInvalidBucket
	}
	opts = append([]option.ClientOption{option.WithScopes(gcs.ScopeFullControl)}, opts...)
	if path := strings.TrimSpace(cfg.CredentialsFile); path != "" {
		opts = append(opts, option.WithCredentialsFile(path))
	}
	hc, _, err := htransport.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: init http client: %w", err)
	}
	fb := &FirebaseBucket{hc: hc}

	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:     strings.TrimSpace(cfg.ProjectID),
		StorageBucket: bucket,
	}, option.WithHTTPClient(hc))
	if err != nil {
		_ = fb.Close()
		return nil, fmt.Errorf("storage: init firebase app: %w", err)
	}
	client, err := app.Storage(ctx)
	if err != nil {
		_ = fb.Close()
		return nil, fmt.Errorf("storage: init firebase storage: %w", err)
	}
	handle, err := client.Bucket(bucket)
	if err != nil {
		_ = fb.Close()
		return nil, fmt.Errorf("storage: open bucket %q: %w", bucket, err)
	}
	fb.Handle = handle
	return fb, nil
}

// Put streams the body into the bucket and applies the public-read ACL when configured.
func (s *GCSStore) Put(ctx context.Context, in PutInput) (Object, error) {
	if s == nil || s.bucket == nil {
		return Object{}, errors.New("storage: gcs store is not initialised")
	}
	in, err := validatePut(in)
	if err != nil {
		return Object{}, err
	}

	writer := s.bucket.Object(in.Key).NewWriter(ctx)
	writer.ContentType = in.ContentType
	if s.publicRead {
		writer.PredefinedACL = aclPublicRead
	}

	written, err := io.Copy(writer, in.Body)
	if err != nil {
		_ = writer.Close()
		return Object{}, fmt.Errorf("storage: write object %q: %w", in.Key, err)
	}
	if err := writer.Close(); err != nil {
		return Object{}, fmt.Errorf("storage: finalize object %q: %w", in.Key, err)
	}

	return Object{
		Key:         in.Key,
		URL:         s.URL(in.Key),
		ContentType: in.ContentType,
		Size:        written,
	}, nil
}

// Ping checks that the bucket is reachable with the configured credentials.
func (s *GCSStore) Ping(ctx context.Context) error {
	if s == nil || s.bucket == nil {
		return errors.New("storage: gcs store is not initialised")
	}
	if _, err := s.bucket.Attrs(ctx); err != nil {
		return fmt.Errorf("storage: bucket %q unavailable: %w", s.name, err)
	}
	return nil
}

// URL returns the public URL: <base>/<bucket>/<key>.
func (s *GCSStore) URL(key string) string {
	return joinURL(s.baseURL, s.name, key)
}
