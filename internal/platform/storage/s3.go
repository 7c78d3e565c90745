package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	s3aws "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Client is the subset of the S3 API used by S3Store.
type S3Client interface {
	PutObject(ctx context.Context, params *s3aws.PutObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3aws.HeadBucketInput, optFns ...func(*s3aws.Options)) (*s3aws.HeadBucketOutput, error)
}

// S3Config contains configuration for S3 and S3-compatible services.
type S3Config struct {
	Bucket         string
	Region         string
	AccessKeyID    string
	SecretKey      string
	Endpoint       string
	BaseURL        string
	ForcePathStyle bool
	PublicRead     bool
}

// S3Option customises S3Store construction.
type S3Option func(*s3Options)

type s3Options struct {
	client S3Client
}

// WithS3Client injects a pre-built client (used in tests).
func WithS3Client(client S3Client) S3Option {
	return func(o *s3Options) {
		o.client = client
	}
}

// S3Store writes objects to an S3 bucket.
type S3Store struct {
	client S3Client
	cfg    S3Config
}

var _ BlobStore = (*S3Store)(nil)

// NewS3Store builds the store, loading AWS configuration from the environment unless a
// client is injected. Static credentials take precedence when both key parts are set.
func NewS3Store(ctx context.Context, cfg S3Config, opts ...S3Option) (*S3Store, error) {
	cfg.Bucket = strings.TrimSpace(cfg.Bucket)
	cfg.Region = strings.TrimSpace(cfg.Region)
	if cfg.Bucket == "" {
		return nil, errInvalidBucket
	}
	if cfg.Region == "" {
		return nil, errors.New("storage: s3 region is required")
	}

	options := &s3Options{}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	client := options.client
	if client == nil {
		loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			loadOpts = append(loadOpts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
			))
		}
		awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("storage: load aws config: %w", err)
		}
		client = s3aws.NewFromConfig(awsCfg, func(o *s3aws.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			o.UsePathStyle = cfg.ForcePathStyle
		})
	}

	return &S3Store{client: client, cfg: cfg}, nil
}

// Put uploads the object with its content type and optional public-read ACL.
func (s *S3Store) Put(ctx context.Context, in PutInput) (Object, error) {
	if s == nil || s.client == nil {
		return Object{}, errors.New("storage: s3 store is not initialised")
	}
	in, err := validatePut(in)
	if err != nil {
		return Object{}, err
	}

	input := &s3aws.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(in.Key),
		Body:        in.Body,
		ContentType: aws.String(in.ContentType),
	}
	if in.Size > 0 {
		input.ContentLength = aws.Int64(in.Size)
	}
	if s.cfg.PublicRead {
		input.ACL = types.ObjectCannedACLPublicRead
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return Object{}, fmt.Errorf("storage: put object %q: %w", in.Key, err)
	}

	return Object{
		Key:         in.Key,
		URL:         s.URL(in.Key),
		ContentType: in.ContentType,
		Size:        in.Size,
	}, nil
}

// Ping issues HeadBucket against the configured bucket.
func (s *S3Store) Ping(ctx context.Context) error {
	if s == nil || s.client == nil {
		return errors.New("storage: s3 store is not initialised")
	}
	if _, err := s.client.HeadBucket(ctx, &s3aws.HeadBucketInput{Bucket: aws.String(s.cfg.Bucket)}); err != nil {
		return fmt.Errorf("storage: bucket %q unavailable: %w", s.cfg.Bucket, err)
	}
	return nil
}

// URL returns the public URL for key. A configured base URL wins; otherwise the
// endpoint or the regional AWS host is used in path or virtual-hosted style.
func (s *S3Store) URL(key string) string {
	key = strings.TrimPrefix(key, "/")
	if s.cfg.BaseURL != "" {
		return joinURL(s.cfg.BaseURL, key)
	}
	if s.cfg.Endpoint != "" {
		endpoint := strings.TrimSuffix(s.cfg.Endpoint, "/")
		scheme := "https://"
		if after, ok := strings.CutPrefix(endpoint, "http://"); ok {
			scheme = "http://"
			endpoint = after
		} else if after, ok := strings.CutPrefix(endpoint, "https://"); ok {
			endpoint = after
		}
		if s.cfg.ForcePathStyle {
			return fmt.Sprintf("%s%s/%s/%s", scheme, endpoint, s.cfg.Bucket, key)
		}
		return fmt.Sprintf("%s%s.%s/%s", scheme, s.cfg.Bucket, endpoint, key)
	}
	if s.cfg.ForcePathStyle {
		return fmt.Sprintf("https://s3.%s.amazonaws.com/%s/%s", s.cfg.Region, s.cfg.Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
}
