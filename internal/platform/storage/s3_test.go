package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	s3aws "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type fakeS3Client struct {
	putInput *s3aws.PutObjectInput
	body     string
	putErr   error
	headErr  error
}

func (f *fakeS3Client) PutObject(_ context.Context, params *s3aws.PutObjectInput, _ ...func(*s3aws.Options)) (*s3aws.PutObjectOutput, error) {
	f.putInput = params
	if params.Body != nil {
		data, _ := io.ReadAll(params.Body)
		f.body = string(data)
	}
	if f.putErr != nil {
		return nil, f.putErr
	}
	return &s3aws.PutObjectOutput{}, nil
}

func (f *fakeS3Client) HeadBucket(_ context.Context, _ *s3aws.HeadBucketInput, _ ...func(*s3aws.Options)) (*s3aws.HeadBucketOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	return &s3aws.HeadBucketOutput{}, nil
}

func TestS3StorePut(t *testing.T) {
	client := &fakeS3Client{}
	store, err := NewS3Store(context.Background(), S3Config{
		Bucket:     "templates",
		Region:     "eu-west-1",
		PublicRead: true,
	}, WithS3Client(client))
	if err != nil {
		t.Fatalf("NewS3Store: %v", err)
	}

	obj, err := store.Put(context.Background(), PutInput{
		Key:         "images/1_a.png",
		ContentType: "image/png",
		Size:        4,
		Body:        strings.NewReader("data"),
	})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if obj.URL != "https://templates.s3.eu-west-1.amazonaws.com/images/1_a.png" {
		t.Fatalf("unexpected url %s", obj.URL)
	}
	if client.putInput.ACL != types.ObjectCannedACLPublicRead {
		t.Fatalf("expected public-read acl, got %q", client.putInput.ACL)
	}
	if *client.putInput.ContentType != "image/png" {
		t.Fatalf("unexpected content type %s", *client.putInput.ContentType)
	}
	if client.body != "data" {
		t.Fatalf("unexpected body %q", client.body)
	}
}

func TestS3StorePutPropagatesErrors(t *testing.T) {
	client := &fakeS3Client{putErr: errors.New("boom")}
	store, err := NewS3Store(context.Background(), S3Config{Bucket: "b", Region: "r"}, WithS3Client(client))
	if err != nil {
		t.Fatalf("NewS3Store: %v", err)
	}
	_, err = store.Put(context.Background(), PutInput{Key: "k", Body: strings.NewReader("x")})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if client.putInput.ACL != "" {
		t.Fatalf("expected no acl when public read disabled")
	}
}

func TestS3StoreRejectsInvalidInput(t *testing.T) {
	store, _ := NewS3Store(context.Background(), S3Config{Bucket: "b", Region: "r"}, WithS3Client(&fakeS3Client{}))
	if _, err := store.Put(context.Background(), PutInput{Key: "", Body: strings.NewReader("x")}); err == nil {
		t.Fatal("expected error for empty key")
	}
	if _, err := store.Put(context.Background(), PutInput{Key: "a/../b", Body: strings.NewReader("x")}); err == nil {
		t.Fatal("expected error for traversal key")
	}
	if _, err := store.Put(context.Background(), PutInput{Key: "k"}); err == nil {
		t.Fatal("expected error for nil body")
	}
}

func TestS3StoreAcceptsDotsInsideFileName(t *testing.T) {
	client := &fakeS3Client{}
	store, err := NewS3Store(context.Background(), S3Config{Bucket: "b", Region: "r"}, WithS3Client(client))
	if err != nil {
		t.Fatalf("NewS3Store: %v", err)
	}
	key, err := BuildImageKey("rapidquestimages", "holiday..beach.png", time.UnixMilli(1737299085303))
	if err != nil {
		t.Fatalf("BuildImageKey: %v", err)
	}
	for _, k := range []string{key, "images/photo...jpg", "images/..hidden.png"} {
		if _, err := store.Put(context.Background(), PutInput{Key: k, Body: strings.NewReader("x")}); err != nil {
			t.Fatalf("Put(%q): %v", k, err)
		}
		if *client.putInput.Key != k {
			t.Fatalf("expected key %s, got %s", k, *client.putInput.Key)
		}
	}
	for _, k := range []string{"..", "../b", "a/..", "a/../b"} {
		if _, err := store.Put(context.Background(), PutInput{Key: k, Body: strings.NewReader("x")}); err == nil {
			t.Fatalf("Put(%q): expected traversal error", k)
		}
	}
}

func TestNewS3StoreValidatesConfig(t *testing.T) {
	if _, err := NewS3Store(context.Background(), S3Config{Region: "r"}, WithS3Client(&fakeS3Client{})); err == nil {
		t.Fatal("expected missing bucket error")
	}
	if _, err := NewS3Store(context.Background(), S3Config{Bucket: "b"}, WithS3Client(&fakeS3Client{})); err == nil {
		t.Fatal("expected missing region error")
	}
}

func TestS3StorePing(t *testing.T) {
	client := &fakeS3Client{headErr: errors.New("forbidden")}
	store, _ := NewS3Store(context.Background(), S3Config{Bucket: "b", Region: "r"}, WithS3Client(client))
	if err := store.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error")
	}
	client.headErr = nil
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestS3StoreURL(t *testing.T) {
	cases := []struct {
		cfg  S3Config
		want string
	}{
		{S3Config{Bucket: "b", Region: "us-east-1", BaseURL: "https://cdn.example.com/"}, "https://cdn.example.com/k.png"},
		{S3Config{Bucket: "b", Region: "us-east-1", Endpoint: "http://localhost:9000", ForcePathStyle: true}, "http://localhost:9000/b/k.png"},
		{S3Config{Bucket: "b", Region: "us-east-1", Endpoint: "https://minio.example.com"}, "https://b.minio.example.com/k.png"},
		{S3Config{Bucket: "b", Region: "us-east-1", ForcePathStyle: true}, "https://s3.us-east-1.amazonaws.com/b/k.png"},
	}
	for _, tc := range cases {
		store, err := NewS3Store(context.Background(), tc.cfg, WithS3Client(&fakeS3Client{}))
		if err != nil {
			t.Fatalf("NewS3Store: %v", err)
		}
		if got := store.URL("/k.png"); got != tc.want {
			t.Errorf("expected %s, got %s", tc.want, got)
		}
	}
}
