package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	pstorage "github.com/mailcomposer/api/internal/platform/storage"
)

type stubBlobStore struct {
	input pstorage.PutInput
	body  string
	err   error
	calls int
}

func (s *stubBlobStore) Put(_ context.Context, in pstorage.PutInput) (pstorage.Object, error) {
	s.calls++
	s.input = in
	data, readErr := io.ReadAll(in.Body)
	s.body = string(data)
	if readErr != nil {
		return pstorage.Object{}, readErr
	}
	if s.err != nil {
		return pstorage.Object{}, s.err
	}
	return pstorage.Object{
		Key:         in.Key,
		URL:         "https://storage.googleapis.com/bucket/" + in.Key,
		ContentType: in.ContentType,
		Size:        int64(len(data)),
	}, nil
}

func (s *stubBlobStore) Ping(context.Context) error { return nil }

func newTestImageService(t *testing.T, store *stubBlobStore, maxBytes int64) ImageService {
	t.Helper()
	svc, err := NewImageService(ImageServiceDeps{
		Store:    store,
		Prefix:   "rapidquestimages",
		MaxBytes: maxBytes,
		Clock:    func() time.Time { return time.UnixMilli(1737299085303) },
	})
	if err != nil {
		t.Fatalf("NewImageService: %v", err)
	}
	return svc
}

func TestImageService_UploadSuccess(t *testing.T) {
	store := &stubBlobStore{}
	svc := newTestImageService(t, store, 1024)

	img, err := svc.Upload(context.Background(), ImageUploadCommand{
		FileName:    "hacker.jpg",
		ContentType: "image/jpeg",
		Size:        4,
		Body:        strings.NewReader("jpeg"),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if img.Key != "rapidquestimages/1737299085303_hacker.jpg" {
		t.Fatalf("unexpected key %s", img.Key)
	}
	if img.URL != "https://storage.googleapis.com/bucket/rapidquestimages/1737299085303_hacker.jpg" {
		t.Fatalf("unexpected url %s", img.URL)
	}
	if store.input.ContentType != "image/jpeg" || store.body != "jpeg" {
		t.Fatalf("unexpected store input %+v body=%q", store.input, store.body)
	}
}

func TestImageService_UploadMissingFile(t *testing.T) {
	svc := newTestImageService(t, &stubBlobStore{}, 1024)
	if _, err := svc.Upload(context.Background(), ImageUploadCommand{}); !errors.Is(err, ErrImageMissing) {
		t.Fatalf("expected ErrImageMissing, got %v", err)
	}
}

func TestImageService_UploadRejectsType(t *testing.T) {
	store := &stubBlobStore{}
	svc := newTestImageService(t, store, 1024)
	_, err := svc.Upload(context.Background(), ImageUploadCommand{
		FileName:    "doc.pdf",
		ContentType: "application/pdf",
		Size:        3,
		Body:        strings.NewReader("pdf"),
	})
	if !errors.Is(err, ErrImageTypeNotAllowed) {
		t.Fatalf("expected ErrImageTypeNotAllowed, got %v", err)
	}
	if store.calls != 0 {
		t.Fatalf("store should not be called")
	}
}

func TestImageService_UploadRejectsDeclaredSize(t *testing.T) {
	svc := newTestImageService(t, &stubBlobStore{}, 4)
	_, err := svc.Upload(context.Background(), ImageUploadCommand{
		FileName:    "big.png",
		ContentType: "image/png",
		Size:        5,
		Body:        strings.NewReader("12345"),
	})
	if !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("expected ErrImageTooLarge, got %v", err)
	}
}

func TestImageService_UploadRejectsUnderReportedSize(t *testing.T) {
	svc := newTestImageService(t, &stubBlobStore{}, 4)
	_, err := svc.Upload(context.Background(), ImageUploadCommand{
		FileName:    "big.png",
		ContentType: "image/png",
		Size:        1,
		Body:        strings.NewReader("123456789"),
	})
	if !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("expected ErrImageTooLarge, got %v", err)
	}
}

func TestImageService_UploadStoreFailure(t *testing.T) {
	svc := newTestImageService(t, &stubBlobStore{err: errors.New("403")}, 1024)
	_, err := svc.Upload(context.Background(), ImageUploadCommand{
		FileName:    "a.png",
		ContentType: "image/png",
		Size:        1,
		Body:        strings.NewReader("a"),
	})
	if !errors.Is(err, ErrImageStore) {
		t.Fatalf("expected ErrImageStore, got %v", err)
	}
}
