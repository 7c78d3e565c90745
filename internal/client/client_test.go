package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	domain "github.com/mailcomposer/api/internal/domain"
	"github.com/mailcomposer/api/internal/handlers"
	pstorage "github.com/mailcomposer/api/internal/platform/storage"
	"github.com/mailcomposer/api/internal/render"
	"github.com/mailcomposer/api/internal/repositories"
	"github.com/mailcomposer/api/internal/services"
)

type bufferStore struct {
	objects map[string][]byte
}

func (s *bufferStore) Put(_ context.Context, in pstorage.PutInput) (pstorage.Object, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return pstorage.Object{}, err
	}
	s.objects[in.Key] = data
	return pstorage.Object{Key: in.Key, URL: "https://cdn.test/" + in.Key, ContentType: in.ContentType, Size: int64(len(data))}, nil
}

func (s *bufferStore) Ping(context.Context) error { return nil }

func newGateway(t *testing.T) (*httptest.Server, *bufferStore) {
	t.Helper()
	renderer, err := render.New()
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	templates, err := services.NewTemplateService(services.TemplateServiceDeps{
		Repository: repositories.NewMemoryTemplateRepository(),
		Renderer:   renderer,
		TempDir:    t.TempDir(),
	})
	if err != nil {
		t.Fatalf("NewTemplateService: %v", err)
	}
	store := &bufferStore{objects: map[string][]byte{}}
	images, err := services.NewImageService(services.ImageServiceDeps{Store: store, Prefix: "img"})
	if err != nil {
		t.Fatalf("NewImageService: %v", err)
	}
	router := handlers.NewRouter(handlers.WithGatewayRoutes(handlers.NewTemplateHandlers(templates, images).Routes))
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, store
}

func TestClientAgainstGateway(t *testing.T) {
	srv, store := newGateway(t)
	c, err := New(srv.URL, WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	layout, err := c.GetEmailLayout(ctx)
	if err != nil {
		t.Fatalf("GetEmailLayout: %v", err)
	}
	if len(layout) != len(domain.SeedSections()) {
		t.Fatalf("expected seed layout, got %d sections", len(layout))
	}

	saved := []domain.Section{{ID: 3, HTML: "<p>c</p>"}, {ID: 1, HTML: "<p>a</p>"}}
	msg, err := c.UploadEmailConfig(ctx, saved)
	if err != nil {
		t.Fatalf("UploadEmailConfig: %v", err)
	}
	if msg != "Email template saved successfully" {
		t.Fatalf("unexpected message %q", msg)
	}
	layout, err = c.GetEmailLayout(ctx)
	if err != nil {
		t.Fatalf("GetEmailLayout: %v", err)
	}
	if len(layout) != 2 || layout[0] != saved[0] || layout[1] != saved[1] {
		t.Fatalf("round trip mismatch: %+v", layout)
	}

	url, err := c.UploadImage(ctx, "pixel.png", "image/png", bytes.NewReader([]byte("\x89PNG\r\n\x1a\n")))
	if err != nil {
		t.Fatalf("UploadImage: %v", err)
	}
	if !strings.HasPrefix(url, "https://cdn.test/img/") || !strings.HasSuffix(url, "_pixel.png") {
		t.Fatalf("unexpected url %q", url)
	}
	if len(store.objects) != 1 {
		t.Fatalf("expected one stored object, got %d", len(store.objects))
	}

	var out bytes.Buffer
	if err := c.RenderAndDownloadTemplate(ctx, domain.JoinSectionHTML(layout), &out); err != nil {
		t.Fatalf("RenderAndDownloadTemplate: %v", err)
	}
	if !strings.Contains(out.String(), "<p>c</p><br/><p>a</p>") {
		t.Fatalf("rendered document missing content: %s", out.String())
	}
}

func TestClientAPIErrors(t *testing.T) {
	srv, _ := newGateway(t)
	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = c.UploadEmailConfig(context.Background(), []domain.Section{{ID: 1}, {ID: 1}})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 APIError, got %v", err)
	}

	_, err = c.UploadImage(context.Background(), "notes.txt", "text/plain", strings.NewReader("hello"))
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 APIError for text upload, got %v", err)
	}
}

func TestClientErrorMessageParsing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/base/renderAndDownloadTemplate":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "Config is required"})
		default:
			w.WriteHeader(http.StatusBadGateway)
			_, _ = io.WriteString(w, "upstream down")
		}
	}))
	defer srv.Close()

	c, err := New(srv.URL + "/base")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	err = c.RenderAndDownloadTemplate(context.Background(), "", io.Discard)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "Config is required" {
		t.Fatalf("expected parsed message, got %v", err)
	}

	_, err = c.GetEmailLayout(context.Background())
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadGateway || apiErr.Message != "upstream down" {
		t.Fatalf("expected raw body message, got %v", err)
	}
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	if _, err := New("ftp://example.com"); err == nil {
		t.Fatal("expected error for unsupported scheme")
	}
}

func TestUploadImageFileNameEscaping(t *testing.T) {
	var received string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		received = header.Filename
		_ = json.NewEncoder(w).Encode(map[string]string{"imageUrl": "https://cdn.test/x.png"})
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	name := "summer \"sale\"\tbanner\\v2.png"
	if _, err := c.UploadImage(context.Background(), name, "image/png", strings.NewReader("png")); err != nil {
		t.Fatalf("UploadImage: %v", err)
	}
	if received != name {
		t.Fatalf("expected filename %q, got %q", name, received)
	}
}
