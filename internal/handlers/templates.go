package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/mailcomposer/api/internal/domain"
	"github.com/mailcomposer/api/internal/platform/requestctx"
	"github.com/mailcomposer/api/internal/services"
)

const (
	defaultConfigBodyLimit  = 2 * 1024 * 1024
	defaultUploadLimit      = 10 * 1024 * 1024
	multipartOverhead       = 1 * 1024 * 1024
	multipartMemory         = 8 * 1024 * 1024
	uploadFormField         = "file"
	defaultUploadRate       = 30
	defaultUploadRateWindow = time.Minute
	sniffLength             = 512
)

const (
	msgTemplateSaved     = "Email template saved successfully"
	msgTemplateSaveError = "Error saving template"
	msgTemplateInvalid   = "Invalid template payload"
	msgTemplateTooLarge  = "Template payload too large"
	msgLayoutError       = "Error loading template"
	msgNoFile            = "No file uploaded"
	msgUploadError       = "Error uploading image"
	msgFileTooLarge      = "File too large"
	msgTypeNotAllowed    = "File type not allowed"
	msgRateLimited       = "Too many uploads, try again later"
	msgConfigRequired    = "Config is required"
	msgRenderError       = "Error rendering template"
)

var (
	errEmptyBody    = errors.New("request body is empty")
	errBodyTooLarge = errors.New("request body too large")
)

// TemplateHandlers serves the editor endpoints: layout, save, image upload and render.
type TemplateHandlers struct {
	templates      services.TemplateService
	images         services.ImageService
	limiter        rateLimiter
	configLimit    int64
	uploadLimit    int64
	uploadRate     int
	uploadWindow   time.Duration
	clock          func() time.Time
	limiterFactory func(limit int, window time.Duration, clock func() time.Time) rateLimiter
}

// TemplateHandlerOption customises TemplateHandlers.
type TemplateHandlerOption func(*TemplateHandlers)

// WithUploadRateLimit caps uploads per client within window. A non-positive limit disables throttling.
func WithUploadRateLimit(limit int, window time.Duration) TemplateHandlerOption {
	return func(h *TemplateHandlers) {
		h.uploadRate = limit
		h.uploadWindow = window
	}
}

// WithUploadLimit sets the maximum accepted file size in bytes.
func WithUploadLimit(limit int64) TemplateHandlerOption {
	return func(h *TemplateHandlers) {
		if limit > 0 {
			h.uploadLimit = limit
		}
	}
}

// WithConfigBodyLimit sets the maximum JSON body size for save and render.
func WithConfigBodyLimit(limit int64) TemplateHandlerOption {
	return func(h *TemplateHandlers) {
		if limit > 0 {
			h.configLimit = limit
		}
	}
}

// WithTemplateClock injects the clock used by the upload limiter.
func WithTemplateClock(clock func() time.Time) TemplateHandlerOption {
	return func(h *TemplateHandlers) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// NewTemplateHandlers constructs the gateway handlers.
func NewTemplateHandlers(templates services.TemplateService, images services.ImageService, opts ...TemplateHandlerOption) *TemplateHandlers {
	h := &TemplateHandlers{
		templates:      templates,
		images:         images,
		configLimit:    defaultConfigBodyLimit,
		uploadLimit:    defaultUploadLimit,
		uploadRate:     defaultUploadRate,
		uploadWindow:   defaultUploadRateWindow,
		clock:          time.Now,
		limiterFactory: newSimpleRateLimiter,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	h.limiter = h.limiterFactory(h.uploadRate, h.uploadWindow, h.clock)
	return h
}

// Routes registers the gateway endpoints.
func (h *TemplateHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/getEmailLayout", h.getEmailLayout)
	r.Post("/uploadEmailConfig", h.uploadEmailConfig)
	r.Post("/uploadImage", h.uploadImage)
	r.Post("/renderAndDownloadTemplate", h.renderAndDownloadTemplate)
}

type messageResponse struct {
	Message string `json:"message"`
}

type saveResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type uploadResponse struct {
	ImageURL string `json:"imageUrl"`
}

type renderRequest struct {
	Config *services.RenderConfig `json:"config"`
}

func (h *TemplateHandlers) getEmailLayout(w http.ResponseWriter, r *http.Request) {
	if h.templates == nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, messageResponse{Message: msgLayoutError})
		return
	}
	sections, err := h.templates.Layout(r.Context())
	if err != nil {
		writeJSONResponse(w, http.StatusInternalServerError, messageResponse{Message: msgLayoutError})
		return
	}
	if sections == nil {
		sections = []domain.Section{}
	}
	writeJSONResponse(w, http.StatusOK, sections)
}

func (h *TemplateHandlers) uploadEmailConfig(w http.ResponseWriter, r *http.Request) {
	if h.templates == nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, saveResponse{Message: msgTemplateSaveError})
		return
	}
	body, err := readLimitedBody(r, h.configLimit)
	switch {
	case errors.Is(err, errBodyTooLarge):
		writeJSONResponse(w, http.StatusRequestEntityTooLarge, saveResponse{Message: msgTemplateTooLarge})
		return
	case err != nil:
		writeJSONResponse(w, http.StatusBadRequest, saveResponse{Message: msgTemplateInvalid})
		return
	}

	sections, err := parseSections(body)
	if err != nil {
		writeJSONResponse(w, http.StatusBadRequest, saveResponse{Message: msgTemplateInvalid})
		return
	}

	if _, err := h.templates.Save(r.Context(), sections); err != nil {
		if errors.Is(err, services.ErrTemplateInvalid) {
			writeJSONResponse(w, http.StatusBadRequest, saveResponse{Message: msgTemplateInvalid})
			return
		}
		writeJSONResponse(w, http.StatusInternalServerError, saveResponse{Message: msgTemplateSaveError})
		return
	}
	writeJSONResponse(w, http.StatusOK, saveResponse{Success: true, Message: msgTemplateSaved})
}

// parseSections accepts a bare section array or one wrapped as {"data": [...]}.
func parseSections(body []byte) ([]domain.Section, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errEmptyBody
	}
	if trimmed[0] == '{' {
		var wrapped struct {
			Data []domain.Section `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, err
		}
		if wrapped.Data == nil {
			return nil, errors.New("data is required")
		}
		return wrapped.Data, nil
	}
	var sections []domain.Section
	if err := json.Unmarshal(trimmed, &sections); err != nil {
		return nil, err
	}
	if sections == nil {
		return nil, errors.New("sections are required")
	}
	return sections, nil
}

func (h *TemplateHandlers) uploadImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.images == nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, messageResponse{Message: msgUploadError})
		return
	}

	clientKey := clientKeyFromRequest(r)
	if h.limiter != nil && !h.limiter.Allow(clientKey) {
		w.Header().Set("Retry-After", strconv.Itoa(int(h.uploadWindow.Seconds())))
		writeJSONResponse(w, http.StatusTooManyRequests, messageResponse{Message: msgRateLimited})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.uploadLimit+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSONResponse(w, http.StatusRequestEntityTooLarge, messageResponse{Message: msgFileTooLarge})
			return
		}
		writeJSONResponse(w, http.StatusBadRequest, messageResponse{Message: msgNoFile})
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		writeJSONResponse(w, http.StatusBadRequest, messageResponse{Message: msgNoFile})
		return
	}
	defer file.Close()

	contentType := strings.TrimSpace(header.Header.Get("Content-Type"))
	var body io.Reader = file
	if contentType == "" || contentType == "application/octet-stream" {
		head := make([]byte, sniffLength)
		n, readErr := io.ReadFull(file, head)
		if readErr != nil && !errors.Is(readErr, io.ErrUnexpectedEOF) && !errors.Is(readErr, io.EOF) {
			writeJSONResponse(w, http.StatusInternalServerError, messageResponse{Message: msgUploadError})
			return
		}
		head = head[:n]
		contentType = http.DetectContentType(head)
		body = io.MultiReader(bytes.NewReader(head), file)
	}

	uploaded, err := h.images.Upload(ctx, services.ImageUploadCommand{
		FileName:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Body:        body,
		ClientKey:   clientKey,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrImageMissing):
			writeJSONResponse(w, http.StatusBadRequest, messageResponse{Message: msgNoFile})
		case errors.Is(err, services.ErrImageTypeNotAllowed):
			writeJSONResponse(w, http.StatusBadRequest, messageResponse{Message: msgTypeNotAllowed})
		case errors.Is(err, services.ErrImageTooLarge):
			writeJSONResponse(w, http.StatusRequestEntityTooLarge, messageResponse{Message: msgFileTooLarge})
		default:
			writeJSONResponse(w, http.StatusInternalServerError, messageResponse{Message: msgUploadError})
		}
		return
	}
	writeJSONResponse(w, http.StatusOK, uploadResponse{ImageURL: uploaded.URL})
}

func (h *TemplateHandlers) renderAndDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	if h.templates == nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, messageResponse{Message: msgRenderError})
		return
	}
	body, err := readLimitedBody(r, h.configLimit)
	if errors.Is(err, errBodyTooLarge) {
		writeJSONResponse(w, http.StatusRequestEntityTooLarge, messageResponse{Message: msgTemplateTooLarge})
		return
	}
	var req renderRequest
	if err != nil || json.Unmarshal(body, &req) != nil || req.Config == nil {
		writeJSONResponse(w, http.StatusBadRequest, messageResponse{Message: msgConfigRequired})
		return
	}

	rendered, err := h.templates.Render(r.Context(), services.RenderCommand{Config: req.Config})
	if err != nil {
		if errors.Is(err, services.ErrRenderConfigMissing) {
			writeJSONResponse(w, http.StatusBadRequest, messageResponse{Message: msgConfigRequired})
			return
		}
		writeJSONResponse(w, http.StatusInternalServerError, messageResponse{Message: msgRenderError})
		return
	}
	if rendered.Cleanup != nil {
		defer rendered.Cleanup()
	}

	f, err := os.Open(rendered.Path)
	if err != nil {
		writeJSONResponse(w, http.StatusInternalServerError, messageResponse{Message: msgRenderError})
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeJSONResponse(w, http.StatusInternalServerError, messageResponse{Message: msgRenderError})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": rendered.Name}))
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, f)
}

func clientKeyFromRequest(r *http.Request) string {
	if key := requestctx.ClientKey(r.Context()); key != "" {
		return key
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

func readLimitedBody(r *http.Request, limit int64) ([]byte, error) {
	if r == nil || r.Body == nil {
		return nil, errEmptyBody
	}
	if limit <= 0 {
		limit = defaultConfigBodyLimit
	}
	reader := io.LimitReader(r.Body, limit+1)
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errEmptyBody
	}
	if int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
