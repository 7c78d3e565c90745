package editor

import (
	"context"
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"

	domain "github.com/mailcomposer/api/internal/domain"
)

// Gateway is the subset of the backend the session talks to.
type Gateway interface {
	Uploader
	GetEmailLayout(ctx context.Context) ([]domain.Section, error)
	UploadEmailConfig(ctx context.Context, sections []domain.Section) (string, error)
	RenderAndDownloadTemplate(ctx context.Context, html string, w io.Writer) error
}

// Session owns one editing session: the store, adapter, focus resolver and upload flow.
type Session struct {
	gateway  Gateway
	store    *Store
	adapter  *Adapter
	resolver *FocusResolver
	uploads  *UploadFlow
	notifier Notifier
	logger   *zap.Logger
	widget   Widget
	picker   FilePicker
}

// SessionOption customises a Session.
type SessionOption func(*Session)

// WithNotifier routes user-visible messages to n.
func WithNotifier(n Notifier) SessionOption {
	return func(s *Session) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithLogger sets the logger for failure paths.
func WithLogger(logger *zap.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithWidget attaches the rich-text widget.
func WithWidget(w Widget) SessionOption {
	return func(s *Session) {
		s.widget = w
	}
}

// WithFilePicker enables the image toolbar action.
func WithFilePicker(p FilePicker) SessionOption {
	return func(s *Session) {
		s.picker = p
	}
}

// NewSession builds a session in the loading state.
func NewSession(gateway Gateway, opts ...SessionOption) (*Session, error) {
	if gateway == nil {
		return nil, errors.New("editor: gateway is required")
	}
	s := &Session{
		gateway:  gateway,
		store:    NewStore(),
		notifier: discardNotifier{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.adapter = NewAdapter(s.store, s.widget)
	s.resolver = NewFocusResolver(s.store)
	s.uploads = NewUploadFlow(s.picker, gateway, s.adapter, s.notifier, s.logger)
	if s.picker != nil {
		s.adapter.HandleImage(s.uploads.Run)
	}
	return s, nil
}

// Store exposes the section state.
func (s *Session) Store() *Store { return s.store }

// Adapter exposes the rich-text adapter.
func (s *Session) Adapter() *Adapter { return s.adapter }

// Resolver exposes the outside-click focus resolver.
func (s *Session) Resolver() *FocusResolver { return s.resolver }

// Load fetches the layout and leaves the loading state. On failure the store keeps
// loading and the error is surfaced through the notifier.
func (s *Session) Load(ctx context.Context) error {
	sections, err := s.gateway.GetEmailLayout(ctx)
	if err == nil {
		err = s.store.Load(sections)
	}
	if err != nil {
		s.logger.Error("load layout failed", zap.Error(err))
		s.notifier.Error(MessageLoadFailed)
		return err
	}
	s.logger.Debug("layout loaded", zap.Int("sections", len(sections)))
	return nil
}

// Focus puts a section under edit and shows it in the widget.
func (s *Session) Focus(id int) bool {
	if !s.store.Focus(id) {
		return false
	}
	s.adapter.Show()
	return true
}

// Dispatch applies a section menu action.
func (s *Session) Dispatch(kind ActionKind, id int) error {
	if err := s.store.Dispatch(Action{Kind: kind, ID: id}); err != nil {
		return err
	}
	if kind == ActionAddBelow {
		s.adapter.Show()
	}
	return nil
}

// Save sends the current list to the gateway.
func (s *Session) Save(ctx context.Context) error {
	if s.store.Loading() {
		return ErrLoading
	}
	sections := s.store.Sections()
	message, err := s.gateway.UploadEmailConfig(ctx, sections)
	if err != nil {
		s.logger.Error("save template failed", zap.Int("sections", len(sections)), zap.Error(err))
		s.notifier.Error(MessageSaveFailed)
		return err
	}
	if strings.TrimSpace(message) == "" {
		message = MessageSaved
	}
	s.notifier.Success(message)
	return nil
}

// Download renders the joined section html and writes the document to w.
func (s *Session) Download(ctx context.Context, w io.Writer) error {
	if s.store.Loading() {
		return ErrLoading
	}
	html := domain.JoinSectionHTML(s.store.Sections())
	if err := s.gateway.RenderAndDownloadTemplate(ctx, html, w); err != nil {
		s.logger.Error("render template failed", zap.Error(err))
		s.notifier.Error(MessageRenderFailed)
		return err
	}
	s.notifier.Success(MessageDownloadReady)
	return nil
}

// Close detaches the focus resolver.
func (s *Session) Close() {
	s.resolver.Close()
}
