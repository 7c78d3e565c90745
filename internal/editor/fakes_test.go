package editor

import (
	"context"
	"io"
	"slices"
	"testing"

	domain "github.com/mailcomposer/api/internal/domain"
)

type fakeWidget struct {
	value   string
	formats []string
	err     error
}

func (w *fakeWidget) SetValue(html string) { w.value = html }

func (w *fakeWidget) Format(action string) error {
	w.formats = append(w.formats, action)
	return w.err
}

type note struct {
	level   string
	message string
}

type recordingNotifier struct {
	notes []note
}

func (n *recordingNotifier) Info(msg string)    { n.notes = append(n.notes, note{"info", msg}) }
func (n *recordingNotifier) Success(msg string) { n.notes = append(n.notes, note{"success", msg}) }
func (n *recordingNotifier) Error(msg string)   { n.notes = append(n.notes, note{"error", msg}) }

func (n *recordingNotifier) expect(t *testing.T, want ...note) {
	t.Helper()
	if !slices.Equal(n.notes, want) {
		t.Fatalf("expected notes %+v, got %+v", want, n.notes)
	}
}

type fakePicker struct {
	file File
	err  error
}

func (p *fakePicker) PickImage(context.Context, string) (File, error) {
	return p.file, p.err
}

type fakeGateway struct {
	layout    []domain.Section
	layoutErr error

	saved   []domain.Section
	saveMsg string
	saveErr error

	uploadURL  string
	uploadErr  error
	uploadName string
	uploadBody string

	renderedHTML string
	renderBody   string
	renderErr    error
}

func (g *fakeGateway) GetEmailLayout(context.Context) ([]domain.Section, error) {
	return domain.CloneSections(g.layout), g.layoutErr
}

func (g *fakeGateway) UploadEmailConfig(_ context.Context, sections []domain.Section) (string, error) {
	if g.saveErr != nil {
		return "", g.saveErr
	}
	g.saved = domain.CloneSections(sections)
	return g.saveMsg, nil
}

func (g *fakeGateway) UploadImage(_ context.Context, name, _ string, body io.Reader) (string, error) {
	g.uploadName = name
	data, _ := io.ReadAll(body)
	g.uploadBody = string(data)
	if g.uploadErr != nil {
		return "", g.uploadErr
	}
	return g.uploadURL, nil
}

func (g *fakeGateway) RenderAndDownloadTemplate(_ context.Context, html string, w io.Writer) error {
	g.renderedHTML = html
	if g.renderErr != nil {
		return g.renderErr
	}
	_, err := io.WriteString(w, g.renderBody)
	return err
}
