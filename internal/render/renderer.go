// Package render merges editor output into the email layout.
package render

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

//go:embed layout.html
var defaultLayout string

const (
	defaultTitle       = "Email Template"
	tempFilePattern    = "rendered-*.html"
	layoutTemplateName = "layout"
)

var (
	quillClassPattern  = regexp.MustCompile(`^(ql-[a-z0-9-]+)(\s+ql-[a-z0-9-]+)*$`)
	listKindPattern    = regexp.MustCompile(`^(bullet|ordered|checked|unchecked)$`)
	targetBlankPattern = regexp.MustCompile(`^_blank$`)
	colorPattern       = regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|rgba?\(\s*[0-9.]+%?\s*(,\s*[0-9.]+%?\s*){2,3}\)|[a-zA-Z]+)$`)
)

// Renderer sanitises submitted HTML and executes the layout around it.
// Safe for concurrent use once constructed.
type Renderer struct {
	layout *template.Template
	policy *bluemonday.Policy
	title  string
}

// Option customises a Renderer.
type Option func(*options)

type options struct {
	layoutFile string
	title      string
	policy     *bluemonday.Policy
}

// WithLayoutFile replaces the embedded layout with a template read from disk.
func WithLayoutFile(path string) Option {
	return func(o *options) {
		o.layoutFile = strings.TrimSpace(path)
	}
}

// WithTitle sets the document title.
func WithTitle(title string) Option {
	return func(o *options) {
		if t := strings.TrimSpace(title); t != "" {
			o.title = t
		}
	}
}

// WithPolicy overrides the sanitising policy.
func WithPolicy(policy *bluemonday.Policy) Option {
	return func(o *options) {
		if policy != nil {
			o.policy = policy
		}
	}
}

// New parses the layout once.
func New(opts ...Option) (*Renderer, error) {
	cfg := options{title: defaultTitle}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	source := defaultLayout
	if cfg.layoutFile != "" {
		data, err := os.ReadFile(cfg.layoutFile)
		if err != nil {
			return nil, fmt.Errorf("render: read layout: %w", err)
		}
		source = string(data)
	}
	tmpl, err := template.New(layoutTemplateName).Option("missingkey=zero").Parse(source)
	if err != nil {
		return nil, fmt.Errorf("render: parse layout: %w", err)
	}

	policy := cfg.policy
	if policy == nil {
		policy = Policy()
	}
	return &Renderer{layout: tmpl, policy: policy, title: cfg.title}, nil
}

// Policy returns the sanitising policy for editor output: user generated content rules plus
// the formatting classes and inline styles the rich-text widget emits.
func Policy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(quillClassPattern).Globally()
	policy.AllowStyles("color", "background-color").Matching(colorPattern).Globally()
	policy.AllowStyles("text-align").MatchingEnum("left", "right", "center", "justify").Globally()
	policy.AllowAttrs("data-list").Matching(listKindPattern).OnElements("li")
	policy.AllowAttrs("target").Matching(targetBlankPattern).OnElements("a")
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	policy.RequireNoFollowOnLinks(false)
	return policy
}

// Sanitize strips everything the policy does not allow.
func (r *Renderer) Sanitize(html string) string {
	return r.policy.Sanitize(html)
}

type layoutData struct {
	Title   string
	Content template.HTML
}

// Render writes the complete document for html to w.
func (r *Renderer) Render(ctx context.Context, w io.Writer, html string) error {
	if r == nil || r.layout == nil {
		return errors.New("render: renderer is not initialised")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	data := layoutData{
		Title:   r.title,
		Content: template.HTML(r.Sanitize(html)),
	}
	if err := r.layout.Execute(&buf, data); err != nil {
		return fmt.Errorf("render: execute layout: %w", err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("render: write output: %w", err)
	}
	return nil
}

// RenderToTempFile renders into a uniquely named file under dir (os.TempDir when empty).
// The returned cleanup removes the file and is safe to call more than once. On error
// nothing is left on disk.
func (r *Renderer) RenderToTempFile(ctx context.Context, dir, html string) (string, func(), error) {
	file, err := os.CreateTemp(strings.TrimSpace(dir), tempFilePattern)
	if err != nil {
		return "", func() {}, fmt.Errorf("render: create temp file: %w", err)
	}
	path := file.Name()
	cleanup := func() { _ = os.Remove(path) }

	if err := r.Render(ctx, file, html); err != nil {
		_ = file.Close()
		cleanup()
		return "", func() {}, err
	}
	if err := file.Close(); err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("render: close temp file: %w", err)
	}
	return path, cleanup, nil
}
