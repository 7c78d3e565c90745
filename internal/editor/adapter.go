package editor

import (
	"context"
	"html"
)

// Toolbar action names understood by Trigger.
const (
	FormatBold       = "bold"
	FormatItalic     = "italic"
	FormatUnderline  = "underline"
	FormatStrike     = "strike"
	FormatSize       = "size"
	FormatColor      = "color"
	FormatBackground = "background"
	FormatList       = "list"
	FormatAlign      = "align"
	FormatLink       = "link"
	FormatImage      = "image"
	FormatClean      = "clean"
)

const uploadedImageAlt = "Uploaded Image"

// ToolbarControl is one toolbar button or picker. Options lists picker values; an
// empty list means the widget's defaults.
type ToolbarControl struct {
	Name    string
	Options []string
}

// ToolbarGroup is a visually grouped run of controls.
type ToolbarGroup []ToolbarControl

// DefaultToolbar is the composer's toolbar layout.
func DefaultToolbar() []ToolbarGroup {
	return []ToolbarGroup{
		{{Name: FormatBold}, {Name: FormatItalic}, {Name: FormatUnderline}, {Name: FormatStrike}},
		{{Name: FormatSize, Options: []string{"small", "normal", "large", "huge"}}},
		{{Name: FormatColor}, {Name: FormatBackground}},
		{{Name: FormatList, Options: []string{"ordered"}}, {Name: FormatList, Options: []string{"bullet"}}},
		{{Name: FormatAlign}},
		{{Name: FormatLink}, {Name: FormatImage}},
		{{Name: FormatClean}},
	}
}

// Widget is the rich-text surface the adapter drives.
type Widget interface {
	// SetValue replaces the widget content without firing a change event.
	SetValue(html string)
	// Format applies a widget-native toolbar action.
	Format(action string) error
}

// Adapter binds the rich-text widget to the store. Change events commit through
// PatchFocused; the image toolbar action runs the upload flow.
type Adapter struct {
	store   *Store
	widget  Widget
	toolbar []ToolbarGroup
	onImage func(ctx context.Context) error
}

// NewAdapter wires the widget to the store. widget may be nil for headless use.
func NewAdapter(store *Store, widget Widget) *Adapter {
	return &Adapter{store: store, widget: widget, toolbar: DefaultToolbar()}
}

// HandleImage sets the handler for the image toolbar action.
func (a *Adapter) HandleImage(fn func(ctx context.Context) error) {
	a.onImage = fn
}

// Value returns the content currently shown in the widget.
func (a *Adapter) Value() string { return a.store.Draft() }

// Toolbar returns the toolbar layout.
func (a *Adapter) Toolbar() []ToolbarGroup { return a.toolbar }

// OnChange commits widget content to the store.
func (a *Adapter) OnChange(value string) int {
	return a.store.PatchFocused(value)
}

// Show loads the focused section into the widget.
func (a *Adapter) Show() {
	if a.widget != nil {
		a.widget.SetValue(a.store.Draft())
	}
}

// Trigger runs a toolbar action.
func (a *Adapter) Trigger(ctx context.Context, action string) error {
	if action == FormatImage {
		if a.onImage == nil {
			return nil
		}
		return a.onImage(ctx)
	}
	if a.widget == nil {
		return nil
	}
	return a.widget.Format(action)
}

// InsertImage appends an image tag for url to the current value and commits it.
func (a *Adapter) InsertImage(url string) int {
	value := a.store.Draft() + `<img src="` + html.EscapeString(url) + `" alt="` + uploadedImageAlt + `" />`
	id := a.OnChange(value)
	if a.widget != nil {
		a.widget.SetValue(value)
	}
	return id
}
