// Package editor holds the client-side state of the template composer: the ordered
// section list, the focused section and its draft, the menu action reducer, the
// rich-text adapter, outside-click focus handling and the image upload flow.
//
// The rich-text widget, file picker, pointer events and toast surface are interfaces,
// so a browser build, a terminal front end or a test can drive the same state machine.
// Nothing in this package is safe for concurrent use; drive it from one goroutine.
package editor
