package editor

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
)

const imageAccept = "image/*"

// Notification messages.
const (
	MessageUploading     = "Uploading file... Please wait"
	MessageUploaded      = "Image uploaded successfully"
	MessageUploadFailed  = "Error uploading image"
	MessagePickFailed    = "Error selecting file"
	MessageLoadFailed    = "Error loading template"
	MessageSaved         = "Email template saved successfully"
	MessageSaveFailed    = "Error saving template"
	MessageRenderFailed  = "Error rendering template"
	MessageDownloadReady = "Template downloaded"
)

// File is a picked local file.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// FilePicker opens the native file dialog. Return ErrPickCancelled when the user
// dismisses it.
type FilePicker interface {
	PickImage(ctx context.Context, accept string) (File, error)
}

// Notifier is the user-visible toast channel.
type Notifier interface {
	Info(message string)
	Success(message string)
	Error(message string)
}

// Uploader sends one image to the gateway and returns its public URL.
type Uploader interface {
	UploadImage(ctx context.Context, name, contentType string, body io.Reader) (string, error)
}

// ImageInserter receives the uploaded image URL.
type ImageInserter interface {
	InsertImage(url string) int
}

// UploadFlow runs pick, notify, upload and insert in order.
type UploadFlow struct {
	picker   FilePicker
	uploader Uploader
	inserter ImageInserter
	notifier Notifier
	logger   *zap.Logger
}

// NewUploadFlow wires the flow. A nil notifier or logger discards output.
func NewUploadFlow(picker FilePicker, uploader Uploader, inserter ImageInserter, notifier Notifier, logger *zap.Logger) *UploadFlow {
	if notifier == nil {
		notifier = discardNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadFlow{
		picker:   picker,
		uploader: uploader,
		inserter: inserter,
		notifier: notifier,
		logger:   logger,
	}
}

// Run executes one upload. Cancelling the picker ends the flow silently. On failure
// the editor content is left unchanged.
func (f *UploadFlow) Run(ctx context.Context) error {
	if f.picker == nil || f.uploader == nil || f.inserter == nil {
		return errors.New("editor: upload flow is not configured")
	}
	file, err := f.picker.PickImage(ctx, imageAccept)
	if err != nil {
		if errors.Is(err, ErrPickCancelled) || errors.Is(err, context.Canceled) {
			return nil
		}
		f.logger.Error("pick image failed", zap.Error(err))
		f.notifier.Error(MessagePickFailed)
		return fmt.Errorf("editor: pick image: %w", err)
	}
	if closer, ok := file.Body.(io.Closer); ok {
		defer closer.Close()
	}
	if file.Body == nil {
		f.notifier.Error(MessageUploadFailed)
		return errors.New("editor: picked file has no content")
	}

	f.notifier.Info(MessageUploading)
	url, err := f.uploader.UploadImage(ctx, file.Name, file.ContentType, file.Body)
	if err != nil {
		f.logger.Error("upload image failed",
			zap.String("file", file.Name),
			zap.Int64("size", file.Size),
			zap.Error(err),
		)
		f.notifier.Error(MessageUploadFailed)
		return fmt.Errorf("editor: upload image: %w", err)
	}

	id := f.inserter.InsertImage(url)
	f.logger.Debug("image inserted", zap.String("url", url), zap.Int("section", id))
	f.notifier.Success(MessageUploaded)
	return nil
}

type discardNotifier struct{}

func (discardNotifier) Info(string)    {}
func (discardNotifier) Success(string) {}
func (discardNotifier) Error(string)   {}
