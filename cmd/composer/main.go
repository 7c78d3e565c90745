// Command composer is an operator CLI for the composer gateway.
//
//	composer [-addr URL] [-v] layout
//	composer [-addr URL] save -in FILE
//	composer [-addr URL] upload -file PATH
//	composer [-addr URL] render [-out FILE]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/mailcomposer/api/internal/client"
	domain "github.com/mailcomposer/api/internal/domain"
	"github.com/mailcomposer/api/internal/editor"
)

const defaultAddr = "http://localhost:5000"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "composer: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	global := flag.NewFlagSet("composer", flag.ContinueOnError)
	global.SetOutput(stderr)
	addr := global.String("addr", envOr("COMPOSER_ADDR", defaultAddr), "gateway base URL")
	verbose := global.Bool("v", false, "log failures to stderr")
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return errors.New("missing command: layout, save, upload or render")
	}

	logger := zap.NewNop()
	if *verbose {
		dev, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		logger = dev
		defer func() { _ = logger.Sync() }()
	}

	c, err := client.New(*addr, client.WithUserAgent("composer-cli"))
	if err != nil {
		return err
	}

	cmd, rest := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "layout":
		return runLayout(ctx, c, stdout)
	case "save":
		return runSave(ctx, c, rest, stdout, stderr)
	case "upload":
		return runUpload(ctx, c, rest, stdout, stderr)
	case "render":
		return runRender(ctx, c, rest, stdout, stderr, logger)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runLayout(ctx context.Context, c *client.Client, stdout io.Writer) error {
	sections, err := c.GetEmailLayout(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(sections)
}

func runSave(ctx context.Context, c *client.Client, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("save", flag.ContinueOnError)
	fs.SetOutput(stderr)
	in := fs.String("in", "", "section list JSON file, - for stdin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return errors.New("save: -in is required")
	}

	var r io.Reader = os.Stdin
	if *in != "-" {
		f, err := os.Open(*in)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	var sections []domain.Section
	if err := json.NewDecoder(r).Decode(&sections); err != nil {
		return fmt.Errorf("save: decode %s: %w", *in, err)
	}

	store := editor.NewStore()
	if err := store.Load(sections); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	msg, err := c.UploadEmailConfig(ctx, store.Sections())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, msg)
	return err
}

func runUpload(ctx context.Context, c *client.Client, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("file", "", "image to upload")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return errors.New("upload: -file is required")
	}
	f, err := os.Open(*path)
	if err != nil {
		return err
	}
	defer f.Close()

	name := filepath.Base(*path)
	url, err := c.UploadImage(ctx, name, mime.TypeByExtension(filepath.Ext(name)), f)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, url)
	return err
}

func runRender(ctx context.Context, c *client.Client, args []string, stdout, stderr io.Writer, logger *zap.Logger) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(stderr)
	out := fs.String("out", "rendered-template.html", "output file, - for stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	session, err := editor.NewSession(c, editor.WithLogger(logger), editor.WithNotifier(stderrNotifier{w: stderr}))
	if err != nil {
		return err
	}
	defer session.Close()
	if err := session.Load(ctx); err != nil {
		return err
	}

	if *out == "-" {
		return session.Download(ctx, stdout)
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	if err := session.Download(ctx, f); err != nil {
		_ = f.Close()
		_ = os.Remove(*out)
		return err
	}
	return f.Close()
}

type stderrNotifier struct {
	w io.Writer
}

func (n stderrNotifier) Info(msg string)    { fmt.Fprintln(n.w, msg) }
func (n stderrNotifier) Success(msg string) { fmt.Fprintln(n.w, msg) }
func (n stderrNotifier) Error(msg string)   { fmt.Fprintln(n.w, "error:", msg) }

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
