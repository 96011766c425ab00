package static

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
)

// ErrTemplateUnavailable means the interstitial template could not be read.
var ErrTemplateUnavailable = errors.New("static: deep link template unavailable")

//go:embed deeplink.html
var embeddedTemplate string

// Provider supplies the interstitial template for deep-link responses.
type Provider interface {
	Template(ctx context.Context) (string, error)
}

// Embedded serves the template compiled into the binary.
type Embedded struct{}

func (Embedded) Template(context.Context) (string, error) { return embeddedTemplate, nil }

// File reads the template from disk on every call, so edits apply without a
// restart.
type File struct {
	Path string
}

func (f File) Template(context.Context) (string, error) {
	buf, err := os.ReadFile(f.Path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTemplateUnavailable, err)
	}
	if len(buf) == 0 {
		return "", fmt.Errorf("%w: %s is empty", ErrTemplateUnavailable, f.Path)
	}
	return string(buf), nil
}

// New returns File for a non-empty path and Embedded otherwise.
func New(path string) Provider {
	if path == "" {
		return Embedded{}
	}
	return File{Path: path}
}
