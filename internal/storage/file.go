package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore loads the route table from a YAML or JSON file on every call.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (s *FileStore) LoadRoutes(_ context.Context) ([]RouteRow, error) {
	buf, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read routes file %s: %w", s.Path, err)
	}
	rows, err := DecodeRoutes(buf, formatOf(s.Path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	return rows, nil
}

func formatOf(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return "json"
	}
	return "yaml"
}

// InlineStore serves a route table carried directly in configuration,
// usually through APP_ROUTES_INLINE.
type InlineStore struct {
	Raw string
}

func NewInlineStore(raw string) *InlineStore {
	return &InlineStore{Raw: raw}
}

func (s *InlineStore) LoadRoutes(_ context.Context) ([]RouteRow, error) {
	raw := strings.TrimSpace(s.Raw)
	format := "yaml"
	if strings.HasPrefix(raw, "[") {
		format = "json"
	}
	return DecodeRoutes([]byte(raw), format)
}
