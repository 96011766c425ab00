package engine

import (
	"errors"
	"fmt"
)

// ErrNoRoutes means the route source returned an empty table.
var ErrNoRoutes = errors.New("engine: route table is empty")

// ConfigError reports a route entry that cannot be served.
type ConfigError struct {
	Path     string
	Platform string
	Err      error
}

func (e *ConfigError) Error() string {
	if e.Platform == "" {
		return fmt.Sprintf("engine: route %q: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("engine: route %q platform %q: %v", e.Path, e.Platform, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

var (
	errEmptyPath       = errors.New("path is required")
	errUnknownPlatform = errors.New("unknown platform")
	errDefaultNotURL   = errors.New("default target must be a URL")
)
