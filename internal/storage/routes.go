package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// RouteRow is one raw route entry as stored: a path and its per-platform targets.
type RouteRow struct {
	Path    string               `json:"path" yaml:"path"`
	Targets map[string]TargetRow `json:"targets" yaml:"targets"`
}

// TargetRow is either a plain URL or a deep-link object.
// Exactly one of URL and Object is meaningful; IsObject tells which.
type TargetRow struct {
	URL      string
	Object   DeepLinkRow
	IsObject bool
}

type DeepLinkRow struct {
	AppName    string `json:"appName" yaml:"appName"`
	AppPath    string `json:"appPath" yaml:"appPath"`
	AppPackage string `json:"appPackage,omitempty" yaml:"appPackage,omitempty"`
	Fallback   string `json:"fallback,omitempty" yaml:"fallback,omitempty"`
}

var errBadTarget = errors.New("target must be a URL string or an object")

func (t *TargetRow) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return errBadTarget
	}
	if bytes.Equal(b, []byte("null")) {
		*t = TargetRow{} // empty URL; dropped with a warning when the snapshot is built
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = TargetRow{URL: s}
		return nil
	case '{':
		var o DeepLinkRow
		if err := json.Unmarshal(b, &o); err != nil {
			return err
		}
		*t = TargetRow{Object: o, IsObject: true}
		return nil
	default:
		return fmt.Errorf("%w, got %s", errBadTarget, b)
	}
}

func (t TargetRow) MarshalJSON() ([]byte, error) {
	if t.IsObject {
		return json.Marshal(t.Object)
	}
	return json.Marshal(t.URL)
}

func (t *TargetRow) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		var s string
		if err := n.Decode(&s); err != nil {
			return err
		}
		*t = TargetRow{URL: s}
		return nil
	case yaml.MappingNode:
		var o DeepLinkRow
		if err := n.Decode(&o); err != nil {
			return err
		}
		*t = TargetRow{Object: o, IsObject: true}
		return nil
	default:
		return fmt.Errorf("line %d: %w", n.Line, errBadTarget)
	}
}

// DecodeRoutes parses a route table document. JSON is used when format is
// "json", YAML otherwise.
func DecodeRoutes(data []byte, format string) ([]RouteRow, error) {
	var rows []RouteRow
	if format == "json" {
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("decode routes json: %w", err)
		}
		return rows, nil
	}
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode routes yaml: %w", err)
	}
	return rows, nil
}
