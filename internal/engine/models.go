package engine

import "github.com/Abdulelahsg/dynamic-links/internal/platform"

// Target is either a plain redirect URL or a deep link rendered as an
// interstitial page. App is nil for plain URLs.
type Target struct {
	URL string
	App *DeepLink
}

// DeepLink describes a native app to open, with a web fallback.
type DeepLink struct {
	AppName    string
	AppPath    string
	AppPackage string
	Fallback   string
}

// IsDeepLink reports whether t renders as an interstitial. An object without
// an app name never does; it resolves as a non-match.
func (t Target) IsDeepLink() bool { return t.App != nil && t.App.AppName != "" }

// TargetMap maps a platform tag (or "default") to its target.
type TargetMap map[platform.Tag]Target

// Default returns the map's default URL, if it has a plain one.
func (m TargetMap) Default() (string, bool) {
	t, ok := m[platform.Default]
	if !ok || t.App != nil || t.URL == "" {
		return "", false
	}
	return t.URL, true
}

// RouteConfig binds a request path to its targets.
type RouteConfig struct {
	Path    string
	Targets TargetMap
}

type ActionKind int

const (
	ActionEmpty ActionKind = iota
	ActionRedirect
	ActionDeepLink
)

func (k ActionKind) String() string {
	switch k {
	case ActionRedirect:
		return "redirect"
	case ActionDeepLink:
		return "deeplink"
	default:
		return "empty"
	}
}

// Reasons explain which branch produced an Action.
const (
	ReasonNoRoute         = "no_route"
	ReasonNoTargets       = "no_targets"
	ReasonDefaultTag      = "default_tag"
	ReasonPlatform        = "platform"
	ReasonDefaultFallback = "default_fallback"
	ReasonNoMatch         = "no_match"
)

// Action is the outcome of resolving one request.
type Action struct {
	Kind     ActionKind
	URL      string   // ActionRedirect
	DeepLink DeepLink // ActionDeepLink, Fallback already resolved

	Platform platform.Tag // tag that matched, empty when none did
	Reason   string
}

type MatchRequest struct {
	Path      string
	UserAgent string
}
