package engine

import "github.com/Abdulelahsg/dynamic-links/internal/platform"

// Resolve picks the target for the first tag that has one, in tag order.
//
// A matching "default" tag always redirects to the default URL. A deep-link
// object without an app name is skipped like a missing entry. When no tag
// matches, the default URL is used if present, otherwise the result is empty.
//
// Resolve is pure: it reads targets and tags and returns a fresh Action.
func Resolve(targets TargetMap, tags []platform.Tag) Action {
	if len(targets) == 0 {
		return Action{Kind: ActionEmpty, Reason: ReasonNoTargets}
	}

	def, hasDefault := targets.Default()
	for _, tag := range tags {
		t, ok := targets[tag]
		if !ok {
			continue
		}

		if tag == platform.Default {
			if !hasDefault {
				continue
			}
			return Action{Kind: ActionRedirect, URL: def, Platform: tag, Reason: ReasonDefaultTag}
		}

		switch {
		case t.App == nil && t.URL != "":
			return Action{Kind: ActionRedirect, URL: t.URL, Platform: tag, Reason: ReasonPlatform}
		case t.IsDeepLink():
			dl := *t.App
			if dl.Fallback == "" {
				dl.Fallback = def
			}
			return Action{Kind: ActionDeepLink, DeepLink: dl, Platform: tag, Reason: ReasonPlatform}
		}
	}

	if hasDefault {
		return Action{Kind: ActionRedirect, URL: def, Platform: platform.Default, Reason: ReasonDefaultFallback}
	}
	return Action{Kind: ActionEmpty, Reason: ReasonNoMatch}
}
