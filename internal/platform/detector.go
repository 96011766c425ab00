package platform

import "regexp"

// Tag is a platform class a user agent can belong to. Tags are not mutually
// exclusive: an Android phone is both Android and Mobile.
type Tag string

const (
	Android Tag = "android"
	IOS     Tag = "ios"
	Mobile  Tag = "mobile"
	Desktop Tag = "desktop"
	Default Tag = "default"
)

// All lists every tag in detection order.
var All = []Tag{Android, IOS, Mobile, Desktop, Default}

var (
	androidRe = regexp.MustCompile(`(?i)android`)
	iosRe     = regexp.MustCompile(`(?i)iphone|ipad|ipod`)
	mobileRe  = regexp.MustCompile(`(?i)android|webos|iphone|ipad|ipod|blackberry|iemobile|opera mini`)
	desktopRe = regexp.MustCompile(`(?i)windows|macintosh|linux`)
)

type detector struct {
	tag   Tag
	match func(ua string) bool
}

// Order matters: resolution picks the first tag with a configured target, so
// specific platforms come before the broader mobile/desktop classes.
var detectors = []detector{
	{Android, androidRe.MatchString},
	{IOS, iosRe.MatchString},
	{Mobile, mobileRe.MatchString},
	{Desktop, func(ua string) bool { return !mobileRe.MatchString(ua) && desktopRe.MatchString(ua) }},
}

// Detector classifies user agents into ordered platform tags.
type Detector struct {
	// IncludeDefault appends Default to every result, so a "default" target is
	// reached through the normal scan instead of the post-scan fallback.
	IncludeDefault bool
}

func NewDetector(includeDefault bool) Detector {
	return Detector{IncludeDefault: includeDefault}
}

// Detect returns the matching tags in detection order. It never fails; an empty
// or unrecognised user agent yields no tags (or only Default).
func (d Detector) Detect(userAgent string) []Tag {
	out := make([]Tag, 0, len(detectors)+1)
	for _, det := range detectors {
		if det.match(userAgent) {
			out = append(out, det.tag)
		}
	}
	if d.IncludeDefault {
		out = append(out, Default)
	}
	return out
}

// Valid reports whether s names a known tag.
func Valid(s string) bool {
	for _, t := range All {
		if string(t) == s {
			return true
		}
	}
	return false
}
