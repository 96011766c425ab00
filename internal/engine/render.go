package engine

import "strings"

// Placeholders recognised in the interstitial template.
const (
	PlaceholderAppName    = "{{APP_NAME}}"
	PlaceholderAppPath    = "{{APP_PATH}}"
	PlaceholderAppPackage = "{{APP_PACKAGE}}"
	PlaceholderFallback   = "{{FALLBACK}}"
)

// Render substitutes every placeholder occurrence in tpl with the deep link's
// fields; missing optional fields become "". Values are inserted verbatim
// with no HTML or JS escaping, so the template and route config must come from
// trusted operators. Substitution is a single pass: a value containing a
// placeholder token is emitted as-is.
func Render(tpl string, dl DeepLink) string {
	return strings.NewReplacer(
		PlaceholderAppName, dl.AppName,
		PlaceholderAppPath, dl.AppPath,
		PlaceholderAppPackage, dl.AppPackage,
		PlaceholderFallback, dl.Fallback,
	).Replace(tpl)
}
