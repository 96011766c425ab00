package api

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/Abdulelahsg/dynamic-links/internal/engine"
	"github.com/Abdulelahsg/dynamic-links/internal/observability"
	"github.com/Abdulelahsg/dynamic-links/internal/static"
)

type LinkHandler struct {
	Eng       *engine.Engine
	Templates static.Provider
}

func NewLinkHandler(eng *engine.Engine, templates static.Provider) *LinkHandler {
	return &LinkHandler{Eng: eng, Templates: templates}
}

// Link resolves the request path and User-Agent into a redirect (302),
// a rendered interstitial (200) or an empty response (204).
func (h *LinkHandler) Link(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	a := h.Eng.Match(ctx, engine.MatchRequest{
		Path:      r.URL.Path,
		UserAgent: r.UserAgent(),
	})
	observability.Resolutions.WithLabelValues(a.Kind.String(), string(a.Platform)).Inc()

	switch a.Kind {
	case engine.ActionRedirect:
		w.Header().Set("Location", a.URL)
		w.WriteHeader(http.StatusFound)

	case engine.ActionDeepLink:
		tpl, err := h.Templates.Template(ctx)
		if err != nil {
			log.Error().Err(err).Str("path", r.URL.Path).Msg("deep link template")
			observability.RequestErrors.WithLabelValues("template").Inc()
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(engine.Render(tpl, a.DeepLink)))

	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
