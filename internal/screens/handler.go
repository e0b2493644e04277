package screens

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fleetops/fleetops/internal/platform/httpx"
	"github.com/fleetops/fleetops/internal/rbac"
	"github.com/fleetops/fleetops/internal/view"
)

// Descriptor is what a rendered screen tells the front end.
type Descriptor struct {
	Key         rbac.MenuKey     `json:"key"`
	Path        string           `json:"path"`
	Title       string           `json:"title"`
	Requirement rbac.Requirement `json:"requirement"`
	Actions     Actions          `json:"actions"`
}

// Handler serves the catalog screens behind the route guard.
type Handler struct {
	logger    *slog.Logger
	templates *view.Engine
	evaluator *rbac.Evaluator
	guard     *rbac.Guard
	menu      *rbac.MenuFilter
	screens   []Screen
}

// NewHandler builds a Handler for screens. A nil slice serves Catalog().
func NewHandler(logger *slog.Logger, templates *view.Engine, evaluator *rbac.Evaluator, guard *rbac.Guard, menu *rbac.MenuFilter, screens []Screen) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if screens == nil {
		screens = Catalog()
	}
	return &Handler{
		logger:    logger,
		templates: templates,
		evaluator: evaluator,
		guard:     guard,
		menu:      menu,
		screens:   screens,
	}
}

// MountRoutes registers one guarded GET route per screen.
func (h *Handler) MountRoutes(r chi.Router) {
	for _, s := range h.screens {
		r.With(h.guard.Protect(s.Requirement)).Get(s.Path, h.render(s))
	}
}

func (h *Handler) render(s Screen) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// The guard only lets requests with a principal through.
		p, _ := rbac.PrincipalFromContext(r.Context())
		desc := Descriptor{
			Key:         s.Key,
			Path:        s.Path,
			Title:       s.Title,
			Requirement: s.Requirement,
			Actions:     ActionsFor(h.evaluator, p, s),
		}
		if httpx.WantsJSON(r) || h.templates == nil {
			httpx.JSON(w, http.StatusOK, desc)
			return
		}
		var menu []rbac.MenuItem
		if h.menu != nil {
			menu = h.menu.Visible(p)
		}
		data := view.TemplateData{
			Title:       s.Title,
			CurrentPath: s.Path,
			Principal:   &p,
			Menu:        menu,
			Data:        desc,
		}
		if err := h.templates.Render(w, "pages/screen.html", data); err != nil {
			h.logger.Error("render screen", slog.String("screen", string(s.Key)), slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
}
