package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fleetops/fleetops/internal/auth"
	"github.com/fleetops/fleetops/internal/observability"
	"github.com/fleetops/fleetops/internal/platform/httpx"
	"github.com/fleetops/fleetops/internal/rbac"
	"github.com/fleetops/fleetops/internal/screens"
	"github.com/fleetops/fleetops/internal/view"
	"github.com/fleetops/fleetops/jobs"
	"github.com/fleetops/fleetops/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger        *slog.Logger
	Config        *Config
	Templates     *view.Engine
	Authenticator *auth.Authenticator
	AuthHandler   *auth.Handler
	Store         *rbac.Store
	Evaluator     *rbac.Evaluator
	Menu          *rbac.MenuFilter
	RolesHandler  *rbac.Handler
	ScreenHandler *screens.Handler
	JobHandler    *jobs.Handler
	Metrics       *observability.Metrics
}

// NewRouter constructs the chi.Router with FleetOps defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:        params.Logger,
		Config:        params.Config,
		Authenticator: params.Authenticator,
		Metrics:       params.Metrics,
	}) {
		r.Use(mw)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.RespondError(w, httpx.ErrNotFound)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Ready only once a policy snapshot is installed.
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if params.Store == nil || !params.Store.Loaded() {
			httpx.RespondError(w, httpx.ErrUnavailable)
			return
		}
		pol, _ := params.Store.Snapshot()
		httpx.JSON(w, http.StatusOK, map[string]any{
			"status":        "ok",
			"policy_source": pol.Source(),
			"failed_closed": pol.FailedClosed(),
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		data := view.TemplateData{Title: "Home", CurrentPath: "/"}
		if p, ok := rbac.PrincipalFromContext(r.Context()); ok {
			data.Principal = &p
			if params.Menu != nil {
				data.Menu = params.Menu.Visible(p)
			}
		}
		if err := params.Templates.Render(w, "pages/home.html", data); err != nil {
			params.Logger.Error("render home", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	})

	r.Get(rbac.ForbiddenPath, func(w http.ResponseWriter, r *http.Request) {
		if httpx.WantsJSON(r) {
			httpx.RespondError(w, httpx.ErrForbidden)
			return
		}
		data := view.TemplateData{Title: "Forbidden", CurrentPath: rbac.ForbiddenPath}
		if p, ok := rbac.PrincipalFromContext(r.Context()); ok {
			data.Principal = &p
			if params.Menu != nil {
				data.Menu = params.Menu.Visible(p)
			}
		}
		if err := params.Templates.RenderStatus(w, http.StatusForbidden, "pages/forbidden.html", data); err != nil {
			params.Logger.Error("render forbidden", slog.Any("error", err))
		}
	})

	if params.AuthHandler != nil {
		r.Route("/auth", params.AuthHandler.MountRoutes)
	}
	if params.RolesHandler != nil {
		params.RolesHandler.MountRoutes(r)
	}
	if params.ScreenHandler != nil {
		params.ScreenHandler.MountRoutes(r)
	}
	if params.JobHandler != nil && params.Evaluator != nil {
		admin := rbac.Middleware{Evaluator: params.Evaluator, Logger: params.Logger}
		r.Route("/jobs", func(r chi.Router) {
			r.Use(admin.RequireAdmin())
			params.JobHandler.MountRoutes(r)
		})
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler lets browsers cache embedded assets for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
