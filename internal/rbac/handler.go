package rbac

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/fleetops/fleetops/internal/platform/httpx"
)

// Handler exposes the policy over HTTP under /roles.
type Handler struct {
	logger     *slog.Logger
	store      *Store
	evaluator  *Evaluator
	menu       *MenuFilter
	middleware Middleware
}

// NewHandler constructs the roles API handler.
func NewHandler(logger *slog.Logger, evaluator *Evaluator, menu *MenuFilter) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:     logger,
		store:      evaluator.Store(),
		evaluator:  evaluator,
		menu:       menu,
		middleware: Middleware{Evaluator: evaluator, Logger: logger},
	}
}

// MountRoutes registers the roles endpoints on r.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/roles", func(r chi.Router) {
		r.Get("/all", h.listRoles)
		r.Get("/permissions", h.permissionMatrix)
		r.Get("/menu", h.menuMatrix)
		r.Group(func(r chi.Router) {
			r.Use(h.middleware.RequirePrincipal())
			r.Get("/my-permissions", h.myPermissions)
			r.Get("/my-menu", h.myMenu)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.middleware.RequireAdmin())
			r.Use(httprate.LimitByIP(6, time.Minute))
			r.Post("/reload", h.reload)
		})
	})
}

func (h *Handler) listRoles(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, Roles())
}

func (h *Handler) permissionMatrix(w http.ResponseWriter, _ *http.Request) {
	pol, ok := h.store.Snapshot()
	if !ok {
		httpx.RespondError(w, httpx.ErrUnavailable)
		return
	}
	out := make(map[string][]string, len(pol.entries))
	for role, entry := range pol.Document() {
		out[role] = entry.Permissions
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) menuMatrix(w http.ResponseWriter, _ *http.Request) {
	pol, ok := h.store.Snapshot()
	if !ok {
		httpx.RespondError(w, httpx.ErrUnavailable)
		return
	}
	out := make(map[string][]string, len(pol.entries))
	for role, entry := range pol.Document() {
		out[role] = entry.Menus
	}
	httpx.JSON(w, http.StatusOK, out)
}

type myPermissionsResponse struct {
	Role           Role      `json:"role"`
	IsAdmin        bool      `json:"is_admin"`
	Permissions    []string  `json:"permissions"`
	MenuVisibility []MenuKey `json:"menu_visibility"`
}

func (h *Handler) myPermissions(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())
	perms := h.store.PermissionsFor(p.Role).Sorted()
	resp := myPermissionsResponse{
		Role:           p.Role,
		IsAdmin:        h.evaluator.IsAdmin(p),
		Permissions:    make([]string, len(perms)),
		MenuVisibility: visibleKeys(h.menu.Visible(p)),
	}
	for i, perm := range perms {
		resp.Permissions[i] = string(perm)
	}
	httpx.JSON(w, http.StatusOK, resp)
}

type myMenuResponse struct {
	Role      Role           `json:"role"`
	MenuItems []MenuKey      `json:"menu_items"`
	Items     []menuItemView `json:"items"`
}

type menuItemView struct {
	Key   MenuKey `json:"key"`
	Path  string  `json:"path"`
	Label string  `json:"label"`
}

func (h *Handler) myMenu(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())
	visible := h.menu.Visible(p)
	resp := myMenuResponse{
		Role:      p.Role,
		MenuItems: visibleKeys(visible),
		Items:     make([]menuItemView, len(visible)),
	}
	for i, item := range visible {
		resp.Items[i] = menuItemView{Key: item.Key, Path: item.Path, Label: item.DisplayLabel()}
	}
	httpx.JSON(w, http.StatusOK, resp)
}

type reloadResponse struct {
	Source   string    `json:"source"`
	LoadedAt time.Time `json:"loaded_at"`
	Roles    []Role    `json:"roles"`
}

func (h *Handler) reload(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Load(r.Context()); err != nil {
		h.logger.Error("rbac reload", slog.Any("error", err))
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrUnavailable, err))
		return
	}
	pol, _ := h.store.Snapshot()
	httpx.JSON(w, http.StatusOK, reloadResponse{
		Source:   pol.Source(),
		LoadedAt: pol.LoadedAt(),
		Roles:    pol.Roles(),
	})
}

func visibleKeys(items []MenuItem) []MenuKey {
	keys := make([]MenuKey, len(items))
	for i, item := range items {
		keys[i] = item.Key
	}
	return keys
}
