package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fleetops/fleetops/internal/platform/httpx"
	"github.com/fleetops/fleetops/internal/rbac"
)

// Handler exchanges verified bearer tokens for browser sessions so the
// server-rendered shell can identify the user.
type Handler struct {
	logger   *slog.Logger
	sessions *SessionStore
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, sessions *SessionStore) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, sessions: sessions}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/me", h.me)
	r.Post("/session", h.createSession)
	r.Delete("/session", h.destroySession)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	p, ok := rbac.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

// createSession requires a principal established from a bearer token; a
// session cookie alone cannot mint another session.
func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	p, ok := rbac.PrincipalFromContext(r.Context())
	if !ok || !FromBearer(r.Context()) {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := h.sessions.Create(r.Context(), p)
	if err != nil {
		h.logger.Error("create session", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.sessions.SetCookie(w, id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) destroySession(w http.ResponseWriter, r *http.Request) {
	if id := h.sessions.sessionID(r); id != "" {
		if err := h.sessions.Destroy(r.Context(), id); err != nil {
			h.logger.Warn("destroy session", slog.Any("error", err))
		}
	}
	h.sessions.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
