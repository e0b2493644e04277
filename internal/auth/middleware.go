package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fleetops/fleetops/internal/platform/httpx"
	"github.com/fleetops/fleetops/internal/rbac"
)

// Authenticator resolves the request principal from a bearer token or a
// session cookie and stores it in the request context. Requests carrying
// neither pass through anonymously; authorization decides what they get.
type Authenticator struct {
	tokens   *TokenService
	sessions *SessionStore
	logger   *slog.Logger
}

// NewAuthenticator constructs an Authenticator. sessions may be nil.
func NewAuthenticator(tokens *TokenService, sessions *SessionStore, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{tokens: tokens, sessions: sessions, logger: logger}
}

// Middleware attaches the principal when one can be established.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw, ok := bearerToken(r); ok {
			p, err := a.tokens.Verify(r.Context(), raw)
			if err != nil {
				a.logger.Debug("auth bearer rejected", slog.Any("error", err))
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			ctx := context.WithValue(rbac.ContextWithPrincipal(r.Context(), p), bearerContextKey{}, true)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		if a.sessions != nil {
			if id := a.sessions.sessionID(r); id != "" {
				p, err := a.sessions.Lookup(r.Context(), id)
				switch {
				case err == nil:
					r = r.WithContext(rbac.ContextWithPrincipal(r.Context(), p))
				case errors.Is(err, ErrSessionNotFound):
					a.sessions.ClearCookie(w)
				default:
					a.logger.Error("auth session lookup", slog.Any("error", err))
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

type bearerContextKey struct{}

// FromBearer reports whether the request principal came from a verified
// bearer token rather than a session cookie.
func FromBearer(ctx context.Context) bool {
	ok, _ := ctx.Value(bearerContextKey{}).(bool)
	return ok
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
