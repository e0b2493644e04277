package rbac

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/fleetops/fleetops/internal/platform/httpx"
)

// Middleware wires RBAC authorization helpers for JSON API handlers. Unlike
// Guard it answers with problem responses instead of redirecting.
type Middleware struct {
	Evaluator *Evaluator
	Logger    *slog.Logger
}

// RequirePrincipal rejects requests without an authenticated principal.
func (m Middleware) RequirePrincipal() func(http.Handler) http.Handler {
	return m.require("principal", func(Principal) bool { return true })
}

// RequireAny ensures the current principal has at least one of the permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	normalized := normalizePermissions(perms)
	return m.require("any:"+joinPermissions(normalized), func(p Principal) bool {
		return m.Evaluator.HasAny(p, normalized...)
	})
}

// RequireAll ensures the current principal has every permission.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	normalized := normalizePermissions(perms)
	return m.require("all:"+joinPermissions(normalized), func(p Principal) bool {
		return m.Evaluator.HasAll(p, normalized...)
	})
}

// RequireRoles ensures the principal's role is in the group.
func (m Middleware) RequireRoles(group RoleGroup) func(http.Handler) http.Handler {
	return m.require("roles", func(p Principal) bool {
		return group.Contains(p.Role)
	})
}

// RequireAdmin ensures the principal is the administrator. It compares the
// role only and does not need a loaded policy, so admins can still reach
// recovery endpoints while the store is failed closed.
func (m Middleware) RequireAdmin() func(http.Handler) http.Handler {
	store := m.Evaluator.Store()
	return m.require("admin", func(p Principal) bool {
		return store.IsAdmin(p.Role)
	})
}

func (m Middleware) require(check string, allow func(Principal) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			if !allow(p) {
				if m.Logger != nil {
					m.Logger.Debug("rbac denied", slog.String("check", check), slog.String("role", string(p.Role)))
				}
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// normalizePermissions trims, lowercases and de-duplicates perms, keeping
// their first-seen order.
func normalizePermissions(perms []string) []Permission {
	seen := make(map[Permission]struct{}, len(perms))
	normalized := make([]Permission, 0, len(perms))
	for _, raw := range perms {
		p := Permission(strings.TrimSpace(strings.ToLower(raw)))
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		normalized = append(normalized, p)
	}
	return normalized
}

func joinPermissions(perms []Permission) string {
	parts := make([]string, len(perms))
	for i, p := range perms {
		parts[i] = string(p)
	}
	return strings.Join(parts, ",")
}
