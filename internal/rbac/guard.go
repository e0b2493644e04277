package rbac

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// ForbiddenPath is where every denied navigation ends up.
const ForbiddenPath = "/forbidden"

// Requirement is what a protected screen demands. The zero value denies
// everyone.
type Requirement struct {
	Permission Permission `json:"permission,omitempty"`
	AdminOnly  bool       `json:"admin_only,omitempty"`
}

// RequirePermission declares a permission-guarded screen.
func RequirePermission(p Permission) Requirement { return Requirement{Permission: p} }

// RequireAdminOnly declares an admin-only screen.
func RequireAdminOnly() Requirement { return Requirement{AdminOnly: true} }

func (r Requirement) String() string {
	switch {
	case r.AdminOnly:
		return "admin"
	case r.Permission != "":
		return string(r.Permission)
	default:
		return "deny"
	}
}

// allows evaluates r against a fixed snapshot.
func (r Requirement) allows(e *Evaluator, pol *Policy, role Role) bool {
	if pol == nil {
		return false
	}
	switch {
	case r.AdminOnly:
		return e.store.IsAdmin(role)
	case r.Permission != "":
		return e.hasPermission(pol, role, r.Permission)
	default:
		return false
	}
}

// GuardState tracks a single navigation attempt.
type GuardState int

// Navigation states. Rendered and Redirected are terminal.
const (
	GuardPending GuardState = iota
	GuardEvaluating
	GuardRendered
	GuardRedirected
)

func (s GuardState) String() string {
	switch s {
	case GuardPending:
		return "pending"
	case GuardEvaluating:
		return "evaluating"
	case GuardRendered:
		return "rendered"
	case GuardRedirected:
		return "redirected"
	default:
		return "unknown"
	}
}

// Guard gates screens behind a Requirement.
type Guard struct {
	evaluator   *Evaluator
	waitTimeout time.Duration
	logger      *slog.Logger
}

// NewGuard builds a guard. waitTimeout bounds how long a navigation stays
// pending on a policy that has not loaded yet.
func NewGuard(evaluator *Evaluator, waitTimeout time.Duration, logger *slog.Logger) *Guard {
	if waitTimeout <= 0 {
		waitTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{evaluator: evaluator, waitTimeout: waitTimeout, logger: logger}
}

// Decide walks one navigation attempt to a terminal state. It blocks while
// the policy is pending; running out of time or a cancelled ctx resolves to
// GuardRedirected.
func (g *Guard) Decide(ctx context.Context, p Principal, req Requirement) GuardState {
	if !g.evaluator.store.Loaded() {
		g.transition(GuardPending, p, req)
		waitCtx, cancel := context.WithTimeout(ctx, g.waitTimeout)
		_, err := g.evaluator.store.Wait(waitCtx)
		cancel()
		if err != nil {
			g.logger.Warn("rbac guard gave up waiting for policy",
				slog.String("requirement", req.String()),
				slog.Any("error", err),
			)
			g.evaluator.store.recorder.Decision("guard", false)
			return g.transition(GuardRedirected, p, req)
		}
	}

	g.transition(GuardEvaluating, p, req)
	allowed := req.allows(g.evaluator, g.evaluator.snapshot(), p.Role)
	g.evaluator.store.recorder.Decision("guard", allowed)
	if allowed {
		return g.transition(GuardRendered, p, req)
	}
	return g.transition(GuardRedirected, p, req)
}

func (g *Guard) transition(state GuardState, p Principal, req Requirement) GuardState {
	g.logger.Debug("rbac guard state",
		slog.String("role", string(p.Role)),
		slog.String("requirement", req.String()),
		slog.String("state", state.String()),
	)
	return state
}

// Protect wraps next so it only runs when the request principal satisfies
// req. Denials redirect to ForbiddenPath before next is entered.
func (g *Guard) Protect(req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok || g.Decide(r.Context(), p, req) != GuardRendered {
				http.Redirect(w, r, ForbiddenPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
