package e2e

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/fleetops/internal/app"
	"github.com/fleetops/fleetops/internal/auth"
	"github.com/fleetops/fleetops/internal/observability"
	"github.com/fleetops/fleetops/internal/rbac"
	"github.com/fleetops/fleetops/internal/screens"
	"github.com/fleetops/fleetops/internal/view"
	_ "github.com/fleetops/fleetops/testing"
)

type stack struct {
	router    http.Handler
	tokens    *auth.TokenService
	publisher *rbac.RedisSource
	store     *rbac.Store
}

func newStack(t *testing.T, initial rbac.Document) stack {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	publisher := rbac.NewRedisSource(client, rbac.DefaultRedisKey)
	require.NoError(t, publisher.Publish(ctx, initial))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &app.Config{AppEnv: "test", PolicySource: app.PolicySourceRedis, PolicyRedisKey: rbac.DefaultRedisKey}
	source, err := app.NewPolicySource(cfg, app.PolicyDeps{Redis: client})
	require.NoError(t, err)

	metrics := observability.NewMetrics()
	store := rbac.NewStore(source, rbac.WithLogger(logger), rbac.WithRecorder(metrics))
	require.NoError(t, store.Load(ctx))
	require.NoError(t, rbac.ListenForReload(ctx, client, store, logger))

	tokens, err := auth.NewTokenService([]byte("0123456789abcdef0123456789abcdef"), "fleetops-e2e", time.Hour)
	require.NoError(t, err)
	sessions := auth.NewSessionStore(client, "fleetops_session", time.Hour, false)
	engine, err := view.NewEngine()
	require.NoError(t, err)

	eval := rbac.NewEvaluator(store, nil)
	menu := rbac.NewMenuFilter(rbac.DefaultMenu(), eval)
	router := app.NewRouter(app.RouterParams{
		Logger:        logger,
		Config:        cfg,
		Templates:     engine,
		Authenticator: auth.NewAuthenticator(tokens, sessions, logger),
		AuthHandler:   auth.NewHandler(logger, sessions),
		Store:         store,
		Evaluator:     eval,
		Menu:          menu,
		RolesHandler:  rbac.NewHandler(logger, eval, menu),
		ScreenHandler: screens.NewHandler(logger, engine, eval, rbac.NewGuard(eval, time.Second, logger), menu, nil),
		Metrics:       metrics,
	})
	return stack{router: router, tokens: tokens, publisher: publisher, store: store}
}

func (s stack) bearer(t *testing.T, role rbac.Role) string {
	t.Helper()
	raw, err := s.tokens.Issue(context.Background(), rbac.Principal{ID: 42, Role: role, DisplayName: "Dev"})
	require.NoError(t, err)
	return "Bearer " + raw
}

func (s stack) get(t *testing.T, path, authz string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Accept", "application/json")
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestPublishedPolicyChangeReachesGuard(t *testing.T) {
	s := newStack(t, rbac.Document{
		"sales": {Permissions: []string{"client.read", "client.create"}, Menus: []string{"clients"}},
	})
	sales := s.bearer(t, rbac.RoleSales)

	rec := s.get(t, "/clients", sales, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"create":true`)

	rec = s.get(t, "/roles/my-menu", sales, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"clients"`)

	// Revoke client access and let the reload notice propagate.
	require.NoError(t, s.publisher.Publish(context.Background(), rbac.Document{
		"sales": {Permissions: []string{"report.read"}, Menus: []string{"reports"}},
	}))
	require.Eventually(t, func() bool {
		return s.get(t, "/clients", sales, nil).Code == http.StatusSeeOther
	}, 2*time.Second, 10*time.Millisecond)

	rec = s.get(t, "/reports", sales, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	pol, ok := s.store.Snapshot()
	require.True(t, ok)
	assert.Equal(t, "redis", pol.Source())
}

func TestSessionCookieCarriesPrincipalToScreens(t *testing.T) {
	s := newStack(t, rbac.DefaultDocument())

	req := httptest.NewRequest(http.MethodPost, "/auth/session", nil)
	req.Header.Set("Authorization", s.bearer(t, rbac.RoleVendor))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	rec = s.get(t, "/vehicles", "", cookies[0])
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.get(t, "/settings", "", cookies[0])
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, rbac.ForbiddenPath, rec.Header().Get("Location"))

	// Admin-only API answers with problems instead of redirects.
	req = httptest.NewRequest(http.MethodPost, "/roles/reload", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMissingRedisPolicyFallsBackToDefaults(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	source, err := app.NewPolicySource(&app.Config{PolicySource: app.PolicySourceRedis, PolicyRedisKey: "rbac:missing"}, app.PolicyDeps{Redis: client})
	require.NoError(t, err)
	store := rbac.NewStore(source)
	require.NoError(t, store.Load(ctx))

	pol, ok := store.Snapshot()
	require.True(t, ok)
	assert.Equal(t, "static", pol.Source())
	assert.True(t, rbac.NewEvaluator(store, nil).HasPermission(rbac.Principal{Role: rbac.RoleAccounts}, "expense.approve"))
}
