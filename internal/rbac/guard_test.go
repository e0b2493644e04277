package rbac_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/fleetops/internal/rbac"
)

func newGuard(store *rbac.Store, wait time.Duration) *rbac.Guard {
	return rbac.NewGuard(rbac.NewEvaluator(store, nil), wait, nil)
}

func serveAs(t *testing.T, h http.Handler, p *rbac.Principal, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if p != nil {
		req = req.WithContext(rbac.ContextWithPrincipal(req.Context(), *p))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGuardSettingsRedirectsVendor(t *testing.T) {
	guard := newGuard(rbac.NewStaticStore(rbac.DefaultPolicy()), time.Second)
	var fetched atomic.Bool
	settings := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fetched.Store(true)
		w.WriteHeader(http.StatusOK)
	})
	r := chi.NewRouter()
	r.With(guard.Protect(rbac.RequireAdminOnly())).Get("/settings", settings)

	vendor := principal(rbac.RoleVendor)
	rec := serveAs(t, r, &vendor, "/settings")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, rbac.ForbiddenPath, rec.Header().Get("Location"))
	assert.False(t, fetched.Load(), "settings handler must not run for a denied principal")

	admin := principal(rbac.RoleAdmin)
	rec = serveAs(t, r, &admin, "/settings")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, fetched.Load())
}

func TestGuardPermissionRequirement(t *testing.T) {
	guard := newGuard(rbac.NewStaticStore(rbac.DefaultPolicy()), time.Second)
	ctx := context.Background()
	req := rbac.RequirePermission("expense.approve")

	assert.Equal(t, rbac.GuardRendered, guard.Decide(ctx, principal(rbac.RoleAccounts), req))
	assert.Equal(t, rbac.GuardRedirected, guard.Decide(ctx, principal(rbac.RoleDriver), req))
	assert.Equal(t, rbac.GuardRendered, guard.Decide(ctx, principal(rbac.RoleAdmin), req))
}

func TestGuardZeroRequirementDenies(t *testing.T) {
	guard := newGuard(rbac.NewStaticStore(rbac.DefaultPolicy()), time.Second)

	state := guard.Decide(context.Background(), principal(rbac.RoleAdmin), rbac.Requirement{})
	assert.Equal(t, rbac.GuardRedirected, state)
	assert.Equal(t, "deny", rbac.Requirement{}.String())
}

func TestGuardWithoutPrincipalRedirects(t *testing.T) {
	guard := newGuard(rbac.NewStaticStore(rbac.DefaultPolicy()), time.Second)
	h := guard.Protect(rbac.RequirePermission("client.read"))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler reached without principal")
	}))

	rec := serveAs(t, h, nil, "/clients")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestGuardWaitsForPendingPolicy(t *testing.T) {
	release := make(chan struct{})
	src := &funcSource{name: "slow", fetch: func(context.Context) (rbac.Document, error) {
		<-release
		return rbac.DefaultDocument(), nil
	}}
	store := rbac.NewStore(src)
	guard := newGuard(store, 2*time.Second)

	go func() { _ = store.Load(context.Background()) }()

	result := make(chan rbac.GuardState, 1)
	go func() {
		result <- guard.Decide(context.Background(), principal(rbac.RoleSales), rbac.RequirePermission("client.read"))
	}()

	select {
	case state := <-result:
		t.Fatalf("guard decided %s while policy was pending", state)
	case <-time.After(30 * time.Millisecond):
	}

	close(release)
	select {
	case state := <-result:
		assert.Equal(t, rbac.GuardRendered, state)
	case <-time.After(time.Second):
		t.Fatal("guard never decided")
	}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *lockedBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

func TestGuardLogsStateTransitions(t *testing.T) {
	release := make(chan struct{})
	src := &funcSource{name: "slow", fetch: func(context.Context) (rbac.Document, error) {
		<-release
		return rbac.DefaultDocument(), nil
	}}
	store := rbac.NewStore(src)
	buf := &lockedBuffer{}
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	guard := rbac.NewGuard(rbac.NewEvaluator(store, nil), 2*time.Second, logger)

	result := make(chan rbac.GuardState, 1)
	go func() {
		result <- guard.Decide(context.Background(), principal(rbac.RoleVendor), rbac.RequireAdminOnly())
	}()
	require.Eventually(t, func() bool { return strings.Contains(buf.String(), "state=pending") }, time.Second, time.Millisecond)
	go func() { _ = store.Load(context.Background()) }()
	close(release)
	require.Equal(t, rbac.GuardRedirected, <-result)

	var states []string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if _, after, ok := strings.Cut(line, "state="); ok {
			states = append(states, strings.Fields(after)[0])
		}
	}
	assert.Equal(t, []string{"pending", "evaluating", "redirected"}, states)

	// A loaded store skips the pending state.
	buf.Reset()
	require.Equal(t, rbac.GuardRendered, guard.Decide(context.Background(), principal(rbac.RoleAdmin), rbac.RequireAdminOnly()))
	assert.NotContains(t, buf.String(), "state=pending")
	assert.Contains(t, buf.String(), "state=rendered")
}

func TestGuardWaitTimeoutDenies(t *testing.T) {
	store := rbac.NewStore(rbac.NewStaticSource(nil))
	guard := newGuard(store, 20*time.Millisecond)

	state := guard.Decide(context.Background(), principal(rbac.RoleAdmin), rbac.RequireAdminOnly())
	assert.Equal(t, rbac.GuardRedirected, state)
}

func TestGuardAfterFailedLoadDenies(t *testing.T) {
	src := &funcSource{name: "down", fetch: func(context.Context) (rbac.Document, error) {
		return nil, errors.New("unreachable")
	}}
	store := rbac.NewStore(src)
	require.Error(t, store.Load(context.Background()))
	guard := newGuard(store, time.Second)

	assert.Equal(t, rbac.GuardRedirected, guard.Decide(context.Background(), principal(rbac.RoleAdmin), rbac.RequireAdminOnly()))
	assert.Equal(t, rbac.GuardRedirected, guard.Decide(context.Background(), principal(rbac.RoleSales), rbac.RequirePermission("client.read")))
}

func TestGuardStateNames(t *testing.T) {
	assert.Equal(t, "pending", rbac.GuardPending.String())
	assert.Equal(t, "evaluating", rbac.GuardEvaluating.String())
	assert.Equal(t, "rendered", rbac.GuardRendered.String())
	assert.Equal(t, "redirected", rbac.GuardRedirected.String())
}
