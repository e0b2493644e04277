package perf

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fleetops/fleetops/internal/rbac"
	"github.com/fleetops/fleetops/internal/screens"
)

func defaultEvaluator() *rbac.Evaluator {
	return rbac.NewEvaluator(rbac.NewStaticStore(rbac.DefaultPolicy()), nil)
}

// Menu filtering runs on every page render.
func TestMenuFilterLatencyTarget(t *testing.T) {
	eval := defaultEvaluator()
	filter := rbac.NewMenuFilter(rbac.DefaultMenu(), eval)

	samples := make([]time.Duration, 0, 200)
	for i := 0; i < 200; i++ {
		role := rbac.Roles()[i%len(rbac.Roles())]
		start := time.Now()
		_ = filter.Visible(rbac.Principal{ID: int64(i), Role: role})
		samples = append(samples, time.Since(start))
	}

	if p95 := percentile95(samples); p95 > 2*time.Millisecond {
		t.Fatalf("menu filter latency regression: p95=%s threshold=2ms", p95)
	}
}

// Readers must keep answering while the policy is swapped underneath them.
func TestDecisionsDuringReloads(t *testing.T) {
	store := rbac.NewStore(rbac.NewStaticSource(nil))
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("initial load: %v", err)
	}
	eval := rbac.NewEvaluator(store, nil)
	sales := rbac.Principal{ID: 1, Role: rbac.RoleSales}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if !eval.HasPermission(sales, "client.read") {
					t.Error("sales lost client.read during reload")
					return
				}
			}
		}()
	}
	for i := 0; i < 50; i++ {
		if err := store.Load(context.Background()); err != nil {
			t.Fatalf("reload %d: %v", i, err)
		}
	}
	close(stop)
	wg.Wait()
}

func BenchmarkHasPermission(b *testing.B) {
	eval := defaultEvaluator()
	p := rbac.Principal{ID: 1, Role: rbac.RoleAccounts}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = eval.HasPermission(p, "expense.approve")
	}
}

func BenchmarkMenuVisible(b *testing.B) {
	filter := rbac.NewMenuFilter(rbac.DefaultMenu(), defaultEvaluator())
	p := rbac.Principal{ID: 1, Role: rbac.RoleOperationsManager}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = filter.Visible(p)
	}
}

func BenchmarkGuardedScreen(b *testing.B) {
	eval := defaultEvaluator()
	h := screens.NewHandler(nil, nil, eval, rbac.NewGuard(eval, time.Second, nil), nil, nil)
	r := chi.NewRouter()
	h.MountRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/campaigns", nil)
	req = req.WithContext(rbac.ContextWithPrincipal(req.Context(), rbac.Principal{ID: 1, Role: rbac.RoleOperator}))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", rec.Code)
		}
	}
}

func percentile95(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	index := int(float64(len(sorted)-1) * 0.95)
	if index < 0 {
		index = 0
	}
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}
