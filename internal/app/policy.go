package app

import (
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/fleetops/fleetops/internal/rbac"
)

// PolicyDeps are the connections a policy source may read from.
type PolicyDeps struct {
	Pool  *pgxpool.Pool
	Redis *redis.Client
}

// NewPolicySource picks the policy source named by POLICY_SOURCE. The
// postgres and redis sources fall back to the compiled-in document so a
// missing schema or an empty key still yields a usable policy.
func NewPolicySource(cfg *Config, deps PolicyDeps) (rbac.Source, error) {
	switch cfg.PolicySource {
	case PolicySourceStatic:
		return rbac.NewStaticSource(nil), nil
	case PolicySourceFile:
		return rbac.FileSource{Path: cfg.PolicyFile}, nil
	case PolicySourceHTTP:
		return rbac.HTTPSource{
			URL:    cfg.PolicyURL,
			Client: &http.Client{Timeout: cfg.PolicyLoadTimeout},
		}, nil
	case PolicySourcePostgres:
		if deps.Pool == nil {
			return nil, fmt.Errorf("app: policy source %q needs a database pool", cfg.PolicySource)
		}
		return rbac.NewChainSource(rbac.NewPGSource(deps.Pool), rbac.NewStaticSource(nil)), nil
	case PolicySourceRedis:
		if deps.Redis == nil {
			return nil, fmt.Errorf("app: policy source %q needs a redis client", cfg.PolicySource)
		}
		return rbac.NewChainSource(rbac.NewRedisSource(deps.Redis, cfg.PolicyRedisKey), rbac.NewStaticSource(nil)), nil
	default:
		return nil, fmt.Errorf("app: unknown policy source %q", cfg.PolicySource)
	}
}
