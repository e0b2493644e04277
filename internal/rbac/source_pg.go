package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgxpool.Pool used by PGSource.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const (
	pgUndefinedTable = "42P01"

	queryRoles = `SELECT name FROM roles ORDER BY name`

	queryRolePermissions = `
SELECT r.name, p.name
FROM role_permissions rp
JOIN roles r ON r.id = rp.role_id
JOIN permissions p ON p.id = rp.permission_id
ORDER BY r.name, p.name`

	queryRoleMenus = `
SELECT r.name, rm.menu_key
FROM role_menus rm
JOIN roles r ON r.id = rm.role_id
ORDER BY r.name, rm.menu_key`
)

// PGSource assembles a policy document from the roles, permissions,
// role_permissions and role_menus tables.
type PGSource struct {
	db Querier
	// menuFallback supplies menus when the role_menus table does not exist.
	menuFallback Document
}

// NewPGSource reads the policy through db. Menus fall back to
// DefaultDocument when the database has no role_menus table.
func NewPGSource(db Querier) *PGSource {
	return &PGSource{db: db, menuFallback: DefaultDocument()}
}

func (s *PGSource) Name() string { return "postgres" }

// Fetch runs the policy queries. A database without the RBAC schema yields
// ErrNoPolicy so a ChainSource can move on.
func (s *PGSource) Fetch(ctx context.Context) (Document, error) {
	doc := Document{}

	if err := s.scan(ctx, queryRoles, func(rows pgx.Rows) error {
		var role string
		if err := rows.Scan(&role); err != nil {
			return err
		}
		doc[role] = DocumentEntry{Permissions: []string{}, Menus: []string{}}
		return nil
	}); err != nil {
		return nil, err
	}
	if len(doc) == 0 {
		return nil, fmt.Errorf("rbac: postgres roles table empty: %w", ErrNoPolicy)
	}

	if err := s.scan(ctx, queryRolePermissions, func(rows pgx.Rows) error {
		var role, perm string
		if err := rows.Scan(&role, &perm); err != nil {
			return err
		}
		entry := doc[role]
		entry.Permissions = append(entry.Permissions, perm)
		doc[role] = entry
		return nil
	}); err != nil {
		return nil, err
	}

	err := s.scan(ctx, queryRoleMenus, func(rows pgx.Rows) error {
		var role, key string
		if err := rows.Scan(&role, &key); err != nil {
			return err
		}
		entry := doc[role]
		entry.Menus = append(entry.Menus, key)
		doc[role] = entry
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrNoPolicy):
		for role, entry := range doc {
			entry.Menus = append(entry.Menus, s.menuFallback[role].Menus...)
			doc[role] = entry
		}
	default:
		return nil, err
	}

	return doc, nil
}

func (s *PGSource) scan(ctx context.Context, sql string, fn func(pgx.Rows) error) error {
	rows, err := s.db.Query(ctx, sql)
	if err != nil {
		return wrapPGError(err)
	}
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return fmt.Errorf("rbac: scan policy row: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return wrapPGError(err)
	}
	return nil
}

func wrapPGError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable {
		return fmt.Errorf("rbac: postgres schema missing (%s): %w", pgErr.Message, ErrNoPolicy)
	}
	return fmt.Errorf("rbac: query policy: %w", err)
}
