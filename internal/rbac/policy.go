package rbac

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Document is the wire shape of a policy: role name to permissions and menus.
type Document map[string]DocumentEntry

// DocumentEntry is the per-role portion of a Document.
type DocumentEntry struct {
	Permissions []string `json:"permissions" yaml:"permissions" validate:"dive,permission"`
	Menus       []string `json:"menus" yaml:"menus" validate:"dive,required"`
}

// PermissionSet is an immutable set of permissions.
type PermissionSet map[Permission]struct{}

// Has reports whether p is in the set.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// Sorted returns the members ordered by name.
func (s PermissionSet) Sorted() []Permission {
	out := make([]Permission, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MenuSet is an immutable set of menu keys.
type MenuSet map[MenuKey]struct{}

// Has reports whether k is in the set.
func (s MenuSet) Has(k MenuKey) bool {
	_, ok := s[k]
	return ok
}

// Sorted returns the members ordered by key.
func (s MenuSet) Sorted() []MenuKey {
	out := make([]MenuKey, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// PolicyEntry is what a single role is granted.
type PolicyEntry struct {
	Permissions PermissionSet
	Menus       MenuSet
}

// Policy is a frozen snapshot of the role table. It is never mutated after
// NewPolicy returns; reloading builds a new Policy.
type Policy struct {
	entries  map[Role]PolicyEntry
	source   string
	loadedAt time.Time
	// failedClosed marks the placeholder installed when loading gave up.
	failedClosed bool

	// roles already reported as coverage gaps for this snapshot
	gaps sync.Map
}

// NewPolicy validates doc and freezes it into a Policy. Unknown roles and
// malformed permissions are configuration errors and reject the whole
// document.
func NewPolicy(doc Document, source string) (*Policy, error) {
	entries := make(map[Role]PolicyEntry, len(doc))
	var errs []error
	for rawRole, entry := range doc {
		role, err := ParseRole(rawRole)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := entries[role]; dup {
			errs = append(errs, fmt.Errorf("rbac: role %q declared twice", role))
			continue
		}
		perms := make(PermissionSet, len(entry.Permissions))
		for _, raw := range entry.Permissions {
			p, err := ParsePermission(raw)
			if err != nil {
				errs = append(errs, fmt.Errorf("role %s: %w", role, err))
				continue
			}
			perms[p] = struct{}{}
		}
		menus := make(MenuSet, len(entry.Menus))
		for _, raw := range entry.Menus {
			if raw == "" {
				continue
			}
			menus[MenuKey(raw)] = struct{}{}
		}
		entries[role] = PolicyEntry{Permissions: perms, Menus: menus}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &Policy{entries: entries, source: source, loadedAt: time.Now().UTC()}, nil
}

// emptyPolicy is the fail-closed snapshot installed when loading gives up.
func emptyPolicy(source string) *Policy {
	return &Policy{entries: map[Role]PolicyEntry{}, source: source, loadedAt: time.Now().UTC(), failedClosed: true}
}

// Source names where the snapshot came from.
func (p *Policy) Source() string { return p.source }

// FailedClosed reports whether the snapshot is the deny-all placeholder.
func (p *Policy) FailedClosed() bool { return p.failedClosed }

// LoadedAt returns when the snapshot was frozen.
func (p *Policy) LoadedAt() time.Time { return p.loadedAt }

// Covers reports whether role has an entry in the snapshot.
func (p *Policy) Covers(role Role) bool {
	_, ok := p.entries[role]
	return ok
}

// Roles lists the roles present in the snapshot, sorted.
func (p *Policy) Roles() []Role {
	roles := make([]Role, 0, len(p.entries))
	for r := range p.entries {
		roles = append(roles, r)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}

// PermissionsFor returns a copy of the permissions granted to role. Unknown
// roles get an empty set.
func (p *Policy) PermissionsFor(role Role) PermissionSet {
	entry := p.entries[role]
	out := make(PermissionSet, len(entry.Permissions))
	for k := range entry.Permissions {
		out[k] = struct{}{}
	}
	return out
}

// MenusFor returns a copy of the menu keys granted to role.
func (p *Policy) MenusFor(role Role) MenuSet {
	entry := p.entries[role]
	out := make(MenuSet, len(entry.Menus))
	for k := range entry.Menus {
		out[k] = struct{}{}
	}
	return out
}

func (p *Policy) grants(role Role, perm Permission) bool {
	return p.entries[role].Permissions.Has(perm)
}

func (p *Policy) shows(role Role, key MenuKey) bool {
	return p.entries[role].Menus.Has(key)
}

// firstGap reports true the first time role is seen missing from this snapshot.
func (p *Policy) firstGap(role Role) bool {
	_, seen := p.gaps.LoadOrStore(role, struct{}{})
	return !seen
}

// Document renders the snapshot back into its wire shape.
func (p *Policy) Document() Document {
	doc := make(Document, len(p.entries))
	for role, entry := range p.entries {
		perms := entry.Permissions.Sorted()
		menus := entry.Menus.Sorted()
		de := DocumentEntry{
			Permissions: make([]string, len(perms)),
			Menus:       make([]string, len(menus)),
		}
		for i, perm := range perms {
			de.Permissions[i] = string(perm)
		}
		for i, m := range menus {
			de.Menus[i] = string(m)
		}
		doc[string(role)] = de
	}
	return doc
}
