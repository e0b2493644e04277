package rbac

// Evaluator answers authorization questions for a principal against the
// store's current snapshot. It holds no state of its own; while no usable
// snapshot exists every check resolves to false.
type Evaluator struct {
	store *Store
	menu  map[MenuKey]MenuItem
}

// NewEvaluator builds an evaluator over store. menu indexes items for
// IsMenuKeyVisible; nil uses DefaultMenu.
func NewEvaluator(store *Store, menu []MenuItem) *Evaluator {
	if menu == nil {
		menu = DefaultMenu()
	}
	index := make(map[MenuKey]MenuItem, len(menu))
	for _, item := range menu {
		index[item.Key] = item
	}
	return &Evaluator{store: store, menu: index}
}

// Store returns the backing store.
func (e *Evaluator) Store() *Store { return e.store }

// snapshot returns the usable policy or nil.
func (e *Evaluator) snapshot() *Policy {
	pol, ok := e.store.Snapshot()
	if !ok || pol.FailedClosed() {
		return nil
	}
	return pol
}

// IsAdmin reports whether p holds the administrator role.
func (e *Evaluator) IsAdmin(p Principal) bool {
	allowed := e.snapshot() != nil && e.store.IsAdmin(p.Role)
	e.store.recorder.Decision("admin", allowed)
	return allowed
}

// HasPermission reports whether p holds perm. Admin holds every
// syntactically valid permission whether or not the table lists it.
func (e *Evaluator) HasPermission(p Principal, perm Permission) bool {
	allowed := e.hasPermission(e.snapshot(), p.Role, perm)
	e.store.recorder.Decision("permission", allowed)
	return allowed
}

// HasAny reports whether p holds at least one of perms.
func (e *Evaluator) HasAny(p Principal, perms ...Permission) bool {
	pol := e.snapshot()
	allowed := false
	for _, perm := range perms {
		if e.hasPermission(pol, p.Role, perm) {
			allowed = true
			break
		}
	}
	e.store.recorder.Decision("permission_any", allowed)
	return allowed
}

// HasAll reports whether p holds every one of perms. An empty list is false.
func (e *Evaluator) HasAll(p Principal, perms ...Permission) bool {
	pol := e.snapshot()
	allowed := len(perms) > 0
	for _, perm := range perms {
		if !e.hasPermission(pol, p.Role, perm) {
			allowed = false
			break
		}
	}
	e.store.recorder.Decision("permission_all", allowed)
	return allowed
}

// CanRead reports whether p holds resource.read.
func (e *Evaluator) CanRead(p Principal, resource string) bool {
	return e.HasPermission(p, Permission(resource+".read"))
}

// CanWrite reports whether p may create or update resource.
func (e *Evaluator) CanWrite(p Principal, resource string) bool {
	return e.HasAny(p, Permission(resource+".create"), Permission(resource+".update"))
}

// IsMenuVisible reports whether item is shown to p.
func (e *Evaluator) IsMenuVisible(p Principal, item MenuItem) bool {
	visible := e.menuVisible(e.snapshot(), p.Role, item)
	e.store.recorder.Decision("menu", visible)
	return visible
}

// IsMenuKeyVisible looks key up in the declared menu. Undeclared keys are
// never visible.
func (e *Evaluator) IsMenuKeyVisible(p Principal, key MenuKey) bool {
	item, ok := e.menu[key]
	if !ok {
		e.store.recorder.Decision("menu", false)
		return false
	}
	return e.IsMenuVisible(p, item)
}

// ExplainMenu returns the rule that decided item for p alongside the result.
func (e *Evaluator) ExplainMenu(p Principal, item MenuItem) (RuleKind, bool) {
	pol := e.snapshot()
	if pol == nil {
		return RuleNone, false
	}
	return decideVisibility(pol, item, p.Role)
}

func (e *Evaluator) hasPermission(pol *Policy, role Role, perm Permission) bool {
	if pol == nil || !perm.Valid() {
		return false
	}
	if e.store.IsAdmin(role) {
		return true
	}
	e.store.noteGap(pol, role)
	return pol.grants(role, perm)
}

func (e *Evaluator) menuVisible(pol *Policy, role Role, item MenuItem) bool {
	if pol == nil {
		return false
	}
	e.store.noteGap(pol, role)
	_, visible := decideVisibility(pol, item, role)
	return visible
}
