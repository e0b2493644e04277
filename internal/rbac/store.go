package rbac

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Recorder receives policy load outcomes and authorization decisions. The
// observability package provides the Prometheus implementation.
type Recorder interface {
	PolicyLoaded(source string, err error)
	Decision(check string, allowed bool)
}

type nopRecorder struct{}

func (nopRecorder) PolicyLoaded(string, error) {}
func (nopRecorder) Decision(string, bool)      {}

// Store holds the current policy snapshot. The snapshot is swapped wholesale;
// readers never see a partially applied policy.
type Store struct {
	source      Source
	loadTimeout time.Duration
	logger      *slog.Logger
	recorder    Recorder

	current   atomic.Pointer[Policy]
	ready     chan struct{}
	readyOnce sync.Once
	group     singleflight.Group
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used for coverage gaps and load failures.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLoadTimeout bounds a single Load call.
func WithLoadTimeout(d time.Duration) StoreOption {
	return func(s *Store) {
		if d > 0 {
			s.loadTimeout = d
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) StoreOption {
	return func(s *Store) {
		if r != nil {
			s.recorder = r
		}
	}
}

// NewStore constructs an unloaded Store reading from source.
func NewStore(source Source, opts ...StoreOption) *Store {
	s := &Store{
		source:      source,
		loadTimeout: 10 * time.Second,
		logger:      slog.Default(),
		recorder:    nopRecorder{},
		ready:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewStaticStore returns a Store already holding policy.
func NewStaticStore(policy *Policy, opts ...StoreOption) *Store {
	s := NewStore(nil, opts...)
	s.install(policy)
	return s
}

// Load fetches the policy document from the source and swaps it in.
// Concurrent callers share one fetch. When the very first load fails the
// store settles on an empty policy so that waiters resolve to deny; a failed
// reload keeps the previous snapshot.
func (s *Store) Load(ctx context.Context) error {
	if s.source == nil {
		return fmt.Errorf("rbac: load: %w", ErrNoPolicy)
	}
	// The load is shared by every caller, so the leader's cancellation must
	// not abort it; loadTimeout still bounds it.
	_, err, _ := s.group.Do("load", func() (interface{}, error) {
		return nil, s.load(context.WithoutCancel(ctx))
	})
	return err
}

// namedFetcher is implemented by sources that delegate to other sources.
type namedFetcher interface {
	FetchNamed(ctx context.Context) (Document, string, error)
}

func (s *Store) load(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.loadTimeout)
	defer cancel()

	name := s.source.Name()
	served := name
	var doc Document
	var err error
	if nf, ok := s.source.(namedFetcher); ok {
		doc, served, err = nf.FetchNamed(ctx)
	} else {
		doc, err = s.source.Fetch(ctx)
	}
	if err == nil {
		var policy *Policy
		policy, err = NewPolicy(doc, served)
		if err == nil {
			s.install(policy)
			s.recorder.PolicyLoaded(name, nil)
			s.logger.Info("rbac policy loaded",
				slog.String("source", name),
				slog.String("served_by", served),
				slog.Int("roles", len(policy.entries)),
			)
			return nil
		}
	}

	s.recorder.PolicyLoaded(name, err)
	if s.current.Load() == nil {
		s.logger.Error("rbac policy load failed, denying all", slog.String("source", name), slog.Any("error", err))
		s.install(emptyPolicy(name))
	} else {
		s.logger.Warn("rbac policy reload failed, keeping previous snapshot", slog.String("source", name), slog.Any("error", err))
	}
	return fmt.Errorf("rbac: load from %s: %w", name, err)
}

func (s *Store) install(p *Policy) {
	s.current.Store(p)
	s.readyOnce.Do(func() { close(s.ready) })
}

// Snapshot returns the current policy, or false while nothing is loaded.
func (s *Store) Snapshot() (*Policy, bool) {
	p := s.current.Load()
	return p, p != nil
}

// Loaded reports whether a snapshot is installed.
func (s *Store) Loaded() bool {
	return s.current.Load() != nil
}

// Ready is closed once the first snapshot is installed.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Wait blocks until a snapshot is installed or ctx ends.
func (s *Store) Wait(ctx context.Context) (*Policy, error) {
	if p, ok := s.Snapshot(); ok {
		return p, nil
	}
	select {
	case <-s.ready:
		p, _ := s.Snapshot()
		return p, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrPolicyNotLoaded, ctx.Err())
	}
}

// PermissionsFor returns the permissions of role, empty when unknown or not loaded.
func (s *Store) PermissionsFor(role Role) PermissionSet {
	p, ok := s.Snapshot()
	if !ok {
		return PermissionSet{}
	}
	s.noteGap(p, role)
	return p.PermissionsFor(role)
}

// MenusFor returns the menu keys of role, empty when unknown or not loaded.
func (s *Store) MenusFor(role Role) MenuSet {
	p, ok := s.Snapshot()
	if !ok {
		return MenuSet{}
	}
	s.noteGap(p, role)
	return p.MenusFor(role)
}

// IsAdmin reports whether role is the administrator role.
func (s *Store) IsAdmin(role Role) bool {
	return role == RoleAdmin
}

// noteGap logs a role missing from the snapshot once per snapshot.
func (s *Store) noteGap(p *Policy, role Role) {
	if p.Covers(role) || !p.firstGap(role) {
		return
	}
	s.logger.Warn("rbac policy coverage gap",
		slog.String("role", string(role)),
		slog.Bool("known_role", role.Valid()),
		slog.String("source", p.source),
	)
}
