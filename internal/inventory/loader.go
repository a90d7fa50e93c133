package inventory

import (
	"context"
	"log/slog"
	"time"

	servertiming "github.com/mitchellh/go-server-timing"
	"golang.org/x/sync/errgroup"

	"github.com/assetdesk/assetdesk/internal/model"
)

// DefaultLookupConcurrency bounds the per-owner lookups of one load.
const DefaultLookupConcurrency = 8

// loadFailed is the error text used when a failure carries no message.
const loadFailed = "Failed to load inventory"

// Source is the part of the API client the loader needs.
type Source interface {
	ListItems(ctx context.Context) ([]model.Item, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
}

// State is the composed inventory at one point in time.
type State struct {
	Items    []ViewItem
	Users    []model.User
	Loading  bool
	Error    string
	LoadedAt time.Time

	// Err is the failure behind Error, for callers that branch on its kind.
	Err error
}

// Loader fetches and composes inventory state.
type Loader struct {
	src         Source
	logger      *slog.Logger
	concurrency int
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the loader's logger.
func WithLogger(l *slog.Logger) LoaderOption {
	return func(ld *Loader) { ld.logger = l }
}

// WithLookupConcurrency sets how many owner lookups may run at once.
func WithLookupConcurrency(n int) LoaderOption {
	return func(ld *Loader) {
		if n > 0 {
			ld.concurrency = n
		}
	}
}

// NewLoader creates a loader over src.
func NewLoader(src Source, opts ...LoaderOption) *Loader {
	l := &Loader{src: src, logger: slog.Default(), concurrency: DefaultLookupConcurrency}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches items and the user directory concurrently and maps every
// item to a ViewItem. An items failure is reported in State.Error. A
// directory failure only degrades owner resolution to per-owner lookups,
// and a failed lookup marks just the affected rows as UnknownOwner.
func (l *Loader) Load(ctx context.Context) State {
	defer startTiming(ctx, "inventory", "compose inventory")()

	var (
		items    []model.Item
		users    []model.User
		usersErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer startTiming(ctx, "items", "list items")()
		var err error
		items, err = l.src.ListItems(gctx)
		return err
	})
	g.Go(func() error {
		defer startTiming(ctx, "users", "list users")()
		users, usersErr = l.src.ListUsers(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		l.logger.Error("failed to load inventory", "error", err)
		return State{Error: errorText(err), Err: err}
	}
	if usersErr != nil {
		l.logger.Warn("user directory unavailable, resolving owners per item", "error", usersErr)
		users = nil
	}

	directory := make(map[string]*model.User, len(users))
	for i := range users {
		directory[users[i].ID] = &users[i]
	}

	var missing []string
	seen := make(map[string]bool)
	for _, it := range items {
		id := deref(it.OwnerID)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if _, ok := directory[id]; !ok {
			missing = append(missing, id)
		}
	}
	for id, u := range l.lookupOwners(ctx, missing) {
		directory[id] = u
	}

	view := make([]ViewItem, len(items))
	for i, it := range items {
		view[i] = NewViewItem(it, directory[deref(it.OwnerID)])
	}
	return State{Items: view, Users: users, LoadedAt: time.Now()}
}

// lookupOwners fetches users by id with bounded concurrency. Ids whose
// lookup failed are absent from the result.
func (l *Loader) lookupOwners(ctx context.Context, ids []string) map[string]*model.User {
	if len(ids) == 0 {
		return nil
	}
	defer startTiming(ctx, "owners", "resolve owners")()

	found := make([]*model.User, len(ids))
	var g errgroup.Group
	g.SetLimit(l.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			u, err := l.src.GetUser(ctx, id)
			if err != nil {
				l.logger.Warn("owner lookup failed", "owner", id, "error", err)
				return nil
			}
			found[i] = u
			return nil
		})
	}
	g.Wait()

	out := make(map[string]*model.User, len(ids))
	for i, id := range ids {
		if found[i] != nil {
			out[id] = found[i]
		}
	}
	return out
}

func errorText(err error) string {
	if err == nil || err.Error() == "" {
		return loadFailed
	}
	return err.Error()
}

// startTiming records a Server-Timing metric when ctx carries a timing
// header, and returns the function that stops it.
func startTiming(ctx context.Context, name, desc string) func() {
	timing := servertiming.FromContext(ctx)
	if timing == nil {
		return func() {}
	}
	m := timing.NewMetric(name).WithDesc(desc).Start()
	return func() { m.Stop() }
}
