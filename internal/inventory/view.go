package inventory

import (
	"context"
	"sync"

	"github.com/assetdesk/assetdesk/internal/model"
)

// View holds the inventory state of one UI session. Refreshes may overlap;
// only the most recent one that was not canceled is applied.
type View struct {
	loader *Loader

	mu    sync.Mutex
	gen   uint64
	state State
}

// NewView creates a view that has not loaded yet.
func NewView(loader *Loader) *View {
	return &View{loader: loader, state: State{Loading: true}}
}

// Refresh reloads the inventory and returns the resulting state. A failed
// load keeps the previous rows and sets the error. Results of a refresh
// whose ctx is done or that was superseded by a newer refresh are dropped.
func (v *View) Refresh(ctx context.Context) State {
	v.mu.Lock()
	v.gen++
	gen := v.gen
	v.state.Loading = true
	v.mu.Unlock()

	next := v.loader.Load(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.gen {
		return v.snapshotLocked()
	}
	if ctx.Err() != nil {
		v.state.Loading = false
		return v.snapshotLocked()
	}
	if next.Error != "" {
		v.state.Error = next.Error
		v.state.Err = next.Err
		v.state.Loading = false
		return v.snapshotLocked()
	}
	v.state = next
	return v.snapshotLocked()
}

// Append adds locally created items without a refetch. Owners are resolved
// against the last loaded directory. Items already present are skipped.
func (v *View) Append(items ...model.Item) {
	v.mu.Lock()
	defer v.mu.Unlock()

	present := make(map[string]bool, len(v.state.Items))
	for _, it := range v.state.Items {
		present[it.ID] = true
	}
	for _, it := range items {
		if present[it.ID] {
			continue
		}
		present[it.ID] = true
		v.state.Items = append(v.state.Items, NewViewItem(it, v.ownerLocked(deref(it.OwnerID))))
	}
}

// Replace swaps in an updated item, keeping its position. An item not yet
// present is appended.
func (v *View) Replace(item model.Item) {
	v.mu.Lock()
	defer v.mu.Unlock()

	row := NewViewItem(item, v.ownerLocked(deref(item.OwnerID)))
	for i := range v.state.Items {
		if v.state.Items[i].ID == item.ID {
			v.state.Items[i] = row
			return
		}
	}
	v.state.Items = append(v.state.Items, row)
}

// Remove drops rows by id, for deletes confirmed by the backend.
func (v *View) Remove(ids ...string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := v.state.Items[:0:0]
	for _, it := range v.state.Items {
		if !drop[it.ID] {
			kept = append(kept, it)
		}
	}
	v.state.Items = kept
}

// Snapshot returns a copy of the current state.
func (v *View) Snapshot() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

func (v *View) ownerLocked(id string) *model.User {
	if id == "" {
		return nil
	}
	for i := range v.state.Users {
		if v.state.Users[i].ID == id {
			u := v.state.Users[i]
			return &u
		}
	}
	for _, it := range v.state.Items {
		if it.OwnerID == id && it.Owner != UnknownOwner {
			return &model.User{ID: id, Email: it.OwnerEmail, FirstName: it.Owner}
		}
	}
	return nil
}

func (v *View) snapshotLocked() State {
	s := v.state
	s.Items = append([]ViewItem(nil), v.state.Items...)
	s.Users = append([]model.User(nil), v.state.Users...)
	return s
}
