package inventory

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetdesk/assetdesk/internal/client"
	"github.com/assetdesk/assetdesk/internal/model"
	"github.com/assetdesk/assetdesk/internal/table"
)

type fakeSource struct {
	items    []model.Item
	users    []model.User
	itemsErr error
	usersErr error
	// byID answers GetUser; ids missing from it fail.
	byID    map[string]model.User
	lookups atomic.Int32
}

func (f *fakeSource) ListItems(context.Context) ([]model.Item, error) {
	return f.items, f.itemsErr
}

// slowFirstSource blocks its first ListItems call until release is closed.
type slowFirstSource struct {
	fakeSource
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (s *slowFirstSource) ListItems(context.Context) ([]model.Item, error) {
	if s.calls.Add(1) == 1 {
		close(s.started)
		<-s.release
		return []model.Item{{ID: "old"}}, nil
	}
	return []model.Item{{ID: "new"}}, nil
}

func (f *fakeSource) ListUsers(context.Context) ([]model.User, error) {
	return f.users, f.usersErr
}

func (f *fakeSource) GetUser(_ context.Context, id string) (*model.User, error) {
	f.lookups.Add(1)
	u, ok := f.byID[id]
	if !ok {
		return nil, errors.New("API error: 404 Not Found")
	}
	return &u, nil
}

func ptr(s string) *string { return &s }

var (
	jane = model.User{ID: "u1", Email: "jane.doe@example.com", FirstName: "Jane", LastName: "Doe"}
	john = model.User{ID: "u2", Email: "john.smith@example.com", FirstName: "John", LastName: "Smith"}
)

func TestInitials(t *testing.T) {
	tests := map[string]string{
		"john.doe@example.com":   "JD",
		"a@example.com":          "A",
		"mary.ann.lee@x.org":     "MAL",
		".leading..dots@x":       "LD",
		"no-at-sign":             "N",
		"émile.zola@example.com": "ÉZ",
		"":                       "",
	}
	for email, want := range tests {
		assert.Equal(t, want, Initials(email), email)
	}
}

func TestNewViewItem(t *testing.T) {
	item := model.Item{
		ID: "i1", Name: "ThinkPad", Category: "Laptop", SerialNumber1: "S1",
		SerialNumber2: ptr("S2"), OwnerID: ptr("u1"), Location: "HQ", Status: model.ItemStatusAvailable,
	}

	v := NewViewItem(item, &jane)
	assert.Equal(t, "Jane Doe", v.Owner)
	assert.Equal(t, "JD", v.OwnerInitials)
	assert.Equal(t, "S2", v.SerialNumber2)
	assert.Equal(t, "", v.SerialNumber3)
	assert.Equal(t, "ThinkPad", v.Field(FieldName))
	assert.Equal(t, "i1", v.Key())

	unknown := NewViewItem(item, nil)
	assert.Equal(t, UnknownOwner, unknown.Owner)
	assert.Equal(t, "", unknown.OwnerInitials)
}

func TestSearchMatchesCreatedDate(t *testing.T) {
	created := time.Date(2024, time.March, 5, 9, 30, 0, 0, time.UTC)
	rows := []ViewItem{
		NewViewItem(model.Item{ID: "i1", Name: "ThinkPad", CreatedAt: created}, nil),
		NewViewItem(model.Item{ID: "i2", Name: "MacBook", CreatedAt: created.AddDate(0, 1, 0)}, nil),
	}

	assert.Contains(t, rows[0].Fields(), "2024-03-05T09:30:00Z")

	got := table.Filter(rows, "2024-03-05")
	require.Len(t, got, 1)
	assert.Equal(t, "i1", got[0].ID)
	assert.Len(t, table.Filter(rows, "2024-0"), 2)
}

func TestLoadResolvesOwnersFromDirectory(t *testing.T) {
	src := &fakeSource{
		items: []model.Item{
			{ID: "i1", Name: "A", OwnerID: ptr("u1")},
			{ID: "i2", Name: "B", OwnerID: ptr("u2")},
			{ID: "i3", Name: "C"},
		},
		users: []model.User{jane, john},
	}

	st := NewLoader(src).Load(context.Background())
	require.Empty(t, st.Error)
	assert.False(t, st.Loading)
	require.Len(t, st.Items, 3)
	assert.Equal(t, "Jane Doe", st.Items[0].Owner)
	assert.Equal(t, "JS", st.Items[1].OwnerInitials)
	assert.Equal(t, UnknownOwner, st.Items[2].Owner)
	assert.Zero(t, src.lookups.Load())
}

func TestLoadItemsFailure(t *testing.T) {
	src := &fakeSource{itemsErr: errors.New("API error: 500 Internal Server Error"), users: []model.User{jane}}

	st := NewLoader(src).Load(context.Background())
	assert.Equal(t, "API error: 500 Internal Server Error", st.Error)
	assert.ErrorIs(t, st.Err, src.itemsErr)
	assert.False(t, st.Loading)
	assert.Empty(t, st.Items)
}

func TestLoadItemsServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/items", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("GET /api/users", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"users":[]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	st := NewLoader(client.New(srv.URL + "/api")).Load(context.Background())
	assert.Equal(t, "API error: 500 Internal Server Error", st.Error)
	assert.False(t, st.Loading)
	assert.Empty(t, st.Items)

	var apiErr *client.APIError
	require.ErrorAs(t, st.Err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

func TestLoadItemsFailureWithoutMessage(t *testing.T) {
	src := &fakeSource{itemsErr: errors.New("")}
	st := NewLoader(src).Load(context.Background())
	assert.Equal(t, "Failed to load inventory", st.Error)
}

func TestLoadFallsBackToPerOwnerLookup(t *testing.T) {
	src := &fakeSource{
		items: []model.Item{
			{ID: "i1", OwnerID: ptr("u1")},
			{ID: "i2", OwnerID: ptr("u2")},
			{ID: "i3", OwnerID: ptr("u1")},
			{ID: "i4", OwnerID: ptr("gone")},
		},
		usersErr: errors.New("API error: 503 Service Unavailable"),
		byID:     map[string]model.User{"u1": jane, "u2": john},
	}

	st := NewLoader(src, WithLookupConcurrency(2)).Load(context.Background())
	require.Empty(t, st.Error)
	require.Len(t, st.Items, 4)
	assert.Equal(t, "Jane Doe", st.Items[0].Owner)
	assert.Equal(t, "John Smith", st.Items[1].Owner)
	assert.Equal(t, "Jane Doe", st.Items[2].Owner)
	assert.Equal(t, UnknownOwner, st.Items[3].Owner)
	// One lookup per distinct owner.
	assert.Equal(t, int32(3), src.lookups.Load())
}

func TestLoadLooksUpOwnersMissingFromDirectory(t *testing.T) {
	src := &fakeSource{
		items: []model.Item{{ID: "i1", OwnerID: ptr("u1")}, {ID: "i2", OwnerID: ptr("u2")}},
		users: []model.User{jane},
		byID:  map[string]model.User{"u2": john},
	}

	st := NewLoader(src).Load(context.Background())
	assert.Equal(t, "John Smith", st.Items[1].Owner)
	assert.Equal(t, int32(1), src.lookups.Load())
}

func TestViewRefreshKeepsRowsOnError(t *testing.T) {
	src := &fakeSource{items: []model.Item{{ID: "i1", Name: "A"}}}
	v := NewView(NewLoader(src))
	assert.True(t, v.Snapshot().Loading)

	st := v.Refresh(context.Background())
	require.Len(t, st.Items, 1)
	assert.False(t, st.Loading)

	src.itemsErr = errors.New("boom")
	st = v.Refresh(context.Background())
	assert.Equal(t, "boom", st.Error)
	assert.Len(t, st.Items, 1)
	assert.False(t, st.Loading)

	src.itemsErr = nil
	st = v.Refresh(context.Background())
	assert.Empty(t, st.Error)
}

func TestViewDropsCanceledRefresh(t *testing.T) {
	src := &fakeSource{items: []model.Item{{ID: "i1"}}}
	v := NewView(NewLoader(src))
	v.Refresh(context.Background())

	src.items = []model.Item{{ID: "i2"}, {ID: "i3"}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	st := v.Refresh(ctx)

	require.Len(t, st.Items, 1)
	assert.Equal(t, "i1", st.Items[0].ID)
	assert.False(t, st.Loading)
}

func TestViewDropsSupersededRefresh(t *testing.T) {
	src := &slowFirstSource{started: make(chan struct{}), release: make(chan struct{})}
	v := NewView(NewLoader(src))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		v.Refresh(context.Background())
	}()
	<-src.started

	st := v.Refresh(context.Background())
	require.Len(t, st.Items, 1)
	assert.Equal(t, "new", st.Items[0].ID)

	close(src.release)
	wg.Wait()

	st = v.Snapshot()
	require.Len(t, st.Items, 1)
	assert.Equal(t, "new", st.Items[0].ID)
	assert.False(t, st.Loading)
}

func TestViewAppendAndRemove(t *testing.T) {
	src := &fakeSource{items: []model.Item{{ID: "i1", OwnerID: ptr("u1")}}, users: []model.User{jane}}
	v := NewView(NewLoader(src))
	v.Refresh(context.Background())

	v.Append(model.Item{ID: "i2", OwnerID: ptr("u1")}, model.Item{ID: "i1"}, model.Item{ID: "i3", OwnerID: ptr("zz")})
	st := v.Snapshot()
	require.Len(t, st.Items, 3)
	assert.Equal(t, "Jane Doe", st.Items[1].Owner)
	assert.Equal(t, UnknownOwner, st.Items[2].Owner)

	v.Remove("i1", "i3")
	st = v.Snapshot()
	require.Len(t, st.Items, 1)
	assert.Equal(t, "i2", st.Items[0].ID)
}

func TestViewReplaceKeepsPosition(t *testing.T) {
	src := &fakeSource{
		items: []model.Item{{ID: "i1", Name: "A"}, {ID: "i2", Name: "B"}},
		users: []model.User{jane, john},
	}
	v := NewView(NewLoader(src))
	v.Refresh(context.Background())

	v.Replace(model.Item{ID: "i1", Name: "A2", OwnerID: ptr("u2")})
	v.Replace(model.Item{ID: "i9", Name: "C"})
	st := v.Snapshot()
	require.Len(t, st.Items, 3)
	assert.Equal(t, "A2", st.Items[0].Name)
	assert.Equal(t, "John Smith", st.Items[0].Owner)
	assert.Equal(t, "i9", st.Items[2].ID)
}

func TestSnapshotIsACopy(t *testing.T) {
	src := &fakeSource{items: []model.Item{{ID: "i1", Name: "A"}}}
	v := NewView(NewLoader(src))
	v.Refresh(context.Background())

	st := v.Snapshot()
	st.Items[0].Name = "changed"
	assert.Equal(t, "A", v.Snapshot().Items[0].Name)
}

func TestImportNotice(t *testing.T) {
	n := ImportNotice(model.ImportResult{
		Created: make([]model.Item, 2),
		Errors:  []model.ImportError{{Row: 3, Message: "missing name"}},
	})
	assert.Equal(t, "2 items created, 1 rows had errors", n.Message)
	assert.Equal(t, LevelWarning, n.Level)

	n = ImportNotice(model.ImportResult{Created: make([]model.Item, 4)})
	assert.Equal(t, "4 items created", n.Message)
	assert.Equal(t, LevelSuccess, n.Level)
}
