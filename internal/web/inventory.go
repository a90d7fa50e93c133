package web

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/assetdesk/assetdesk/internal/client"
	"github.com/assetdesk/assetdesk/internal/form"
	"github.com/assetdesk/assetdesk/internal/inventory"
	"github.com/assetdesk/assetdesk/internal/model"
	"github.com/assetdesk/assetdesk/internal/table"
)

// column is a sortable inventory table column.
type column struct {
	Field string
	Label string
}

var columns = []column{
	{inventory.FieldName, "Name"},
	{inventory.FieldCategory, "Category"},
	{inventory.FieldSerial1, "Serial number"},
	{inventory.FieldOwner, "Owner"},
	{inventory.FieldLocation, "Location"},
	{inventory.FieldStatus, "Status"},
	{inventory.FieldCreatedAt, "Created"},
}

func sortable(field string) bool {
	return slices.ContainsFunc(columns, func(c column) bool { return c.Field == field })
}

// formView is the create drawer or the update modal.
type formView struct {
	Title   string
	Action  string
	Submit  string
	ItemID  string
	Form    form.ItemForm
	Missing []string

	Users      []model.User
	Categories []string
	Statuses   []string
}

var itemStatuses = []string{
	model.ItemStatusAvailable, model.ItemStatusAssigned,
	model.ItemStatusInRepair, model.ItemStatusRetired,
}

type inventoryPage struct {
	PageData
	Columns       []column
	Rows          []inventory.ViewItem
	Total         int
	Search        string
	SortField     string
	Reversed      bool
	Selected      map[string]bool
	SelectedCount int
	AllSelected   bool
	Indeterminate bool
	LoadError     string
	LoadedAt      time.Time
	CanEdit       bool
	Drawer        *formView
	Modal         *formView
}

// loadInventory returns the session's inventory, loading it on first use.
func (s *Server) loadInventory(ctx context.Context, sess *session) inventory.State {
	st := sess.view.Snapshot()
	if st.LoadedAt.IsZero() {
		st = s.refreshInventory(ctx, sess)
	}
	return st
}

// refreshInventory reloads the inventory and drops selected ids that no
// longer exist.
func (s *Server) refreshInventory(ctx context.Context, sess *session) inventory.State {
	st := sess.view.Refresh(ctx)
	if st.Error == "" {
		sess.mu.Lock()
		sess.table.Selection.Prune(table.Keys(st.Items))
		sess.mu.Unlock()
	}
	return st
}

// renderInventory renders the table, optionally with the create drawer or
// the update modal open.
func (s *Server) renderInventory(w http.ResponseWriter, r *http.Request, sess *session, status int, drawer, modal *formView) {
	st := s.loadInventory(r.Context(), sess)
	if client.IsUnauthorized(st.Err) {
		s.endSession(w, r, sess)
		return
	}

	data := inventoryPage{
		PageData:  page(sess, "Inventory", "inventory"),
		Columns:   columns,
		Total:     len(st.Items),
		LoadError: st.Error,
		LoadedAt:  st.LoadedAt,
		CanEdit:   model.RoleAtLeast(sess.user.Role, model.RoleManager),
		Drawer:    drawer,
		Modal:     modal,
	}
	for _, fv := range []*formView{drawer, modal} {
		if fv != nil {
			fv.Users = st.Users
			fv.Categories = model.Categories
			fv.Statuses = itemStatuses
		}
	}

	sess.mu.Lock()
	rows := table.Visible(sess.table, st.Items)
	visible := table.Keys(rows)
	sel := sess.table.Selection
	data.Rows = rows
	data.Search = sess.table.Search
	data.SortField = sess.table.SortField
	data.Reversed = sess.table.Reversed
	data.Selected = make(map[string]bool, sel.Len())
	for _, id := range sel.IDs() {
		data.Selected[id] = true
	}
	data.SelectedCount = sel.Len()
	data.AllSelected = sel.AllSelected(visible)
	data.Indeterminate = sel.Indeterminate(visible)
	sess.mu.Unlock()

	s.templates.RenderStatus(w, status, "inventory.html", &data)
}

// InventoryPage handles GET /inventory. The q parameter sets the search.
func (s *Server) InventoryPage(w http.ResponseWriter, r *http.Request, sess *session) {
	if q := r.URL.Query(); q.Has("q") {
		sess.mu.Lock()
		sess.table.Search = q.Get("q")
		sess.mu.Unlock()
	}
	s.renderInventory(w, r, sess, http.StatusOK, nil, nil)
}

// InventoryRefresh handles POST /inventory/refresh.
func (s *Server) InventoryRefresh(w http.ResponseWriter, r *http.Request, sess *session) {
	st := s.refreshInventory(r.Context(), sess)
	if client.IsUnauthorized(st.Err) {
		s.endSession(w, r, sess)
		return
	}
	http.Redirect(w, r, "/inventory", http.StatusSeeOther)
}

// InventorySort handles POST /inventory/sort/{field}.
func (s *Server) InventorySort(w http.ResponseWriter, r *http.Request, sess *session) {
	field := r.PathValue("field")
	if !sortable(field) {
		http.Error(w, "unknown sort field", http.StatusBadRequest)
		return
	}
	sess.mu.Lock()
	sess.table.SetSorting(field)
	sess.mu.Unlock()
	http.Redirect(w, r, "/inventory", http.StatusSeeOther)
}

// SelectToggle handles POST /inventory/select/{id}.
func (s *Server) SelectToggle(w http.ResponseWriter, r *http.Request, sess *session) {
	sess.mu.Lock()
	sess.table.Selection.Toggle(r.PathValue("id"))
	sess.mu.Unlock()
	http.Redirect(w, r, "/inventory", http.StatusSeeOther)
}

// SelectAll handles POST /inventory/select-all. It toggles the rows the
// table currently shows.
func (s *Server) SelectAll(w http.ResponseWriter, r *http.Request, sess *session) {
	st := sess.view.Snapshot()
	sess.mu.Lock()
	sess.table.Selection.ToggleAll(table.Keys(table.Visible(sess.table, st.Items)))
	sess.mu.Unlock()
	http.Redirect(w, r, "/inventory", http.StatusSeeOther)
}

// DeleteSelected handles POST /inventory/delete-selected. Items are deleted
// one by one; the ones the backend refused stay selected.
func (s *Server) DeleteSelected(w http.ResponseWriter, r *http.Request, sess *session) {
	sess.mu.Lock()
	ids := sess.table.Selection.IDs()
	sess.mu.Unlock()

	if len(ids) == 0 {
		http.Redirect(w, r, "/inventory", http.StatusSeeOther)
		return
	}

	var deleted []string
	var lastErr error
	for _, id := range ids {
		err := sess.api.DeleteItem(r.Context(), id)
		switch {
		case err == nil, client.IsNotFound(err):
			deleted = append(deleted, id)
		case client.IsUnauthorized(err):
			s.endSession(w, r, sess)
			return
		default:
			lastErr = err
		}
	}

	sess.view.Remove(deleted...)
	sess.mu.Lock()
	sess.table.Selection.Prune(table.Keys(sess.view.Snapshot().Items))
	sess.mu.Unlock()

	s.logger.Info("items deleted", "user", sess.user.Email, "count", len(deleted))
	if lastErr != nil {
		sess.setFlash(inventory.ErrorNotice("Delete failed",
			fmt.Sprintf("%d of %d items deleted: %s", len(deleted), len(ids), client.Message(lastErr))))
	} else {
		sess.setFlash(inventory.SuccessNotice("Items deleted", fmt.Sprintf("%d items deleted", len(deleted))))
	}
	http.Redirect(w, r, "/inventory", http.StatusSeeOther)
}
