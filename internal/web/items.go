package web

import (
	"net/http"
	"strings"

	"github.com/assetdesk/assetdesk/internal/client"
	"github.com/assetdesk/assetdesk/internal/form"
	"github.com/assetdesk/assetdesk/internal/inventory"
)

func createDrawer(f form.ItemForm, missing []string) *formView {
	return &formView{Title: "New item", Action: "/items", Submit: "Create", Form: f, Missing: missing}
}

func updateModal(id string, f form.ItemForm, missing []string) *formView {
	return &formView{Title: "Edit item", Action: "/items/" + id, Submit: "Save", ItemID: id, Form: f, Missing: missing}
}

func missingNotice(missing []string) inventory.Notice {
	return inventory.ErrorNotice("Missing fields", "Fill in "+strings.Join(missing, ", ")+".")
}

// ItemNewPage handles GET /items/new: the table with the create drawer open.
func (s *Server) ItemNewPage(w http.ResponseWriter, r *http.Request, sess *session) {
	s.renderInventory(w, r, sess, http.StatusOK, createDrawer(form.Empty(), nil), nil)
}

// ItemCreateSubmit handles POST /items.
func (s *Server) ItemCreateSubmit(w http.ResponseWriter, r *http.Request, sess *session) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	f := form.FromValues(r.PostForm)
	if missing := f.Missing(); len(missing) > 0 {
		sess.setFlash(missingNotice(missing))
		s.renderInventory(w, r, sess, http.StatusUnprocessableEntity, createDrawer(f, missing), nil)
		return
	}

	item, err := sess.api.CreateItem(r.Context(), f.CreateRequest())
	if err != nil {
		if client.IsUnauthorized(err) {
			s.endSession(w, r, sess)
			return
		}
		sess.setFlash(inventory.ErrorNotice("Item not created", client.Message(err)))
		s.renderInventory(w, r, sess, http.StatusBadRequest, createDrawer(f, nil), nil)
		return
	}

	sess.view.Append(*item)
	s.logger.Info("item created", "user", sess.user.Email, "item", item.Name)
	sess.setFlash(inventory.SuccessNotice("Item created", item.Name+" was added to the inventory."))
	http.Redirect(w, r, "/inventory", http.StatusSeeOther)
}

// ItemEditPage handles GET /items/{id}/edit: the table with the update
// modal open, seeded from a fresh copy of the item.
func (s *Server) ItemEditPage(w http.ResponseWriter, r *http.Request, sess *session) {
	id := r.PathValue("id")
	item, err := sess.api.GetItem(r.Context(), id)
	if err != nil {
		if client.IsNotFound(err) {
			sess.view.Remove(id)
			sess.setFlash(inventory.ErrorNotice("Item not found", "The item was deleted in the meantime."))
			http.Redirect(w, r, "/inventory", http.StatusSeeOther)
			return
		}
		s.backendFailed(w, r, sess, "Item not loaded", err, "/inventory")
		return
	}
	s.renderInventory(w, r, sess, http.StatusOK, nil, updateModal(id, form.FromItem(*item), nil))
}

// ItemUpdateSubmit handles POST /items/{id}.
func (s *Server) ItemUpdateSubmit(w http.ResponseWriter, r *http.Request, sess *session) {
	id := r.PathValue("id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	f := form.FromValues(r.PostForm)
	if missing := f.Missing(); len(missing) > 0 {
		sess.setFlash(missingNotice(missing))
		s.renderInventory(w, r, sess, http.StatusUnprocessableEntity, nil, updateModal(id, f, missing))
		return
	}

	item, err := sess.api.UpdateItem(r.Context(), id, f.UpdateRequest())
	if err != nil {
		if client.IsUnauthorized(err) {
			s.endSession(w, r, sess)
			return
		}
		if client.IsNotFound(err) {
			sess.view.Remove(id)
			sess.setFlash(inventory.ErrorNotice("Item not found", "The item was deleted in the meantime."))
			http.Redirect(w, r, "/inventory", http.StatusSeeOther)
			return
		}
		sess.setFlash(inventory.ErrorNotice("Item not saved", client.Message(err)))
		s.renderInventory(w, r, sess, http.StatusBadRequest, nil, updateModal(id, f, nil))
		return
	}

	sess.view.Replace(*item)
	s.logger.Info("item updated", "user", sess.user.Email, "item", item.Name, "status", item.Status)
	sess.setFlash(inventory.SuccessNotice("Item saved", item.Name+" was updated."))
	http.Redirect(w, r, "/inventory", http.StatusSeeOther)
}

// ItemDeleteSubmit handles POST /items/{id}/delete.
func (s *Server) ItemDeleteSubmit(w http.ResponseWriter, r *http.Request, sess *session) {
	id := r.PathValue("id")
	if err := sess.api.DeleteItem(r.Context(), id); err != nil && !client.IsNotFound(err) {
		s.backendFailed(w, r, sess, "Item not deleted", err, "/inventory")
		return
	}

	sess.view.Remove(id)
	sess.mu.Lock()
	if sess.table.Selection.Has(id) {
		sess.table.Selection.Toggle(id)
	}
	sess.mu.Unlock()

	s.logger.Info("item deleted", "user", sess.user.Email, "id", id)
	sess.setFlash(inventory.SuccessNotice("Item deleted", "1 item deleted"))
	http.Redirect(w, r, "/inventory", http.StatusSeeOther)
}
