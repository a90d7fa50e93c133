package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/assetdesk/assetdesk/internal/db"
	"github.com/assetdesk/assetdesk/internal/model"
	"github.com/assetdesk/assetdesk/internal/store"
)

// ItemsHandler handles item CRUD and import endpoints.
type ItemsHandler struct {
	DB      *db.DB
	Metrics *Metrics
}

var errUnknownOwner = errors.New("unknown owner")

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := store.ListItems(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, model.ItemList{Items: items})
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := store.GetItem(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		slog.Error("failed to get item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil || item.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in := store.ItemInput{
		Name:          strings.TrimSpace(req.Name),
		Category:      strings.TrimSpace(req.Category),
		SerialNumber1: strings.TrimSpace(req.SerialNumber1),
		SerialNumber2: trimmedOrNil(req.SerialNumber2),
		SerialNumber3: trimmedOrNil(req.SerialNumber3),
		Location:      strings.TrimSpace(req.Location),
	}
	if msg := missingItemFields(in); msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}

	ownerID, err := h.resolveOwner(r.Context(), req.OwnerID)
	if errors.Is(err, errUnknownOwner) {
		jsonError(w, http.StatusBadRequest, "unknown owner")
		return
	}
	if err != nil {
		slog.Error("failed to resolve owner", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}
	in.OwnerID = ownerID

	item, err := store.CreateItem(r.Context(), h.DB, in)
	if err != nil {
		slog.Error("failed to create item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	slog.Info("item created", "user", userEmail(r), "item", item.ID, "name", item.Name)
	jsonResponse(w, http.StatusCreated, item)
}

// Update handles PATCH /api/items/{id}. Only the fields present in the
// body change.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req model.UpdateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	for _, f := range []struct {
		name  string
		value *string
	}{
		{"name", req.Name},
		{"category", req.Category},
		{"serial_number_1", req.SerialNumber1},
	} {
		if f.value != nil && strings.TrimSpace(*f.value) == "" {
			jsonError(w, http.StatusBadRequest, f.name+" cannot be empty")
			return
		}
	}
	if req.Status != nil && !model.ValidItemStatus(*req.Status) {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}
	if req.OwnerID != nil && *req.OwnerID != "" {
		ownerID, err := h.resolveOwner(r.Context(), *req.OwnerID)
		if errors.Is(err, errUnknownOwner) {
			jsonError(w, http.StatusBadRequest, "unknown owner")
			return
		}
		if err != nil {
			slog.Error("failed to resolve owner", "error", err)
			jsonError(w, http.StatusInternalServerError, "failed to update item")
			return
		}
		req.OwnerID = ownerID
	}

	item, err := store.UpdateItem(r.Context(), h.DB, id, req)
	if errors.Is(err, store.ErrVersionConflict) {
		jsonError(w, http.StatusConflict, "item is being modified, try again")
		return
	}
	if err != nil {
		slog.Error("failed to update item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	slog.Info("item updated", "user", userEmail(r), "item", item.ID, "version", item.Version)
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	deleted, err := store.DeleteItem(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to delete item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}
	if !deleted {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	slog.Info("item deleted", "user", userEmail(r), "item", id)
	w.WriteHeader(http.StatusNoContent)
}

// resolveOwner turns an owner reference (user id or email) into a user id.
// An empty reference means no owner.
func (h *ItemsHandler) resolveOwner(ctx context.Context, ref string) (*string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, nil
	}

	var (
		user *model.User
		err  error
	)
	if strings.Contains(ref, "@") {
		user, err = store.GetUserByEmail(ctx, h.DB, ref)
	} else {
		user, err = store.GetUser(ctx, h.DB, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("resolving owner %q: %w", ref, err)
	}
	if user == nil || user.DeletedAt != nil {
		return nil, errUnknownOwner
	}
	return &user.ID, nil
}

func missingItemFields(in store.ItemInput) string {
	var missing []string
	if in.Name == "" {
		missing = append(missing, "name")
	}
	if in.Category == "" {
		missing = append(missing, "category")
	}
	if in.SerialNumber1 == "" {
		missing = append(missing, "serial_number_1")
	}
	if len(missing) == 0 {
		return ""
	}
	return strings.Join(missing, ", ") + " required"
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func userEmail(r *http.Request) string {
	if claims := GetClaims(r.Context()); claims != nil {
		return claims.Email
	}
	return ""
}
