package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/assetdesk/assetdesk/internal/db"
	"github.com/assetdesk/assetdesk/internal/model"
)

const itemColumns = `id, name, category, serial_number_1, serial_number_2, serial_number_3,
		owner_id, location, status, version, created_at, updated_at, deleted_at`

// ItemInput holds the writable fields of an item.
type ItemInput struct {
	Name          string
	Category      string
	SerialNumber1 string
	SerialNumber2 *string
	SerialNumber3 *string
	OwnerID       *string
	Location      string
}

// CreateItem creates a new item with status "available".
func CreateItem(ctx context.Context, d *db.DB, in ItemInput) (*model.Item, error) {
	id := uuid.NewString()
	now := time.Now().UTC()

	_, err := d.ExecContext(ctx, d.Rebind(
		`INSERT INTO items (id, name, category, serial_number_1, serial_number_2, serial_number_3,
		                    owner_id, location, status, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`),
		id, in.Name, in.Category, in.SerialNumber1, in.SerialNumber2, in.SerialNumber3,
		in.OwnerID, in.Location, model.ItemStatusAvailable, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	return GetItem(ctx, d, id)
}

// GetItem returns an item by ID, including soft-deleted items.
func GetItem(ctx context.Context, d *db.DB, id string) (*model.Item, error) {
	row := d.QueryRowContext(ctx, d.Rebind(`SELECT `+itemColumns+` FROM items WHERE id = ?`), id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns all non-deleted items, oldest first.
func ListItems(ctx context.Context, d *db.DB) ([]model.Item, error) {
	rows, err := d.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE deleted_at IS NULL ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// ErrVersionConflict is returned when an item kept changing underneath an
// update for maxUpdateAttempts tries.
var ErrVersionConflict = errors.New("item was modified concurrently")

const maxUpdateAttempts = 5

// UpdateItem applies the non-nil fields of req to an item and bumps its
// version. The write only succeeds against the version that was read; on a
// lost race the item is read again and req reapplied. It returns the
// updated item, or nil if the item does not exist.
func UpdateItem(ctx context.Context, d *db.DB, id string, req model.UpdateItemRequest) (*model.Item, error) {
	for range maxUpdateAttempts {
		item, err := GetItem(ctx, d, id)
		if err != nil {
			return nil, err
		}
		if item == nil || item.DeletedAt != nil {
			return nil, nil
		}

		applyUpdate(item, req)
		ok, err := writeItem(ctx, d, item)
		if err != nil {
			return nil, err
		}
		if ok {
			return GetItem(ctx, d, id)
		}
	}
	return nil, fmt.Errorf("updating item %s: %w", id, ErrVersionConflict)
}

func applyUpdate(item *model.Item, req model.UpdateItemRequest) {
	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Category != nil {
		item.Category = *req.Category
	}
	if req.SerialNumber1 != nil {
		item.SerialNumber1 = *req.SerialNumber1
	}
	if req.SerialNumber2 != nil {
		item.SerialNumber2 = emptyToNil(*req.SerialNumber2)
	}
	if req.SerialNumber3 != nil {
		item.SerialNumber3 = emptyToNil(*req.SerialNumber3)
	}
	if req.OwnerID != nil {
		item.OwnerID = emptyToNil(*req.OwnerID)
	}
	if req.Location != nil {
		item.Location = *req.Location
	}
	if req.Status != nil {
		item.Status = *req.Status
	}
}

// writeItem stores item if its row is still at item.Version. It reports
// false when another write got there first.
func writeItem(ctx context.Context, d *db.DB, item *model.Item) (bool, error) {
	result, err := d.ExecContext(ctx, d.Rebind(
		`UPDATE items SET name = ?, category = ?, serial_number_1 = ?, serial_number_2 = ?,
		        serial_number_3 = ?, owner_id = ?, location = ?, status = ?,
		        version = version + 1, updated_at = ?
		 WHERE id = ? AND version = ? AND deleted_at IS NULL`),
		item.Name, item.Category, item.SerialNumber1, item.SerialNumber2,
		item.SerialNumber3, item.OwnerID, item.Location, item.Status,
		time.Now().UTC(), item.ID, item.Version,
	)
	if err != nil {
		return false, fmt.Errorf("updating item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("updating item: %w", err)
	}
	return n > 0, nil
}

// DeleteItem soft-deletes an item. It reports whether an active item was
// deleted.
func DeleteItem(ctx context.Context, d *db.DB, id string) (bool, error) {
	result, err := d.ExecContext(ctx, d.Rebind(
		`UPDATE items SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`),
		time.Now().UTC(), id,
	)
	if err != nil {
		return false, fmt.Errorf("deleting item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting item: %w", err)
	}
	return n > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*model.Item, error) {
	item := &model.Item{}
	var serial2, serial3, ownerID sql.NullString
	err := s.Scan(&item.ID, &item.Name, &item.Category, &item.SerialNumber1, &serial2, &serial3,
		&ownerID, &item.Location, &item.Status, &item.Version, &item.CreatedAt, &item.UpdatedAt, &item.DeletedAt)
	if err != nil {
		return nil, err
	}
	item.SerialNumber2 = nullToPtr(serial2)
	item.SerialNumber3 = nullToPtr(serial3)
	item.OwnerID = nullToPtr(ownerID)
	return item, nil
}

func nullToPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func emptyToNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
