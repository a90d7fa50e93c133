package model

import "time"

// Item represents a single tracked asset (a laptop, a monitor, ...).
type Item struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	SerialNumber1 string    `json:"serial_number_1"`
	SerialNumber2 *string   `json:"serial_number_2"`
	SerialNumber3 *string   `json:"serial_number_3"`
	OwnerID       *string   `json:"owner_id"`
	Location      string    `json:"location"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Version       int       `json:"version"`

	DeletedAt *time.Time `json:"-"`
}

// Item statuses.
const (
	ItemStatusAvailable = "available"
	ItemStatusAssigned  = "assigned"
	ItemStatusInRepair  = "in_repair"
	ItemStatusRetired   = "retired"
)

// ValidItemStatus reports whether status is one of the known item statuses.
func ValidItemStatus(status string) bool {
	switch status {
	case ItemStatusAvailable, ItemStatusAssigned, ItemStatusInRepair, ItemStatusRetired:
		return true
	}
	return false
}

// Categories offered by the item forms. Imports may use other values.
var Categories = []string{
	"Laptop",
	"Desktop",
	"Monitor",
	"Keyboard",
	"Mouse",
	"Tablet",
	"Phone",
	"Printer",
	"Server",
	"Router",
}

// CreateItemRequest is the body of POST /items.
type CreateItemRequest struct {
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	SerialNumber1 string  `json:"serial_number_1"`
	SerialNumber2 *string `json:"serial_number_2"`
	SerialNumber3 *string `json:"serial_number_3"`
	OwnerID       string  `json:"owner_id"`
	Location      string  `json:"location"`
}

// UpdateItemRequest is the body of PATCH /items/{id}. Nil fields are left
// unchanged.
type UpdateItemRequest struct {
	Name          *string `json:"name,omitempty"`
	Category      *string `json:"category,omitempty"`
	SerialNumber1 *string `json:"serial_number_1,omitempty"`
	SerialNumber2 *string `json:"serial_number_2,omitempty"`
	SerialNumber3 *string `json:"serial_number_3,omitempty"`
	OwnerID       *string `json:"owner_id,omitempty"`
	Location      *string `json:"location,omitempty"`
	Status        *string `json:"status,omitempty"`
}

// ItemList is the envelope returned by GET /items.
type ItemList struct {
	Items []Item `json:"items"`
}

// ImportError describes one rejected row of an import file.
type ImportError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult is returned by POST /items/import.
type ImportResult struct {
	Created []Item        `json:"created"`
	Errors  []ImportError `json:"errors"`
}
