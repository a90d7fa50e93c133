// Package inventory composes backend items and the user directory into the
// rows the inventory table renders.
package inventory

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/assetdesk/assetdesk/internal/model"
)

// UnknownOwner is shown when an item has no owner or its owner could not be
// resolved.
const UnknownOwner = "Unknown"

// Sortable and searchable ViewItem fields.
const (
	FieldName      = "name"
	FieldCategory  = "category"
	FieldSerial1   = "serial_number_1"
	FieldSerial2   = "serial_number_2"
	FieldSerial3   = "serial_number_3"
	FieldOwner     = "owner"
	FieldLocation  = "location"
	FieldStatus    = "status"
	FieldCreatedAt = "created_at"
)

// ViewItem is an item as the inventory table shows it.
type ViewItem struct {
	ID            string
	Name          string
	Category      string
	SerialNumber1 string
	SerialNumber2 string
	SerialNumber3 string
	OwnerID       string
	Owner         string
	OwnerEmail    string
	OwnerInitials string
	Location      string
	Status        string
	CreatedAt     time.Time
}

// NewViewItem maps an item and its resolved owner (nil when unknown).
func NewViewItem(item model.Item, owner *model.User) ViewItem {
	v := ViewItem{
		ID:            item.ID,
		Name:          item.Name,
		Category:      item.Category,
		SerialNumber1: item.SerialNumber1,
		SerialNumber2: deref(item.SerialNumber2),
		SerialNumber3: deref(item.SerialNumber3),
		OwnerID:       deref(item.OwnerID),
		Owner:         UnknownOwner,
		Location:      item.Location,
		Status:        item.Status,
		CreatedAt:     item.CreatedAt,
	}
	if owner != nil {
		v.Owner = owner.Name()
		v.OwnerEmail = owner.Email
		v.OwnerInitials = Initials(owner.Email)
	}
	return v
}

// Key returns the item id.
func (v ViewItem) Key() string { return v.ID }

// Field returns the display string of a named field, or "" for an unknown
// name.
func (v ViewItem) Field(name string) string {
	switch name {
	case FieldName:
		return v.Name
	case FieldCategory:
		return v.Category
	case FieldSerial1:
		return v.SerialNumber1
	case FieldSerial2:
		return v.SerialNumber2
	case FieldSerial3:
		return v.SerialNumber3
	case FieldOwner:
		return v.Owner
	case FieldLocation:
		return v.Location
	case FieldStatus:
		return v.Status
	case FieldCreatedAt:
		if v.CreatedAt.IsZero() {
			return ""
		}
		return v.CreatedAt.UTC().Format(time.RFC3339)
	}
	return ""
}

// Fields returns every value free-text search looks at.
func (v ViewItem) Fields() []string {
	return []string{
		v.ID, v.Name, v.Category,
		v.SerialNumber1, v.SerialNumber2, v.SerialNumber3,
		v.Owner, v.OwnerEmail, v.OwnerInitials,
		v.Location, v.Status, v.Field(FieldCreatedAt),
	}
}

// Initials derives owner initials from an email address: the local part is
// split on '.', and the first letter of each non-empty segment is
// uppercased and joined. "john.doe@example.com" gives "JD".
func Initials(email string) string {
	local, _, _ := strings.Cut(email, "@")
	var b strings.Builder
	for _, part := range strings.Split(local, ".") {
		if part == "" {
			continue
		}
		r, _ := utf8.DecodeRuneInString(part)
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
