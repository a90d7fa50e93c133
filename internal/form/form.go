// Package form holds the field state of the create and update item forms.
package form

import (
	"net/url"
	"strings"

	"github.com/assetdesk/assetdesk/internal/model"
)

// Form field names, shared with the HTML templates.
const (
	FieldName     = "name"
	FieldCategory = "category"
	FieldSerial1  = "serial_number_1"
	FieldSerial2  = "serial_number_2"
	FieldSerial3  = "serial_number_3"
	FieldOwner    = "owner_id"
	FieldLocation = "location"
	FieldStatus   = "status"
)

// ItemForm is the editable state of an item form.
type ItemForm struct {
	Name          string
	Category      string
	SerialNumber1 string
	SerialNumber2 string
	SerialNumber3 string
	OwnerID       string
	Location      string
	Status        string
}

// Empty returns the blank create form.
func Empty() ItemForm {
	return ItemForm{}
}

// FromItem seeds the update form from an existing item.
func FromItem(item model.Item) ItemForm {
	f := ItemForm{
		Name:          item.Name,
		Category:      item.Category,
		SerialNumber1: item.SerialNumber1,
		Location:      item.Location,
		Status:        item.Status,
	}
	if item.SerialNumber2 != nil {
		f.SerialNumber2 = *item.SerialNumber2
	}
	if item.SerialNumber3 != nil {
		f.SerialNumber3 = *item.SerialNumber3
	}
	if item.OwnerID != nil {
		f.OwnerID = *item.OwnerID
	}
	return f
}

// FromValues reads a submitted HTML form.
func FromValues(v url.Values) ItemForm {
	return ItemForm{
		Name:          v.Get(FieldName),
		Category:      v.Get(FieldCategory),
		SerialNumber1: v.Get(FieldSerial1),
		SerialNumber2: v.Get(FieldSerial2),
		SerialNumber3: v.Get(FieldSerial3),
		OwnerID:       v.Get(FieldOwner),
		Location:      v.Get(FieldLocation),
		Status:        v.Get(FieldStatus),
	}
}

// Missing lists the required fields that are blank, in form order.
func (f ItemForm) Missing() []string {
	var missing []string
	for _, r := range []struct{ field, value string }{
		{FieldName, f.Name},
		{FieldCategory, f.Category},
		{FieldSerial1, f.SerialNumber1},
		{FieldOwner, f.OwnerID},
		{FieldLocation, f.Location},
	} {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.field)
		}
	}
	return missing
}

// Valid reports whether every required field is filled in.
func (f ItemForm) Valid() bool {
	return len(f.Missing()) == 0
}

// CreateRequest builds the create payload. Blank optional serials are sent
// as null.
func (f ItemForm) CreateRequest() model.CreateItemRequest {
	return model.CreateItemRequest{
		Name:          strings.TrimSpace(f.Name),
		Category:      strings.TrimSpace(f.Category),
		SerialNumber1: strings.TrimSpace(f.SerialNumber1),
		SerialNumber2: optional(f.SerialNumber2),
		SerialNumber3: optional(f.SerialNumber3),
		OwnerID:       strings.TrimSpace(f.OwnerID),
		Location:      strings.TrimSpace(f.Location),
	}
}

// UpdateRequest builds the update payload. Every field is sent; a blank
// optional serial is sent as "" which clears it. An empty status leaves the
// status unchanged.
func (f ItemForm) UpdateRequest() model.UpdateItemRequest {
	req := model.UpdateItemRequest{
		Name:          ptr(strings.TrimSpace(f.Name)),
		Category:      ptr(strings.TrimSpace(f.Category)),
		SerialNumber1: ptr(strings.TrimSpace(f.SerialNumber1)),
		SerialNumber2: ptr(strings.TrimSpace(f.SerialNumber2)),
		SerialNumber3: ptr(strings.TrimSpace(f.SerialNumber3)),
		OwnerID:       ptr(strings.TrimSpace(f.OwnerID)),
		Location:      ptr(strings.TrimSpace(f.Location)),
	}
	if s := strings.TrimSpace(f.Status); s != "" {
		req.Status = &s
	}
	return req
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func ptr(s string) *string { return &s }
