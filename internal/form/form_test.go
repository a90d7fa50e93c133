package form

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetdesk/assetdesk/internal/model"
)

func filled() ItemForm {
	return ItemForm{
		Name:          "ThinkPad",
		Category:      "Laptop",
		SerialNumber1: "SN-1",
		OwnerID:       "u1",
		Location:      "HQ",
	}
}

func TestEmptyIsInvalid(t *testing.T) {
	f := Empty()
	assert.False(t, f.Valid())
	assert.Equal(t, []string{FieldName, FieldCategory, FieldSerial1, FieldOwner, FieldLocation}, f.Missing())
}

func TestValid(t *testing.T) {
	f := filled()
	assert.True(t, f.Valid())

	f.Location = "   "
	assert.False(t, f.Valid())
	assert.Equal(t, []string{FieldLocation}, f.Missing())

	// Secondary serials are optional.
	f = filled()
	f.SerialNumber2, f.SerialNumber3 = "", ""
	assert.True(t, f.Valid())
}

func TestCreateRequestNullsBlankSerials(t *testing.T) {
	f := filled()
	f.SerialNumber2 = "  "
	f.SerialNumber3 = "SN-3"

	req := f.CreateRequest()
	assert.Nil(t, req.SerialNumber2)
	require.NotNil(t, req.SerialNumber3)
	assert.Equal(t, "SN-3", *req.SerialNumber3)

	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"serial_number_2":null`)
}

func TestFromItemRoundTrip(t *testing.T) {
	s2, owner := "SN-2", "u9"
	item := model.Item{
		Name: "Dell", Category: "Monitor", SerialNumber1: "SN-1", SerialNumber2: &s2,
		OwnerID: &owner, Location: "Remote", Status: model.ItemStatusInRepair,
	}

	f := FromItem(item)
	assert.Equal(t, "SN-2", f.SerialNumber2)
	assert.Equal(t, "", f.SerialNumber3)
	assert.Equal(t, "u9", f.OwnerID)

	req := f.UpdateRequest()
	assert.Equal(t, "Dell", *req.Name)
	assert.Equal(t, "", *req.SerialNumber3)
	assert.Equal(t, model.ItemStatusInRepair, *req.Status)
}

func TestUpdateRequestWithoutStatus(t *testing.T) {
	req := filled().UpdateRequest()
	assert.Nil(t, req.Status)
}

func TestFromValues(t *testing.T) {
	v := url.Values{
		FieldName:     {"ThinkPad"},
		FieldCategory: {"Laptop"},
		FieldSerial1:  {"SN-1"},
		FieldSerial2:  {""},
		FieldOwner:    {"u1"},
		FieldLocation: {"HQ"},
	}
	f := FromValues(v)
	assert.Equal(t, filled(), f)
	assert.True(t, f.Valid())
}
