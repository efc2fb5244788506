package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequester_RoundTrip(t *testing.T) {
	in := &Requester{
		FirstName:       String("Ann"),
		LastName:        String("Lee"),
		PrimaryEmail:    String("ann@yopmail.com"),
		SecondaryEmails: []string{"ann2@yopmail.com"},
		WorkPhoneNumber: Int64(5551234),
		DepartmentIDs:   []int64{3, 4},
		CanSeeAllTicketsFromAssociatedDepartments: Bool(false),
		TimeFormat:   String("24h"),
		CustomFields: map[string]interface{}{"tier": "gold"},
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Requester
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, &out)
}

func TestRequester_OmitsUnsetFields(t *testing.T) {
	data, err := json.Marshal(NewRequester("Ann", "ann@yopmail.com"))
	require.NoError(t, err)

	assert.JSONEq(t, `{"first_name":"Ann","primary_email":"ann@yopmail.com"}`, string(data))
	assert.NotContains(t, string(data), "null")
}

func TestRequester_Validate(t *testing.T) {
	tests := []struct {
		name    string
		format  *string
		wantErr bool
	}{
		{"unset", nil, false},
		{"12h", String("12h"), false},
		{"24h", String("24h"), false},
		{"invalid", String("13h"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Requester{TimeFormat: tt.format}
			if tt.wantErr {
				assert.ErrorIs(t, r.Validate(), ErrInvalidTimeFormat)
			} else {
				assert.NoError(t, r.Validate())
			}
		})
	}
}

func TestDepartment_OmitsUnsetFields(t *testing.T) {
	data, err := json.Marshal(Department{Name: "Finance", HeadUserID: Int64(9)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Finance","head_user_id":9}`, string(data))
}
