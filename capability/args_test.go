package capability

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgs_Int64(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		want    int64
		wantOK  bool
		wantErr bool
	}{
		{"absent", nil, 0, false, false},
		{"float", float64(42), 42, true, false},
		{"fractional", 4.5, 0, true, true},
		{"int", 7, 7, true, false},
		{"json number", json.Number("12"), 12, true, false},
		{"string", " 99 ", 99, true, false},
		{"garbage", "abc", 0, true, true},
		{"bool", true, 0, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := Args{}
			if tt.value != nil {
				args["n"] = tt.value
			}
			got, ok, err := args.Int64("n")
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidParameter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestArgs_RequireInt64(t *testing.T) {
	_, err := Args{}.RequireInt64("id")
	assert.ErrorIs(t, err, ErrMissingParameter)

	id, err := Args{"id": float64(3)}.RequireInt64("id")
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)
}

func TestArgs_Collections(t *testing.T) {
	var args Args
	require.NoError(t, json.Unmarshal([]byte(`{
		"ids": [1, 2, 3],
		"bad": [1, "x"],
		"tags": ["a", 5, "b"],
		"fields": {"job_title": "Lead"},
		"name": "  ",
		"flag": true
	}`), &args))

	ids, err := args.Int64s("ids")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)

	_, err = args.Int64s("bad")
	assert.ErrorIs(t, err, ErrInvalidParameter)

	assert.Equal(t, []string{"a", "b"}, args.Strings("tags"))
	assert.Equal(t, map[string]interface{}{"job_title": "Lead"}, args.Object("fields"))
	assert.Nil(t, args.Object("missing"))

	_, ok := args.String("name")
	assert.False(t, ok, "blank strings count as absent")
	assert.Equal(t, "fallback", args.StringOr("name", "fallback"))

	flag, ok := args.Bool("flag")
	assert.True(t, ok)
	assert.True(t, flag)
}
