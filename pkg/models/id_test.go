package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_Int64(t *testing.T) {
	tests := []struct {
		name    string
		raw     any
		want    int64
		wantErr error
	}{
		{name: "json number", raw: json.Number("42"), want: 42},
		{name: "zero", raw: json.Number("0"), want: 0},
		{name: "max int64 number", raw: json.Number("9223372036854775807"), want: math.MaxInt64},
		{name: "overflow number", raw: json.Number("9223372036854775808"), wantErr: ErrIDOutOfRange},
		{name: "negative number", raw: json.Number("-1"), wantErr: ErrIDOutOfRange},
		{name: "fractional number", raw: json.Number("1.5"), wantErr: ErrIDMalformed},
		{name: "digit string", raw: "123", want: 123},
		{name: "zero string", raw: "0", want: 0},
		{name: "max int64 string", raw: "9223372036854775807", want: math.MaxInt64},
		{name: "overflow string", raw: "9223372036854775808", wantErr: ErrIDOutOfRange},
		{name: "leading zero string", raw: "0123", wantErr: ErrIDMalformed},
		{name: "twenty digit string", raw: "12345678901234567890", wantErr: ErrIDMalformed},
		{name: "non numeric string", raw: "abc", wantErr: ErrIDMalformed},
		{name: "native int", raw: 7, want: 7},
		{name: "negative native int", raw: -7, wantErr: ErrIDOutOfRange},
		{name: "uint64 overflow", raw: uint64(math.MaxInt64) + 1, wantErr: ErrIDOutOfRange},
		{name: "null", raw: nil, wantErr: ErrIDMalformed},
		{name: "bool", raw: true, wantErr: ErrIDMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewID(tt.raw).Int64()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestID_IsVariableID(t *testing.T) {
	assert.True(t, NewID("123456").IsVariableID())
	assert.True(t, NewID("0000001").IsVariableID())
	assert.False(t, NewID("12345").IsVariableID())
	assert.False(t, NewID(json.Number("123456")).IsVariableID())
	assert.False(t, NewID("12345a").IsVariableID())
	assert.False(t, ID{}.IsVariableID())
}

func TestID_Equal(t *testing.T) {
	assert.True(t, ID{}.Equal(ID{}))
	assert.True(t, NewID(json.Number("5")).Equal(NewID(5)))
	assert.True(t, NewID("5").Equal(NewID("5")))
	assert.False(t, NewID("5").Equal(NewID(json.Number("5"))))
	assert.False(t, NewID("5").Equal(ID{}))
}

func TestID_JSON(t *testing.T) {
	var holder struct {
		A ID `json:"a,omitzero"`
		B ID `json:"b,omitzero"`
		C ID `json:"c,omitzero"`
	}

	require.NoError(t, decodeJSON([]byte(`{"a": 10, "b": "10"}`), &holder))
	assert.Equal(t, json.Number("10"), holder.A.Raw())
	assert.Equal(t, "10", holder.B.Raw())
	assert.True(t, holder.C.IsZero())

	out, err := json.Marshal(holder)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 10, "b": "10"}`, string(out))
}
