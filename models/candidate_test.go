package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchEvent_Unmarshal(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		params *DispatchParams
	}{
		{
			name:   "no parameters",
			body:   `{}`,
			params: nil,
		},
		{
			name:   "null parameters",
			body:   `{"queryStringParameters":null}`,
			params: nil,
		},
		{
			name: "numbers",
			body: `{"queryStringParameters":{"programIds":[1,2],"start":"2024-03-01","end":"2024-03-31","limit":10,"offset":5}}`,
			params: &DispatchParams{
				ProgramIDs: FlexInts{1, 2},
				Start:      "2024-03-01",
				End:        "2024-03-31",
				Limit:      flexPtr(10),
				Offset:     flexPtr(5),
			},
		},
		{
			name: "query string values",
			body: `{"queryStringParameters":{"programIds":"7","limit":"3"}}`,
			params: &DispatchParams{
				ProgramIDs: FlexInts{7},
				Limit:      flexPtr(3),
			},
		},
		{
			name: "mixed array",
			body: `{"queryStringParameters":{"programIds":["4", 5]}}`,
			params: &DispatchParams{
				ProgramIDs: FlexInts{4, 5},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ev DispatchEvent
			require.NoError(t, json.Unmarshal([]byte(tt.body), &ev))
			assert.Equal(t, tt.params, ev.QueryStringParameters)
		})
	}
}

func TestDispatchEvent_UnmarshalRejectsNonIntegers(t *testing.T) {
	for _, body := range []string{
		`{"queryStringParameters":{"programIds":["x"]}}`,
		`{"queryStringParameters":{"programIds":[1],"limit":"ten"}}`,
		`{"queryStringParameters":{"programIds":[1.5]}}`,
	} {
		var ev DispatchEvent
		err := json.Unmarshal([]byte(body), &ev)
		assert.ErrorIs(t, err, ErrInvalidParams, body)
	}
}

func TestDispatchParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  DispatchParams
		wantErr bool
	}{
		{"ids only", DispatchParams{ProgramIDs: FlexInts{1}}, false},
		{"full window", DispatchParams{ProgramIDs: FlexInts{1}, Start: "2024-03-01", End: "2024-03-31"}, false},
		{"single day", DispatchParams{ProgramIDs: FlexInts{1}, Start: "2024-03-01", End: "2024-03-01"}, false},
		{"lone start ignored", DispatchParams{ProgramIDs: FlexInts{1}, Start: "garbage"}, false},
		{"no ids", DispatchParams{Start: "2024-03-01", End: "2024-03-31"}, true},
		{"bad start", DispatchParams{ProgramIDs: FlexInts{1}, Start: "03/01/2024", End: "2024-03-31"}, true},
		{"end before start", DispatchParams{ProgramIDs: FlexInts{1}, Start: "2024-03-31", End: "2024-03-01"}, true},
		{"negative limit", DispatchParams{ProgramIDs: FlexInts{1}, Limit: flexPtr(-1)}, true},
		{"negative offset", DispatchParams{ProgramIDs: FlexInts{1}, Offset: flexPtr(-1)}, true},
		{"zero limit", DispatchParams{ProgramIDs: FlexInts{1}, Limit: flexPtr(0)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidParams)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFlexIntPtr(t *testing.T) {
	var f *FlexInt
	assert.Nil(t, f.IntPtr())

	p := flexPtr(42).IntPtr()
	require.NotNil(t, p)
	assert.Equal(t, 42, *p)
}

func flexPtr(v int) *FlexInt {
	f := FlexInt(v)
	return &f
}
