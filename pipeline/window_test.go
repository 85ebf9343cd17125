package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"ig_apify/models"
)

func TestDefaultWindow(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want models.Window
	}{
		{
			"mid month",
			time.Date(2024, 3, 15, 10, 0, 0, 0, tokyo),
			models.Window{Start: "2024-03-01", End: "2024-03-15", StaleCutoff: "2024-02-01 00:00:00"},
		},
		{
			"january rolls back a year",
			time.Date(2024, 1, 5, 0, 30, 0, 0, tokyo),
			models.Window{Start: "2024-01-01", End: "2024-01-05", StaleCutoff: "2023-12-01 00:00:00"},
		},
		{
			"first of month",
			time.Date(2024, 4, 1, 0, 0, 0, 0, tokyo),
			models.Window{Start: "2024-04-01", End: "2024-04-01", StaleCutoff: "2024-03-01 00:00:00"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultWindow(tt.now))
		})
	}
}

func TestDefaultWindow_UsesLocalDate(t *testing.T) {
	// 2024-03-31 20:00 UTC is already April 1st in Tokyo.
	now := time.Date(2024, 3, 31, 20, 0, 0, 0, time.UTC).In(tokyo)
	w := DefaultWindow(now)
	assert.Equal(t, "2024-04-01", w.Start)
	assert.Equal(t, "2024-04-01", w.End)
}

func TestResolveWindow(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, tokyo)

	explicit := ResolveWindow(&models.DispatchParams{ProgramIDs: models.FlexInts{1}, Start: "2023-06-01", End: "2023-06-30"}, now)
	assert.Equal(t, models.Window{Start: "2023-06-01", End: "2023-06-30", StaleCutoff: "2024-02-01 00:00:00"}, explicit)

	loneStart := ResolveWindow(&models.DispatchParams{ProgramIDs: models.FlexInts{1}, Start: "2023-06-01"}, now)
	assert.Equal(t, DefaultWindow(now), loneStart)

	assert.Equal(t, DefaultWindow(now), ResolveWindow(nil, now))
}
