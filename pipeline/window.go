package pipeline

import (
	"time"

	"ig_apify/models"
)

// DefaultWindow covers the first day of now's month through today, in
// now's location.
func DefaultWindow(now time.Time) models.Window {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return models.Window{
		Start:       first.Format(models.DateLayout),
		End:         now.Format(models.DateLayout),
		StaleCutoff: StaleCutoff(now),
	}
}

// ResolveWindow applies an explicit start/end pair when both are present
// and falls back to the default window otherwise.
func ResolveWindow(params *models.DispatchParams, now time.Time) models.Window {
	if params == nil || !params.HasWindow() {
		return DefaultWindow(now)
	}
	return models.Window{
		Start:       params.Start,
		End:         params.End,
		StaleCutoff: StaleCutoff(now),
	}
}

// StaleCutoff is midnight on the first day of the previous calendar month.
// Rows last scraped at or before it are due again.
func StaleCutoff(now time.Time) string {
	prev := time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, now.Location())
	return prev.Format(models.TimestampLayout)
}
