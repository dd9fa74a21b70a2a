package service

// Default values
const (
	// DefaultBackfillDays is how far back a backfill starts when there is
	// no bookmark and no explicit start date
	DefaultBackfillDays = 30

	// RecentRunsLimit caps the run history shown in the viewer
	RecentRunsLimit = 30
)
