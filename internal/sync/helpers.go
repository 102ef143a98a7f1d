package sync

import "time"

// parseTimePtr tolerates the catalog's handful of ISO-8601 shapes (with
// and without fractional seconds) and returns nil rather than an error for
// blank or unparsable values — a missing date is common for markets with
// no scheduled end.
func parseTimePtr(s string) *time.Time {
	if s == "" {
		return nil
	}
	layouts := []string{time.RFC3339, time.RFC3339Nano, "2006-01-02T15:04:05Z", "2006-01-02"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
