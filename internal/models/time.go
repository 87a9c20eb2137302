package models

import "time"

// WIBNow returns the current time shifted to UTC+7 wall clock. The production
// data was written with the offset baked into the stored value (not a
// timezone-aware timestamp), so new rows keep the same convention to stay
// comparable with existing ones.
func WIBNow() time.Time {
	return time.Now().UTC().Add(7 * time.Hour)
}
