package entity

import (
	"encoding/json"
	"fmt"
)

// ReleaseDate is a calendar date as printed in a release caption.
// Fields are range-checked only; month length is not cross-checked, so a
// caption announcing "31 février" keeps that exact day instead of rolling
// into March the way time.Date would.
type ReleaseDate struct {
	Year  int
	Month int
	Day   int
}

// String formats the date as YYYY-MM-DD.
func (d ReleaseDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Before reports whether d falls strictly before other.
func (d ReleaseDate) Before(other ReleaseDate) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// Release is one discovered tool release.
type Release struct {
	BuildID     string
	ReleaseDate ReleaseDate
	DownloadURL string
}

// releaseJSON is the wire form served over HTTP and printed by the CLI.
type releaseJSON struct {
	Version string `json:"version"`
	Date    string `json:"date"`
	URL     string `json:"url"`
}

// MarshalJSON implements json.Marshaler.
func (r Release) MarshalJSON() ([]byte, error) {
	return json.Marshal(releaseJSON{
		Version: r.BuildID,
		Date:    r.ReleaseDate.String(),
		URL:     r.DownloadURL,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Release) UnmarshalJSON(data []byte) error {
	var raw releaseJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var d ReleaseDate
	if _, err := fmt.Sscanf(raw.Date, "%4d-%2d-%2d", &d.Year, &d.Month, &d.Day); err != nil {
		return fmt.Errorf("invalid release date %q: %w", raw.Date, err)
	}
	r.BuildID = raw.Version
	r.ReleaseDate = d
	r.DownloadURL = raw.URL
	return nil
}

// AnnouncementBlock pairs a raw version caption with the download link found
// in the same structural unit of the source page.
type AnnouncementBlock struct {
	Caption string
	Link    string
}
