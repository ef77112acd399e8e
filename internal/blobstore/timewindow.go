package blobstore

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Window is a UTC time range used to narrow a blob listing. End is
// treated inclusively at hour granularity (see FilterByWindow).
type Window struct {
	Start time.Time
	End   time.Time
}

// LastMinutes returns the window covering the past n minutes of UTC time.
func LastMinutes(n int) Window {
	now := time.Now().UTC()
	return Window{Start: now.Add(-time.Duration(n) * time.Minute), End: now}
}

// Partition holds the date fields recovered from a blob's path.
type Partition struct {
	Year, Month, Day, Hour int
	Minute                 int
	HasMinute              bool
}

// HourStart returns the start of the UTC clock hour the partition names.
func (p Partition) HourStart() time.Time {
	return time.Date(p.Year, time.Month(p.Month), p.Day, p.Hour, 0, 0, 0, time.UTC)
}

// hierarchical partition segments look like y=2024, m=03, d=15, h=09,
// m=30. The key "m" appears twice (month, then minute) and is resolved
// by schema order, not by regex position.
var partitionSegment = regexp.MustCompile(`^([A-Za-z]+)=(\d{1,4})$`)

// legacyPartition matches the flat /YYYY/MM/DD/HH/ scheme.
var legacyPartition = regexp.MustCompile(`/(\d{4})/(\d{2})/(\d{2})/(\d{2})/`)

// FilterByWindow keeps the blob URLs whose encoded partition hour
// overlaps w. A nil window disables filtering.
//
// Each blob is assumed to cover its full UTC clock hour [HH:00:00,
// HH:59:59] regardless of any minute field; the upstream partitioning
// scheme aggregates an hour of data per file. This assumption breaks
// if upstream ever emits sub-hour files.
//
// URLs with no recognizable date segments are kept (fail open) so that
// unexpected naming never silently loses data.
func FilterByWindow(urls []string, w *Window) []string {
	if w == nil {
		return urls
	}

	kept := make([]string, 0, len(urls))
	for _, blobURL := range urls {
		part, ok := ParsePartition(blobURL)
		if !ok {
			kept = append(kept, blobURL)
			continue
		}
		hourStart := part.HourStart()
		hourEnd := hourStart.Add(time.Hour - time.Second)
		if !hourEnd.Before(w.Start) && !hourStart.After(w.End) {
			kept = append(kept, blobURL)
		}
	}
	return kept
}

// ParsePartition extracts the date partition from a blob URL. It tries
// the hierarchical y=/m=/d=/h=/m= scheme first, then the flat legacy
// /YYYY/MM/DD/HH/ layout. ok is false when neither matches.
func ParsePartition(blobURL string) (Partition, bool) {
	path := blobURL
	if u, err := url.Parse(blobURL); err == nil && u.Path != "" {
		path = u.Path
	}

	if p, ok := hierarchicalPartition(path); ok {
		return p, true
	}
	if m := legacyPartition.FindStringSubmatch(path); m != nil {
		return Partition{
			Year:  atoi(m[1]),
			Month: atoi(m[2]),
			Day:   atoi(m[3]),
			Hour:  atoi(m[4]),
		}, true
	}
	return Partition{}, false
}

// hierarchicalPartition walks the path segments in order, collecting
// key=value pairs and assigning them by schema order: y, then the first
// m after it is the month, then d, h, and a second m is the minute.
func hierarchicalPartition(path string) (Partition, bool) {
	var p Partition
	sawYear, sawMonth, sawDay, sawHour := false, false, false, false

	for _, segment := range strings.Split(path, "/") {
		m := partitionSegment.FindStringSubmatch(segment)
		if m == nil {
			continue
		}
		key := strings.ToLower(m[1])
		value := atoi(m[2])

		switch key {
		case "y":
			if !sawYear {
				p.Year = value
				sawYear = true
			}
		case "m":
			switch {
			case !sawYear:
				// A minute-or-month segment before the year is not
				// part of the schema.
			case !sawMonth:
				p.Month = value
				sawMonth = true
			case !p.HasMinute:
				p.Minute = value
				p.HasMinute = true
			}
		case "d":
			if sawYear && !sawDay {
				p.Day = value
				sawDay = true
			}
		case "h":
			if sawYear && !sawHour {
				p.Hour = value
				sawHour = true
			}
		}
	}

	if sawYear && sawMonth && sawDay && sawHour {
		return p, true
	}
	return Partition{}, false
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
