package aurion

import (
	"fmt"
	"strconv"
	"time"
)

// Range is the span of the schedule requested from the portal, End is exclusive.
type Range struct {
	Start time.Time
	End   time.Time
}

func (r Range) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("schedule range must have both a start and an end")
	}
	if !r.End.After(r.Start) {
		return fmt.Errorf("schedule range end %s is not after start %s", r.End.Format(time.DateOnly), r.Start.Format(time.DateOnly))
	}
	return nil
}

// SchoolYear returns the school year containing now, running from August 1st
// to the next August 1st in loc.
func SchoolYear(now time.Time, loc *time.Location) Range {
	now = now.In(loc)
	year := now.Year()
	if now.Month() < time.August {
		year--
	}
	start := time.Date(year, time.August, 1, 0, 0, 0, 0, loc)
	return Range{
		Start: start,
		End:   start.AddDate(1, 0, 0),
	}
}

func epochMillis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// browserOffset is what a browser in t's zone reports as its time zone offset,
// in milliseconds, with JavaScript's sign (east of UTC is negative).
func browserOffset(t time.Time) string {
	_, offset := t.Zone()
	return strconv.FormatInt(-int64(offset)*1000, 10)
}
