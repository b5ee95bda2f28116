package icsexport

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"
)

// transition is one change of UTC offset of a zone.
type transition struct {
	from  int
	to    int
	name  string
	dst   bool
	month time.Month
	day   time.Weekday
	// -1 for the last week of the month
	nth int
	// time of day the change happens at, in the old offset
	wallTime time.Duration
}

func offsetAt(loc *time.Location, unix int64) int {
	_, offset := time.Unix(unix, 0).In(loc).Zone()
	return offset
}

// findTransitions returns the offset changes of loc during year, at most one
// per month.
func findTransitions(loc *time.Location, year int) []transition {
	var out []transition
	for month := time.January; month <= time.December; month++ {
		lo := time.Date(year, month, 1, 0, 0, 0, 0, loc).Unix()
		hi := time.Date(year, month+1, 1, 0, 0, 0, 0, loc).Unix()
		from := offsetAt(loc, lo)
		if from == offsetAt(loc, hi) {
			continue
		}
		for hi-lo > 1 {
			mid := lo + (hi-lo)/2
			if offsetAt(loc, mid) == from {
				lo = mid
			} else {
				hi = mid
			}
		}

		at := time.Unix(hi, 0).In(loc)
		name, to := at.Zone()
		wall := time.Unix(hi, 0).In(time.FixedZone("", from))
		nth := (wall.Day()-1)/7 + 1
		if wall.Day()+7 > daysIn(wall.Month(), wall.Year()) {
			nth = -1
		}
		out = append(out, transition{
			from:     from,
			to:       to,
			name:     name,
			dst:      at.IsDST(),
			month:    wall.Month(),
			day:      wall.Weekday(),
			nth:      nth,
			wallTime: time.Duration(wall.Hour())*time.Hour + time.Duration(wall.Minute())*time.Minute + time.Duration(wall.Second())*time.Second,
		})
	}
	return out
}

func daysIn(month time.Month, year int) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// weekdays maps time.Weekday to the rrule weekday.
var weekdays = [...]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// yearly is the rule the transition repeats on every year.
func (t transition) yearly() rrule.ROption {
	return rrule.ROption{
		Freq:      rrule.YEARLY,
		Bymonth:   []int{int(t.month)},
		Byweekday: []rrule.Weekday{weekdays[t.day].Nth(t.nth)},
	}
}

// firstOnset is the first date in 1970 matching the transition's yearly rule.
func (t transition) firstOnset() (time.Time, error) {
	opt := t.yearly()
	opt.Dtstart = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC).Add(t.wallTime)
	opt.Count = 1
	r, err := rrule.NewRRule(opt)
	if err != nil {
		return time.Time{}, err
	}
	onsets := r.All()
	if len(onsets) == 0 {
		return time.Time{}, fmt.Errorf("no onset for transition to %s", t.name)
	}
	return onsets[0], nil
}

func (t transition) recurrence() string {
	opt := t.yearly()
	return opt.RRuleString()
}

func formatOffset(seconds int) string {
	sign := '+'
	if seconds < 0 {
		sign = '-'
		seconds = -seconds
	}
	return fmt.Sprintf("%c%02d%02d", sign, seconds/3600, (seconds%3600)/60)
}

func setTransitionProperties(cb *ics.ComponentBase, start time.Time, from, to int, name string) {
	cb.SetProperty(ics.ComponentPropertyDtStart, start.Format(localTimestampFormat))
	cb.SetProperty(ics.ComponentProperty(ics.PropertyTzoffsetfrom), formatOffset(from))
	cb.SetProperty(ics.ComponentProperty(ics.PropertyTzoffsetto), formatOffset(to))
	cb.SetProperty(ics.ComponentProperty(ics.PropertyTzname), name)
}

// addTimezone declares loc in cal, with the daylight saving rules loc
// follows during year.
func addTimezone(cal *ics.Calendar, loc *time.Location, year int) error {
	tz := cal.AddTimezone(loc.String())

	transitions := findTransitions(loc, year)
	if len(transitions) == 0 {
		name, offset := time.Date(year, time.January, 1, 0, 0, 0, 0, loc).Zone()
		standard := tz.AddStandard()
		setTransitionProperties(&standard.ComponentBase, time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC), offset, offset, name)
		return nil
	}

	for _, t := range transitions {
		var cb *ics.ComponentBase
		if t.dst {
			daylight := &ics.Daylight{}
			tz.Components = append(tz.Components, daylight)
			cb = &daylight.ComponentBase
		} else {
			cb = &tz.AddStandard().ComponentBase
		}
		onset, err := t.firstOnset()
		if err != nil {
			return err
		}
		setTransitionProperties(cb, onset, t.from, t.to, t.name)
		cb.SetProperty(ics.ComponentProperty(ics.PropertyRrule), t.recurrence())
	}
	return nil
}
