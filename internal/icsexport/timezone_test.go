package icsexport

import (
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/require"
	"github.com/teambition/rrule-go"
)

type rule struct {
	dst     bool
	dtstart string
	from    string
	to      string
	name    string
	rrule   string
}

// canonicalRule renders raw the way rrule-go writes it, so "2SU" and "+2SU" compare equal.
func canonicalRule(t testing.TB, raw string) string {
	if raw == "" {
		return ""
	}
	opt, err := rrule.StrToROption(raw)
	if err != nil {
		t.Fatal(err)
	}
	return opt.RRuleString()
}

func timezoneRules(t testing.TB, zone string, year int) []rule {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		t.Fatal(err)
	}
	cal := ics.NewCalendarFor(productID)
	require.NoError(t, addTimezone(cal, loc, year))

	timezones := cal.Timezones()
	require.Len(t, timezones, 1)

	var rules []rule
	for _, c := range timezones[0].Components {
		var cb *ics.ComponentBase
		r := rule{}
		switch c := c.(type) {
		case *ics.Daylight:
			cb = &c.ComponentBase
			r.dst = true
		case *ics.Standard:
			cb = &c.ComponentBase
		default:
			t.Fatalf("unexpected component %T", c)
		}
		value := func(prop ics.ComponentProperty) string {
			p := cb.GetProperty(prop)
			if p == nil {
				return ""
			}
			return p.Value
		}
		r.dtstart = value(ics.ComponentPropertyDtStart)
		r.from = value(ics.ComponentProperty(ics.PropertyTzoffsetfrom))
		r.to = value(ics.ComponentProperty(ics.PropertyTzoffsetto))
		r.name = value(ics.ComponentProperty(ics.PropertyTzname))
		r.rrule = canonicalRule(t, value(ics.ComponentProperty(ics.PropertyRrule)))
		rules = append(rules, r)
	}
	return rules
}

func TestTimezoneParis(t *testing.T) {
	require.Equal(t, []rule{
		{dst: true, dtstart: "19700329T020000", from: "+0100", to: "+0200", name: "CEST", rrule: canonicalRule(t, "FREQ=YEARLY;BYMONTH=3;BYDAY=-1SU")},
		{dst: false, dtstart: "19701025T030000", from: "+0200", to: "+0100", name: "CET", rrule: canonicalRule(t, "FREQ=YEARLY;BYMONTH=10;BYDAY=-1SU")},
	}, timezoneRules(t, "Europe/Paris", 2024))
}

func TestTimezoneNewYork(t *testing.T) {
	require.Equal(t, []rule{
		{dst: true, dtstart: "19700308T020000", from: "-0500", to: "-0400", name: "EDT", rrule: canonicalRule(t, "FREQ=YEARLY;BYMONTH=3;BYDAY=2SU")},
		{dst: false, dtstart: "19701101T020000", from: "-0400", to: "-0500", name: "EST", rrule: canonicalRule(t, "FREQ=YEARLY;BYMONTH=11;BYDAY=1SU")},
	}, timezoneRules(t, "America/New_York", 2024))
}

func TestTimezoneWithoutDST(t *testing.T) {
	require.Equal(t, []rule{
		{dtstart: "19700101T000000", from: "+0900", to: "+0900", name: "JST"},
	}, timezoneRules(t, "Asia/Tokyo", 2024))
}

func TestTransitionRule(t *testing.T) {
	last := transition{month: time.March, day: time.Sunday, nth: -1, wallTime: 2 * time.Hour}
	opt, err := rrule.StrToROption(last.recurrence())
	require.NoError(t, err)
	require.Equal(t, rrule.YEARLY, opt.Freq)
	require.Equal(t, []int{3}, opt.Bymonth)
	require.Equal(t, []rrule.Weekday{rrule.SU.Nth(-1)}, opt.Byweekday)

	onset, err := last.firstOnset()
	require.NoError(t, err)
	require.Equal(t, time.Date(1970, time.March, 29, 2, 0, 0, 0, time.UTC), onset)

	second := transition{month: time.March, day: time.Sunday, nth: 2, wallTime: 2 * time.Hour}
	onset, err = second.firstOnset()
	require.NoError(t, err)
	require.Equal(t, time.Date(1970, time.March, 8, 2, 0, 0, 0, time.UTC), onset)
}

func TestFormatOffset(t *testing.T) {
	require.Equal(t, "+0530", formatOffset(5*3600+30*60))
	require.Equal(t, "-0330", formatOffset(-(3*3600 + 30*60)))
	require.Equal(t, "+0000", formatOffset(0))
}
