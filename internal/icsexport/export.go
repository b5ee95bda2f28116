// Package icsexport turns schedule events into iCalendar documents.
package icsexport

import (
	"fmt"
	"os"
	"time"

	"aurioncal/internal/components/chrono"
	"aurioncal/internal/scrapers/aurion"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
)

const (
	DefaultZone = "Europe/Paris"

	productID            = "aurioncal"
	uidDomain            = "@aurioncal"
	localTimestampFormat = "20060102T150405"
)

// timestamp layouts the portal has been seen sending, a layout without an
// offset is read in the calendar's zone
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	time.DateOnly,
}

type options struct {
	location *time.Location
	name     string
	clock    chrono.API
}

type Option func(*options)

// WithLocation sets the zone the calendar declares and writes times in.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		o.location = loc
	}
}

// WithCalendarName sets the name calendar applications display.
func WithCalendarName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithClock sets the clock used for DTSTAMP and for the year the zone's rules
// are taken from.
func WithClock(clock chrono.API) Option {
	return func(o *options) {
		o.clock = clock
	}
}

func resolveOptions(opts []Option) (options, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.location == nil {
		loc, err := time.LoadLocation(DefaultZone)
		if err != nil {
			return options{}, err
		}
		o.location = loc
	}
	if o.clock == nil {
		clock, err := chrono.NewStandardImpl(o.location.String())
		if err != nil {
			return options{}, err
		}
		o.clock = clock
	}
	return o, nil
}

func parseTimestamp(value string, loc *time.Location) (time.Time, error) {
	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, value, loc)
		if err == nil {
			return t.In(loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp %q", value)
}

func eventUID(e aurion.Event) string {
	if e.ID == "" {
		return uuid.NewString() + uidDomain
	}
	return e.ID + uidDomain
}

func addEvent(cal *ics.Calendar, e aurion.Event, o options) error {
	start, err := parseTimestamp(e.Start, o.location)
	if err != nil {
		return fmt.Errorf("event %q start: %w", e.Title, err)
	}
	end := start
	if e.End != "" {
		end, err = parseTimestamp(e.End, o.location)
		if err != nil {
			return fmt.Errorf("event %q end: %w", e.Title, err)
		}
	}

	event := cal.AddEvent(eventUID(e))
	event.SetDtStampTime(o.clock.Now())
	event.SetSummary(e.Title)

	if e.AllDay {
		if !end.After(start) {
			end = start.AddDate(0, 0, 1)
		}
		event.SetAllDayStartAt(start)
		event.SetAllDayEndAt(end)
		return nil
	}

	tzid := ics.WithTZID(o.location.String())
	event.SetProperty(ics.ComponentPropertyDtStart, start.Format(localTimestampFormat), tzid)
	event.SetProperty(ics.ComponentPropertyDtEnd, end.Format(localTimestampFormat), tzid)
	return nil
}

// Build returns a calendar holding one event per entry of events and a
// single time zone declaration.
func Build(events []aurion.Event, opts ...Option) (*ics.Calendar, error) {
	o, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	cal := ics.NewCalendarFor(productID)
	cal.SetCalscale("GREGORIAN")
	cal.SetXWRTimezone(o.location.String())
	if o.name != "" {
		cal.SetXWRCalName(o.name)
	}
	err = addTimezone(cal, o.location, o.clock.Now().In(o.location).Year())
	if err != nil {
		return nil, fmt.Errorf("timezone %s: %w", o.location, err)
	}

	for _, e := range events {
		err := addEvent(cal, e, o)
		if err != nil {
			return nil, err
		}
	}
	return cal, nil
}

// Export writes the calendar of events to path, replacing any existing file.
func Export(events []aurion.Event, path string, opts ...Option) error {
	cal, err := Build(events, opts...)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = cal.SerializeTo(f)
	closeErr := f.Close()
	if err != nil {
		return err
	}
	return closeErr
}
