// Package export runs the schedule export for a list of users.
package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"aurioncal/internal/components/chrono"
	"aurioncal/internal/components/telemetry"
	"aurioncal/internal/icsexport"
	"aurioncal/internal/scrapers/aurion"
)

const (
	report_runner_authenticate = "runner.authenticate"
	report_runner_export_user  = "runner.export-user"
	report_runner_events       = "runner.events"
)

// Scraper is the part of the portal client the runner needs.
type Scraper interface {
	Authenticate(ctx context.Context, username, password string) error
	FetchSchedule(ctx context.Context, userID string, rng aurion.Range) (aurion.Schedule, error)
}

type Credentials struct {
	Username string
	Password string
}

type Runner struct {
	Scraper   Scraper
	Clock     chrono.API
	Telemetry telemetry.API
	// Console receives the failures a user should see, os.Stdout when nil.
	Console io.Writer
}

func (r Runner) console() io.Writer {
	if r.Console == nil {
		return os.Stdout
	}
	return r.Console
}

func (r Runner) tel() telemetry.API {
	if r.Telemetry == nil {
		return telemetry.NewScopedAPI("export", telemetry.SlogAPI{})
	}
	return telemetry.NewScopedAPI("export", r.Telemetry)
}

var unsafeFilename = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	"\x00", "",
)

// Filename is the file the schedule of displayName is written to.
func Filename(displayName string) string {
	name := strings.TrimSpace(unsafeFilename.Replace(displayName))
	name = strings.Trim(name, ".")
	if name == "" {
		name = "schedule"
	}
	return name + ".ics"
}

// Run logs in once and exports the schedule of every user to outDir.
//
// A transport failure while logging in ends the run, one while exporting a
// user skips that user. Both are printed and do not make Run fail. A page
// that no longer has the expected structure stops the run with an error.
func (r Runner) Run(ctx context.Context, creds Credentials, outDir string, users []string, rng aurion.Range) (Report, error) {
	tel := r.tel()
	report := Report{}

	err := r.Scraper.Authenticate(ctx, creds.Username, creds.Password)
	if aurion.IsTransportError(err) {
		tel.ReportBroken(report_runner_authenticate, err)
		fmt.Fprintf(r.console(), "failed to authenticate: %s\n", err)
		return report, nil
	}
	if err != nil {
		return report, fmt.Errorf("authenticate: %w", err)
	}

	for _, user := range users {
		user = strings.TrimSpace(user)
		if user == "" {
			continue
		}

		outcome, err := r.exportUser(ctx, user, outDir, rng)
		report.Outcomes = append(report.Outcomes, outcome)
		if err == nil {
			continue
		}
		tel.ReportBroken(report_runner_export_user, user, err)
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		if aurion.IsPageStructureError(err) || !aurion.IsTransportError(err) {
			return report, fmt.Errorf("user %s: %w", user, err)
		}
		fmt.Fprintf(r.console(), "failed to export %s: %s\n", user, err)
	}

	return report, nil
}

func (r Runner) exportUser(ctx context.Context, user, outDir string, rng aurion.Range) (Outcome, error) {
	start := time.Now()
	outcome := Outcome{UserID: user}
	fail := func(err error) (Outcome, error) {
		outcome.Err = err
		outcome.Duration = time.Since(start)
		return outcome, err
	}

	schedule, err := r.Scraper.FetchSchedule(ctx, user, rng)
	if err != nil {
		return fail(err)
	}
	outcome.DisplayName = schedule.DisplayName

	events, err := aurion.DecodeEvents(schedule.Body, schedule.ContainerID)
	if err != nil {
		return fail(err)
	}
	outcome.Events = len(events)
	r.tel().ReportCount(report_runner_events, int64(len(events)))

	opts := []icsexport.Option{
		icsexport.WithLocation(rng.Start.Location()),
		icsexport.WithCalendarName(schedule.DisplayName),
	}
	if r.Clock != nil {
		opts = append(opts, icsexport.WithClock(r.Clock))
	}
	path := filepath.Join(outDir, Filename(schedule.DisplayName))
	err = icsexport.Export(events, path, opts...)
	if err != nil {
		return fail(fmt.Errorf("export %s: %w", path, err))
	}

	outcome.Path = path
	outcome.Duration = time.Since(start)
	return outcome, nil
}
