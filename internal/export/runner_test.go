package export

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"aurioncal/internal/components/chrono"
	"aurioncal/internal/components/telemetry"
	"aurioncal/internal/scrapers/aurion"
	"aurioncal/internal/scrapers/aurion/fakeportal"

	"github.com/stretchr/testify/require"
)

const holidayEvents = `[{"id":"1","title":"Holiday","start":"2024-01-01","end":"2024-01-02","allDay":true,"editable":false}]`
const lectureEvents = `[{"id":"2","title":"Lecture","start":"2024-01-03T09:00:00+0100","end":"2024-01-03T11:00:00+0100","allDay":false,"editable":false},` +
	`{"id":"3","title":"Lab","start":"2024-01-04T14:00:00+0100","end":"2024-01-04T17:00:00+0100","allDay":false,"editable":false}]`

type fixture struct {
	portal  *fakeportal.Portal
	runner  Runner
	console *bytes.Buffer
	rec     *telemetry.Recorder
	outDir  string
	rng     aurion.Range
}

func setup(t testing.TB) fixture {
	portal := fakeportal.New(t)
	portal.Users["12345"] = fakeportal.User{DisplayName: "DUPONT Jean", Events: holidayEvents}
	portal.Users["67890"] = fakeportal.User{DisplayName: "MARTIN Claire", Events: lectureEvents}

	rec := &telemetry.Recorder{}
	client, err := aurion.NewClient(aurion.ClientOptions{
		PortalURL: portal.Portal.URL,
		CASURL:    portal.CAS.URL,
		Timeout:   5 * time.Second,
		Menu: aurion.MenuLabels{
			Submenu: fakeportal.SubmenuLabel,
			Entry:   fakeportal.EntryLabel,
		},
		Telemetry: rec,
	})
	if err != nil {
		t.Fatal(err)
	}

	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Fatal(err)
	}
	console := &bytes.Buffer{}
	return fixture{
		portal: portal,
		runner: Runner{
			Scraper:   client,
			Clock:     chrono.FixedImpl{Time: time.Date(2024, time.February, 1, 0, 0, 0, 0, paris)},
			Telemetry: rec,
			Console:   console,
		},
		console: console,
		rec:     rec,
		outDir:  t.TempDir(),
		rng:     aurion.SchoolYear(time.Date(2024, time.February, 1, 0, 0, 0, 0, paris), paris),
	}
}

func (f fixture) creds() Credentials {
	return Credentials{Username: f.portal.Username, Password: f.portal.Password}
}

func (f fixture) files(t testing.TB) []string {
	entries, err := os.ReadDir(f.outDir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func selectedUsers(portal *fakeportal.Portal) []string {
	var users []string
	for _, req := range portal.Requests() {
		if req.Path == "/faces/ChoixPlanning.xhtml" {
			users = append(users, req.Form.Get(fakeportal.PickerTable+"_selection"))
		}
	}
	return users
}

func TestRun(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	report, err := f.runner.Run(ctx, f.creds(), f.outDir, []string{"12345", " ", "", "67890"}, f.rng)
	require.NoError(t, err)
	require.Equal(t, 2, report.Exported())
	require.Equal(t, []string{"DUPONT Jean.ics", "MARTIN Claire.ics"}, f.files(t))
	require.Equal(t, []string{"12345", "67890"}, selectedUsers(f.portal))
	require.Empty(t, f.console.String())

	require.Equal(t, "DUPONT Jean", report.Outcomes[0].DisplayName)
	require.Equal(t, 1, report.Outcomes[0].Events)
	require.Equal(t, 2, report.Outcomes[1].Events)
	require.Equal(t, filepath.Join(f.outDir, "MARTIN Claire.ics"), report.Outcomes[1].Path)

	data, err := os.ReadFile(filepath.Join(f.outDir, "MARTIN Claire.ics"))
	require.NoError(t, err)
	text := string(data)
	require.Equal(t, 2, strings.Count(text, "BEGIN:VEVENT"))
	require.Contains(t, text, "SUMMARY:Lab")
	require.Contains(t, text, "DTSTART;TZID=Europe/Paris:20240104T140000")
}

func TestRunBlankUsers(t *testing.T) {
	f := setup(t)

	report, err := f.runner.Run(context.Background(), f.creds(), f.outDir, []string{"", "  ", "\t"}, f.rng)
	require.NoError(t, err)
	require.Empty(t, report.Outcomes)
	require.Empty(t, f.files(t))
	for _, req := range f.portal.Requests() {
		require.NotContains(t, req.Path, "/faces/")
	}
}

func TestRunTransportErrorContinues(t *testing.T) {
	f := setup(t)
	user := f.portal.Users["12345"]
	user.Status = 500
	f.portal.Users["12345"] = user

	report, err := f.runner.Run(context.Background(), f.creds(), f.outDir, []string{"12345", "67890"}, f.rng)
	require.NoError(t, err)
	require.Equal(t, 1, report.Exported())
	require.Error(t, report.Outcomes[0].Err)
	require.Equal(t, []string{"MARTIN Claire.ics"}, f.files(t))
	require.Contains(t, f.console.String(), "failed to export 12345")
	require.True(t, f.rec.Has(telemetry.LevelBroken, report_runner_export_user))
}

func TestRunPageStructureAborts(t *testing.T) {
	f := setup(t)
	user := f.portal.Users["12345"]
	user.BrokenEnvelope = true
	f.portal.Users["12345"] = user

	report, err := f.runner.Run(context.Background(), f.creds(), f.outDir, []string{"12345", "67890"}, f.rng)
	require.ErrorIs(t, err, aurion.ErrEnvelopeMismatch)
	require.Len(t, report.Outcomes, 1)
	require.Empty(t, f.files(t))
	require.Equal(t, []string{"12345"}, selectedUsers(f.portal))
}

func TestRunAuthenticationTransportError(t *testing.T) {
	f := setup(t)
	f.portal.Fail(fakeportal.StepLogin, 503)

	report, err := f.runner.Run(context.Background(), f.creds(), f.outDir, []string{"12345"}, f.rng)
	require.NoError(t, err)
	require.Empty(t, report.Outcomes)
	require.Empty(t, f.files(t))
	require.Contains(t, f.console.String(), "failed to authenticate")
}

func TestRunLoginRejected(t *testing.T) {
	f := setup(t)
	creds := f.creds()
	creds.Password = "nope"

	report, err := f.runner.Run(context.Background(), creds, f.outDir, []string{"12345"}, f.rng)
	require.NoError(t, err)
	require.Empty(t, report.Outcomes)
	require.Contains(t, f.console.String(), "failed to authenticate: login failed")
	require.Empty(t, selectedUsers(f.portal))
	require.Empty(t, f.files(t))
}

func TestFilename(t *testing.T) {
	require.Equal(t, "DUPONT Jean.ics", Filename("DUPONT Jean"))
	require.Equal(t, "A_B_C.ics", Filename("A/B:C"))
	require.Equal(t, "schedule.ics", Filename(" .. "))
}

func TestReportRender(t *testing.T) {
	report := Report{Outcomes: []Outcome{
		{UserID: "12345", DisplayName: "DUPONT Jean", Events: 3, Path: "out/DUPONT Jean.ics"},
		{UserID: "67890", Err: &aurion.StatusError{Method: "POST", URL: "/faces/ChoixPlanning.xhtml", StatusCode: 500, Status: "500 Internal Server Error"}},
	}}

	var out bytes.Buffer
	report.Render(&out)
	require.Contains(t, out.String(), "DUPONT Jean")
	require.Contains(t, out.String(), "500 Internal Server Error")
	require.Contains(t, out.String(), "1/2 exported")
}
