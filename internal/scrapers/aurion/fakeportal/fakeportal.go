// Package fakeportal serves a scripted copy of the Aurion portal and its CAS
// server for tests. Every submission is checked against the fields and view
// state the real portal expects and answered with 400 when they differ.
package fakeportal

import (
	"embed"
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
)

//go:embed testdata
var fixtures embed.FS

// Fixture returns the raw contents of testdata/<name>.
func Fixture(name string) []byte {
	data, err := fixtures.ReadFile("testdata/" + name)
	if err != nil {
		panic(err)
	}
	return data
}

// identifiers the fixtures are built with
const (
	ViewStateRoot     = "-4125698801364920912:2398710492347823701"
	ViewStateChoix    = "-4125698801364920912:8712398472120938470"
	ViewStatePlanning = "-4125698801364920912:1209384710293847561"

	Execution   = "e1s1"
	Ticket      = "ST-1-aurion"
	SessionID   = "0C1D5B7E4A2F"
	MenuSource  = "form:j_idt50"
	SubmenuID   = "submenu_55642"
	MenuEntryID = "3_1"
	PickerTable = "form:j_idt185"
	Container   = "form:j_idt114"

	SubmenuLabel = "Plannings"
	EntryLabel   = "Plannings des étudiants"
)

var PickerFilters = []string{
	"form:j_idt185:j_idt190:filter",
	"form:j_idt185:j_idt192:filter",
}

const PickerSubmit = "form:j_idt248"

type Step string

const (
	StepLogin          Step = "login"
	StepRoot           Step = "load-root"
	StepExpandMenu     Step = "expand-menu"
	StepSelectEntry    Step = "select-entry"
	StepSelectCalendar Step = "select-calendar"
	StepFetchEvents    Step = "fetch-events"
)

type User struct {
	DisplayName string
	// Events is the JSON array sent to the schedule widget.
	Events string
	// Status, when set, is returned instead of the schedule page.
	Status int
	// BrokenEnvelope wraps the events in an envelope the client does not expect.
	BrokenEnvelope bool
}

type Request struct {
	Method string
	Path   string
	Header http.Header
	Form   url.Values
}

type Portal struct {
	Username    string
	Password    string
	AccountName string
	Users       map[string]User

	Portal *httptest.Server
	CAS    *httptest.Server

	mu       sync.Mutex
	requests []Request
	failures map[Step]int
	selected string
}

// New starts the portal and its CAS server, both are closed when the test ends.
func New(t testing.TB) *Portal {
	p := &Portal{
		Username:    "jdupont",
		Password:    "hunter2",
		AccountName: "DUPONT Jean",
		Users:       map[string]User{},
		failures:    map[Step]int{},
	}
	p.Portal = httptest.NewServer(http.HandlerFunc(p.servePortal))
	p.CAS = httptest.NewServer(http.HandlerFunc(p.serveCAS))
	t.Cleanup(func() {
		p.Portal.Close()
		p.CAS.Close()
	})
	return p
}

// Fail makes step answer with status.
func (p *Portal) Fail(step Step, status int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[step] = status
}

func (p *Portal) Requests() []Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Request(nil), p.requests...)
}

// Hits is the number of requests both servers received.
func (p *Portal) Hits() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

// LastForm returns the form of the last request made to path.
func (p *Portal) LastForm(path string) url.Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.requests) - 1; i >= 0; i-- {
		if p.requests[i].Path == path {
			return p.requests[i].Form
		}
	}
	return nil
}

func (p *Portal) record(r *http.Request) {
	_ = r.ParseForm()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Form:   r.PostForm,
	})
}

func (p *Portal) failure(step Step) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failures[step]
}

func render(name string, replacements ...string) []byte {
	return []byte(strings.NewReplacer(replacements...).Replace(string(Fixture(name))))
}

func write(w http.ResponseWriter, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func reject(w http.ResponseWriter, format string, args ...any) {
	http.Error(w, fmt.Sprintf(format, args...), http.StatusBadRequest)
}

func (p *Portal) serviceURL() string {
	return p.Portal.URL + "/login/cas"
}

func (p *Portal) serveCAS(w http.ResponseWriter, r *http.Request) {
	p.record(r)
	if r.URL.Path != "/login" {
		http.NotFound(w, r)
		return
	}
	if r.URL.Query().Get("service") != p.serviceURL() {
		reject(w, "unknown service %q", r.URL.Query().Get("service"))
		return
	}

	loginPage := func(status int, message string) {
		w.Header().Set("Content-Type", "text/html;charset=UTF-8")
		w.WriteHeader(status)
		w.Write(render(
			"cas_login.html",
			"__SERVICE__", url.QueryEscape(p.serviceURL()),
			"__EXECUTION__", Execution,
			"__ERROR__", message,
		))
	}

	switch r.Method {
	case http.MethodGet:
		loginPage(http.StatusOK, "")
	case http.MethodPost:
		if status := p.failure(StepLogin); status != 0 {
			w.WriteHeader(status)
			return
		}
		if r.PostForm.Get("execution") != Execution || r.PostForm.Get("_eventId") != "submit" {
			reject(w, "bad login flow")
			return
		}
		if r.PostForm.Get("username") != p.Username || r.PostForm.Get("password") != p.Password {
			loginPage(http.StatusUnauthorized, `<div class="alert alert-danger">Mauvais identifiant / mot de passe.</div>`)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "TGC", Value: "TGT-1", Path: "/"})
		http.Redirect(w, r, p.serviceURL()+"?ticket="+Ticket, http.StatusFound)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (p *Portal) loggedIn(r *http.Request) bool {
	cookie, err := r.Cookie("JSESSIONID")
	return err == nil && cookie.Value == SessionID
}

func (p *Portal) servePortal(w http.ResponseWriter, r *http.Request) {
	p.record(r)

	if r.URL.Path == "/login/cas" {
		if r.URL.Query().Get("ticket") != Ticket {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: SessionID, Path: "/", HttpOnly: true})
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	if !p.loggedIn(r) {
		loginURL := p.CAS.URL + "/login?" + url.Values{"service": {p.serviceURL()}}.Encode()
		http.Redirect(w, r, loginURL, http.StatusFound)
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/":
		p.serveRoot(w)
	case r.Method == http.MethodPost && r.URL.Path == "/faces/MainMenuPage.xhtml":
		if r.Header.Get("Faces-Request") == "partial/ajax" {
			p.serveExpandMenu(w, r)
		} else {
			p.serveSelectEntry(w, r)
		}
	case r.Method == http.MethodPost && r.URL.Path == "/faces/ChoixPlanning.xhtml":
		p.serveSelectCalendar(w, r)
	case r.Method == http.MethodPost && r.URL.Path == "/faces/Planning.xhtml":
		p.serveFetchEvents(w, r)
	default:
		http.NotFound(w, r)
	}
}

// expect checks that every field of want was submitted with the given value.
func expect(form url.Values, want map[string]string) error {
	for field, value := range want {
		got, ok := form[field]
		if !ok {
			return fmt.Errorf("missing field %q", field)
		}
		if len(got) != 1 || got[0] != value {
			return fmt.Errorf("field %q: got %q, want %q", field, got, value)
		}
	}
	return nil
}

func (p *Portal) serveRoot(w http.ResponseWriter) {
	if status := p.failure(StepRoot); status != 0 {
		w.WriteHeader(status)
		return
	}
	write(w, "text/html;charset=UTF-8", render(
		"root.html",
		"__DISPLAY_NAME__", html.EscapeString(p.AccountName),
		"__VIEW_STATE__", ViewStateRoot,
	))
}

func (p *Portal) serveExpandMenu(w http.ResponseWriter, r *http.Request) {
	if status := p.failure(StepExpandMenu); status != 0 {
		w.WriteHeader(status)
		return
	}
	err := expect(r.PostForm, map[string]string{
		"javax.faces.partial.ajax":       "true",
		"javax.faces.source":             MenuSource,
		"javax.faces.partial.execute":    MenuSource,
		"javax.faces.partial.render":     "form:sidebar",
		MenuSource:                       MenuSource,
		"webscolaapp.Sidebar.ID_SUBMENU": SubmenuID,
		"form":                           "form",
		"javax.faces.ViewState":          ViewStateRoot,
	})
	if err != nil {
		reject(w, "expand menu: %s", err)
		return
	}
	write(w, "text/xml;charset=UTF-8", render("sidebar.xml", "__VIEW_STATE__", ViewStateRoot))
}

func (p *Portal) serveSelectEntry(w http.ResponseWriter, r *http.Request) {
	if status := p.failure(StepSelectEntry); status != 0 {
		w.WriteHeader(status)
		return
	}
	err := expect(r.PostForm, map[string]string{
		"form":                  "form",
		"form:sidebar":          "form:sidebar",
		"form:sidebar_menuid":   MenuEntryID,
		"javax.faces.ViewState": ViewStateRoot,
	})
	if err != nil {
		reject(w, "select entry: %s", err)
		return
	}
	write(w, "text/html;charset=UTF-8", render(
		"choix_planning.html",
		"__DISPLAY_NAME__", html.EscapeString(p.AccountName),
		"__VIEW_STATE__", ViewStateChoix,
	))
}

func (p *Portal) serveSelectCalendar(w http.ResponseWriter, r *http.Request) {
	if status := p.failure(StepSelectCalendar); status != 0 {
		w.WriteHeader(status)
		return
	}
	want := map[string]string{
		"form":                     "form",
		PickerTable + "_reflowDD":  "0_0",
		PickerTable + "_checkbox":  "on",
		PickerSubmit:               "",
		"form:search-texte":        "",
		"form:calendarDebut_input": "",
		"form:calendarFin_input":   "",
		"javax.faces.ViewState":    ViewStateChoix,
	}
	for _, filter := range PickerFilters {
		want[filter] = ""
	}
	err := expect(r.PostForm, want)
	if err != nil {
		reject(w, "select calendar: %s", err)
		return
	}

	userID := r.PostForm.Get(PickerTable + "_selection")
	user, ok := p.Users[userID]
	if !ok {
		reject(w, "select calendar: unknown user %q", userID)
		return
	}
	if user.Status != 0 {
		w.WriteHeader(user.Status)
		return
	}

	p.mu.Lock()
	p.selected = userID
	p.mu.Unlock()

	write(w, "text/html;charset=UTF-8", render(
		"planning.html",
		"__DISPLAY_NAME__", html.EscapeString(user.DisplayName),
		"__VIEW_STATE__", ViewStatePlanning,
	))
}

func (p *Portal) serveFetchEvents(w http.ResponseWriter, r *http.Request) {
	if status := p.failure(StepFetchEvents); status != 0 {
		w.WriteHeader(status)
		return
	}
	if r.Header.Get("Faces-Request") != "partial/ajax" {
		reject(w, "fetch events: not a partial request")
		return
	}
	err := expect(r.PostForm, map[string]string{
		"javax.faces.partial.ajax":    "true",
		"javax.faces.source":          Container,
		"javax.faces.partial.execute": Container,
		"javax.faces.partial.render":  Container,
		Container:                     Container,
		"form":                        "form",
		"javax.faces.ViewState":       ViewStatePlanning,
	})
	if err != nil {
		reject(w, "fetch events: %s", err)
		return
	}
	start, err1 := strconv.ParseInt(r.PostForm.Get(Container+"_start"), 10, 64)
	end, err2 := strconv.ParseInt(r.PostForm.Get(Container+"_end"), 10, 64)
	if err1 != nil || err2 != nil || end <= start {
		reject(w, "fetch events: bad range")
		return
	}
	if _, err := strconv.ParseInt(r.PostForm.Get("form:offsetFuseauNavigateur"), 10, 64); err != nil {
		reject(w, "fetch events: bad browser offset")
		return
	}

	p.mu.Lock()
	user := p.Users[p.selected]
	p.mu.Unlock()

	events := user.Events
	if events == "" {
		events = "[]"
	}
	payload := `{"events" : ` + events + `}`
	if user.BrokenEnvelope {
		payload = `<div class="ui-messages-error">` + events + `</div>`
	}
	write(w, "text/xml;charset=UTF-8", render(
		"schedule.xml",
		"__EVENTS__", payload,
		"__VIEW_STATE__", ViewStatePlanning,
	))
}
