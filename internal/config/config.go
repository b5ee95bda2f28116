package config

import (
	"fmt"
	"strings"
	"time"

	"aurioncal/internal/scrapers/aurion"
	"aurioncal/lib/configutil"

	"dario.cat/mergo"
)

type MenuConfig struct {
	SubmenuLabel string `json:"submenu_label" yaml:"submenu_label"`
	EntryLabel   string `json:"entry_label" yaml:"entry_label"`
}

// RangeConfig bounds the exported schedule, days are YYYY-MM-DD and `to` is
// exclusive. Leaving both empty exports the current school year.
type RangeConfig struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

type Config struct {
	// Users is a semicolon separated list of calendar ids.
	Users          string      `json:"users" yaml:"users"`
	PortalURL      string      `json:"portal_url" yaml:"portal_url"`
	CASURL         string      `json:"cas_url" yaml:"cas_url"`
	Timezone       string      `json:"timezone" yaml:"timezone"`
	Menu           MenuConfig  `json:"menu" yaml:"menu"`
	Range          RangeConfig `json:"range" yaml:"range"`
	TimeoutSeconds int         `json:"timeout_seconds" yaml:"timeout_seconds"`
	UserAgent      string      `json:"user_agent" yaml:"user_agent"`
}

func Default() Config {
	return Config{
		PortalURL: "https://aurionweb.ensiie.fr",
		CASURL:    "https://cas.ensiie.fr",
		Timezone:  "Europe/Paris",
		Menu: MenuConfig{
			SubmenuLabel: "Plannings",
			EntryLabel:   "Plannings des étudiants",
		},
		TimeoutSeconds: 30,
		UserAgent:      aurion.DefaultUserAgent,
	}
}

// Load reads the config at path (and its .local override), fields left
// empty take their default value.
func Load(path string) (Config, error) {
	cfg, err := configutil.ReadConfig[Config](path)
	if err != nil {
		return Config{}, err
	}
	err = mergo.Merge(&cfg, Default())
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SplitUsers splits a semicolon separated list of ids, blank entries are dropped.
func SplitUsers(list string) []string {
	var out []string
	for _, user := range strings.Split(list, ";") {
		user = strings.TrimSpace(user)
		if user == "" {
			continue
		}
		out = append(out, user)
	}
	return out
}

func (c Config) UserIDs() []string {
	return SplitUsers(c.Users)
}

func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c Config) MenuLabels() aurion.MenuLabels {
	return aurion.MenuLabels{
		Submenu: c.Menu.SubmenuLabel,
		Entry:   c.Menu.EntryLabel,
	}
}

func ParseDay(day string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(day), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("day %q is not YYYY-MM-DD", day)
	}
	return t, nil
}

// ScheduleRange resolves the configured range, a missing bound is taken from
// the school year containing now.
func (c Config) ScheduleRange(now time.Time, loc *time.Location) (aurion.Range, error) {
	rng := aurion.SchoolYear(now, loc)
	if c.Range.From != "" {
		from, err := ParseDay(c.Range.From, loc)
		if err != nil {
			return aurion.Range{}, err
		}
		rng.Start = from
	}
	if c.Range.To != "" {
		to, err := ParseDay(c.Range.To, loc)
		if err != nil {
			return aurion.Range{}, err
		}
		rng.End = to
	}
	return rng, rng.Validate()
}

func (c Config) Validate() error {
	if c.PortalURL == "" {
		return fmt.Errorf("portal_url is required")
	}
	if c.CASURL == "" {
		return fmt.Errorf("cas_url is required")
	}
	_, err := c.Location()
	return err
}
