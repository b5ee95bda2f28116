package telemetry

import (
	"strings"
	"sync"
)

type Level int

const (
	LevelDebug Level = iota
	LevelWarning
	LevelBroken
	LevelCount
)

type Report struct {
	Level  Level
	ID     string
	Params []any
}

// Recorder is an API that keeps every report in memory, for tests.
type Recorder struct {
	mu      sync.Mutex
	reports []Report
}

func (r *Recorder) add(level Level, id string, params []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, Report{Level: level, ID: id, Params: params})
}

func (r *Recorder) ReportBroken(id string, params ...any) {
	r.add(LevelBroken, id, params)
}

func (r *Recorder) ReportWarning(id string, params ...any) {
	r.add(LevelWarning, id, params)
}

func (r *Recorder) ReportDebug(msg string, params ...any) {
	r.add(LevelDebug, msg, params)
}

func (r *Recorder) ReportCount(id string, count int64) {
	r.add(LevelCount, id, []any{count})
}

// Reports returns a copy of the reports at the given level.
func (r *Recorder) Reports(level Level) []Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Report
	for _, rep := range r.reports {
		if rep.Level == level {
			out = append(out, rep)
		}
	}
	return out
}

// Has tells whether a report at level has an id ending with suffix,
// scoped ids carry their namespace as a prefix.
func (r *Recorder) Has(level Level, suffix string) bool {
	for _, rep := range r.Reports(level) {
		if strings.HasSuffix(rep.ID, suffix) {
			return true
		}
	}
	return false
}
