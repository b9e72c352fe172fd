package domain

import (
	"fmt"
	"strings"
)

// Status is the outcome label of a check.
type Status string

const (
	StatusOK       Status = "ok"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
	StatusUnknown  Status = "unknown"
)

// Statuses lists every status from least to most severe.
var Statuses = []Status{StatusOK, StatusUnknown, StatusWarning, StatusCritical}

// Severity ranks a status for worst-case comparison:
// OK < UNKNOWN < WARNING < CRITICAL. Unrecognised values rank as UNKNOWN.
func (s Status) Severity() int {
	switch s {
	case StatusOK:
		return 0
	case StatusWarning:
		return 2
	case StatusCritical:
		return 3
	default:
		return 1
	}
}

func (s Status) String() string { return string(s) }

// Upper is the label used in summaries, e.g. "CRITICAL".
func (s Status) Upper() string { return strings.ToUpper(string(s)) }

func (s Status) Valid() bool {
	switch s {
	case StatusOK, StatusWarning, StatusCritical, StatusUnknown:
		return true
	}
	return false
}

// ParseStatus is case-insensitive. Unrecognised text yields StatusUnknown and an error.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return StatusUnknown, fmt.Errorf("unknown status %q", raw)
	}
	return s, nil
}

// Worst returns the most severe status. The reduction is order independent;
// with no input it returns StatusOK.
func Worst(statuses ...Status) Status {
	worst := StatusOK
	for _, s := range statuses {
		if !s.Valid() {
			s = StatusUnknown
		}
		if s.Severity() > worst.Severity() {
			worst = s
		}
	}
	return worst
}

// Aggregate reduces results to their worst status.
func Aggregate(results []Result) Status {
	statuses := make([]Status, 0, len(results))
	for _, r := range results {
		statuses = append(statuses, r.Status)
	}
	return Worst(statuses...)
}
