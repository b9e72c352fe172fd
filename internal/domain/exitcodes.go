package domain

import (
	"fmt"

	"go.uber.org/multierr"
)

// ExitCodes maps a status to the process exit code reported by the CLI and
// the API. It is independent of Severity: reordering codes never changes
// which status is considered worst.
type ExitCodes map[Status]int

// DefaultExitCodes follows the Nagios plugin convention.
func DefaultExitCodes() ExitCodes {
	return ExitCodes{
		StatusOK:       0,
		StatusWarning:  1,
		StatusCritical: 2,
		StatusUnknown:  3,
	}
}

// Code returns the code for s, falling back to the UNKNOWN code for
// statuses missing from the table.
func (c ExitCodes) Code(s Status) int {
	if code, ok := c[s]; ok {
		return code
	}
	if code, ok := c[StatusUnknown]; ok {
		return code
	}
	return DefaultExitCodes()[StatusUnknown]
}

// Validate requires every status to be mapped to a distinct code.
func (c ExitCodes) Validate() error {
	var err error
	seen := make(map[int]Status, len(c))
	for _, s := range Statuses {
		code, ok := c[s]
		if !ok {
			err = multierr.Append(err, fmt.Errorf("exit code for %s is not set", s))
			continue
		}
		if other, dup := seen[code]; dup {
			err = multierr.Append(err, fmt.Errorf("exit code %d used by both %s and %s", code, other, s))
			continue
		}
		seen[code] = s
	}
	for s := range c {
		if !s.Valid() {
			err = multierr.Append(err, fmt.Errorf("exit code set for unknown status %q", s))
		}
	}
	return err
}

// Merge overlays the configured codes onto the defaults.
func (c ExitCodes) Merge(overrides map[string]int) (ExitCodes, error) {
	out := make(ExitCodes, len(c))
	for k, v := range c {
		out[k] = v
	}
	var err error
	for raw, code := range overrides {
		s, perr := ParseStatus(raw)
		if perr != nil {
			err = multierr.Append(err, perr)
			continue
		}
		out[s] = code
	}
	if err != nil {
		return nil, err
	}
	return out, out.Validate()
}
