package domain

import (
	"fmt"
	"strings"
)

// TriState is a boolean that may defer to an inherited default.
type TriState int

const (
	Inherit TriState = iota
	True
	False
)

func ParseTriState(raw string) (TriState, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "inherit":
		return Inherit, nil
	case "true", "yes", "on":
		return True, nil
	case "false", "no", "off":
		return False, nil
	}
	return Inherit, fmt.Errorf("invalid tri-state value %q", raw)
}

func (t TriState) Resolve(fallback bool) bool {
	switch t {
	case True:
		return true
	case False:
		return false
	default:
		return fallback
	}
}

func (t TriState) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "inherit"
	}
}
