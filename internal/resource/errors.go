package resource

import (
	"errors"
	"fmt"
)

// ErrConfiguration matches every error returned by Factory.New.
var ErrConfiguration = errors.New("invalid resource configuration")

// ConfigError aborts construction of a single resource.
type ConfigError struct {
	Resource string
	Reason   string
	Err      error
}

func (e *ConfigError) Error() string {
	name := e.Resource
	if name == "" {
		name = "<unnamed>"
	}
	msg := fmt.Sprintf("resource %q: %s", name, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrConfiguration}
	}
	return []error{ErrConfiguration, e.Err}
}

func configErr(resource, reason string, err error) error {
	return &ConfigError{Resource: resource, Reason: reason, Err: err}
}
