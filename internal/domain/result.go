package domain

import "time"

// Result is the outcome of one check execution. It is a value: a new
// execution produces a new Result instead of touching an old one.
type Result struct {
	Status    Status    `json:"status"`
	Message   string    `json:"message,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

func NewResult(status Status, message string) Result {
	return Result{Status: status, Message: message, CheckedAt: time.Now()}
}

func OK() Result                     { return NewResult(StatusOK, "") }
func Warning(message string) Result  { return NewResult(StatusWarning, message) }
func Critical(message string) Result { return NewResult(StatusCritical, message) }
func Unknown(message string) Result  { return NewResult(StatusUnknown, message) }

// Healthy is true only for StatusOK; UNKNOWN is unhealthy.
func (r Result) Healthy() bool { return r.Status == StatusOK }
