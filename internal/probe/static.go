package probe

import (
	"context"

	"github.com/hamed0406/resourcewatch/internal/domain"
)

// Static always reports the configured status. Useful for maintenance
// placeholders and for exercising notification channels.
type Static struct {
	Status  domain.Status
	Message string
}

type staticOptions struct {
	Status  string `mapstructure:"status"`
	Message string `mapstructure:"message"`
}

func NewStatic(opts Options) (Checker, error) {
	var o staticOptions
	if err := opts.Decode(&o); err != nil {
		return nil, err
	}
	status := domain.StatusOK
	if o.Status != "" {
		s, err := domain.ParseStatus(o.Status)
		if err != nil {
			return nil, err
		}
		status = s
	}
	return &Static{Status: status, Message: o.Message}, nil
}

func (s *Static) Name() string { return "static" }

func (s *Static) Check(context.Context) (domain.Result, error) {
	return domain.NewResult(s.Status, s.Message), nil
}
