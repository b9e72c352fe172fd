package notify

import (
	"fmt"
	"io"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/resourcewatch/internal/config"
)

// FromConfig builds the channels in the order they are configured. On
// error, channels already built are closed.
func FromConfig(cfgs []config.ChannelConfig, logger *zap.Logger) (_ []Channel, err error) {
	out := make([]Channel, 0, len(cfgs))
	defer func() {
		if err != nil {
			err = multierr.Append(err, closeAll(out))
		}
	}()
	for _, c := range cfgs {
		switch c.Type {
		case "log":
			out = append(out, NewLog(c.Name, logger))
		case "slack":
			out = append(out, NewSlack(c.Name, c.URL))
		case "webhook":
			out = append(out, NewWebhook(c.Name, c.URL))
		case "redis":
			ch, err := NewRedis(c.Name, c.URL, c.Channel)
			if err != nil {
				return nil, err
			}
			out = append(out, ch)
		default:
			return nil, fmt.Errorf("channel %s: unknown type %q", c.Name, c.Type)
		}
	}
	return out, nil
}

func closeAll(chs []Channel) error {
	var errs error
	for _, ch := range chs {
		if c, ok := ch.(io.Closer); ok {
			errs = multierr.Append(errs, c.Close())
		}
	}
	return errs
}
