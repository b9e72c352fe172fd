package probe

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/hamed0406/resourcewatch/internal/domain"
)

// TCP succeeds when a connection to Address can be opened.
type TCP struct {
	Address string
	Timeout time.Duration
}

type tcpOptions struct {
	Address string        `mapstructure:"address"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func NewTCP(opts Options) (Checker, error) {
	var o tcpOptions
	if err := opts.Decode(&o); err != nil {
		return nil, err
	}
	if _, _, err := net.SplitHostPort(o.Address); err != nil {
		return nil, fmt.Errorf("address %q: %w", o.Address, err)
	}
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	return &TCP{Address: o.Address, Timeout: o.Timeout}, nil
}

func (t *TCP) Name() string { return "tcp " + t.Address }

func (t *TCP) Check(ctx context.Context) (domain.Result, error) {
	d := net.Dialer{Timeout: t.Timeout}
	conn, err := d.DialContext(ctx, "tcp", t.Address)
	if err != nil {
		return domain.Critical(fmt.Sprintf("connect %s: %v", t.Address, err)), nil
	}
	_ = conn.Close()
	return domain.OK(), nil
}
