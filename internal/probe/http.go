package probe

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/hamed0406/resourcewatch/internal/domain"
)

// HTTP requests URL and expects a 2xx/3xx answer (or one of ExpectStatus).
type HTTP struct {
	Client       *http.Client
	URL          string
	Method       string
	ExpectStatus []int
	WarnLatency  time.Duration
}

type httpOptions struct {
	URL          string        `mapstructure:"url"`
	Method       string        `mapstructure:"method"`
	Timeout      time.Duration `mapstructure:"timeout"`
	ExpectStatus []int         `mapstructure:"expect_status"`
	WarnLatency  time.Duration `mapstructure:"warn_latency"`
}

func NewHTTP(opts Options) (Checker, error) {
	var o httpOptions
	if err := opts.Decode(&o); err != nil {
		return nil, err
	}
	if !isValidHTTPURL(o.URL) {
		return nil, fmt.Errorf("invalid url %q", o.URL)
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.Method == "" {
		o.Method = http.MethodGet
	}
	return &HTTP{
		Client:       &http.Client{Timeout: o.Timeout},
		URL:          o.URL,
		Method:       strings.ToUpper(o.Method),
		ExpectStatus: o.ExpectStatus,
		WarnLatency:  o.WarnLatency,
	}, nil
}

func (h *HTTP) Name() string { return "http " + h.URL }

func (h *HTTP) Check(ctx context.Context) (domain.Result, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, h.Method, h.URL, nil)
	if err != nil {
		return domain.Result{}, err
	}

	resp, err := h.Client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return domain.Critical(fmt.Sprintf("request failed: %v", err)), nil
	}
	defer resp.Body.Close()

	if !h.statusOK(resp.StatusCode) {
		return domain.Critical(fmt.Sprintf("unexpected status %s", resp.Status)), nil
	}
	if h.WarnLatency > 0 && latency > h.WarnLatency {
		return domain.Warning(fmt.Sprintf("slow response: %s (limit %s)",
			latency.Round(time.Millisecond), h.WarnLatency)), nil
	}
	return domain.OK(), nil
}

func (h *HTTP) statusOK(code int) bool {
	if len(h.ExpectStatus) > 0 {
		return slices.Contains(h.ExpectStatus, code)
	}
	return code >= 200 && code < 400
}

func isValidHTTPURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
