package probe

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

var ErrUnknownType = errors.New("unknown checker type")

// Options are the free-form settings of a checker from the config file.
type Options map[string]any

// Decode fills out (a struct with mapstructure tags). Unknown keys are an
// error so typos surface at startup instead of being ignored.
func (o Options) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	return dec.Decode(map[string]any(o))
}

// Factory builds a checker from its options.
type Factory func(opts Options) (Checker, error)

// Registry maps checker type identifiers to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry knows every checker shipped with resourcewatch.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("static", NewStatic)
	r.Register("http", NewHTTP)
	r.Register("dns", NewDNS)
	r.Register("tcp", NewTCP)
	r.Register("redis", NewRedis)
	r.Register("postgres", NewPostgres)
	r.Register("min_healthy", NewMinHealthy)
	return r
}

func (r *Registry) Register(kind string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[strings.ToLower(kind)] = f
}

// Kinds lists the registered type identifiers, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for k := range r.factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type retryOptions struct {
	Retries      int           `mapstructure:"retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
}

// Resolve builds a checker of the given kind. The generic "retries" and
// "retry_backoff" options wrap the result in a Retry.
func (r *Registry) Resolve(kind string, opts Options) (Checker, error) {
	r.mu.RLock()
	f, ok := r.factories[strings.ToLower(kind)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, kind)
	}

	own := make(Options, len(opts))
	generic := Options{}
	for k, v := range opts {
		switch k {
		case "retries", "retry_backoff":
			generic[k] = v
		default:
			own[k] = v
		}
	}

	var ro retryOptions
	if err := generic.Decode(&ro); err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}

	c, err := f(own)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}
	if ro.Retries > 0 {
		c = &Retry{Inner: c, Attempts: ro.Retries + 1, Backoff: ro.RetryBackoff}
	}
	return c, nil
}
