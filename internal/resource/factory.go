package resource

import (
	"errors"
	"fmt"
	"maps"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/resourcewatch/internal/config"
	"github.com/hamed0406/resourcewatch/internal/domain"
	"github.com/hamed0406/resourcewatch/internal/notify"
	"github.com/hamed0406/resourcewatch/internal/probe"
)

// Factory builds resources from their declarative specs.
type Factory struct {
	registry      *probe.Registry
	defaults      config.Defaults
	notifications config.Notifications
	dispatcher    *notify.Dispatcher
	logger        *zap.Logger
}

func NewFactory(
	registry *probe.Registry,
	defaults config.Defaults,
	notifications config.Notifications,
	dispatcher *notify.Dispatcher,
	logger *zap.Logger,
) *Factory {
	if registry == nil {
		registry = probe.DefaultRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{
		registry:      registry,
		defaults:      defaults,
		notifications: notifications,
		dispatcher:    dispatcher,
		logger:        logger,
	}
}

// New builds one resource. Every failure is a *ConfigError.
func (f *Factory) New(spec config.ResourceSpec) (*Resource, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return nil, configErr(name, "name is required", nil)
	}
	abbr := strings.TrimSpace(spec.Abbreviation)
	if abbr == "" {
		return nil, configErr(name, "abbreviation is required", nil)
	}
	if spec.Checker.Type == "" {
		return nil, configErr(name, "checker type is required", nil)
	}
	slug := Slugify(name)
	if slug == "" {
		return nil, configErr(name, "name must contain letters or digits", nil)
	}
	graph, err := domain.ParseTriState(spec.Graph)
	if err != nil {
		return nil, configErr(name, "graph", err)
	}

	checker, err := f.registry.Resolve(spec.Checker.Type, spec.Checker.Options)
	if err != nil {
		return nil, configErr(name, "checker", err)
	}

	r := &Resource{
		id:             uuid.NewString(),
		name:           name,
		slug:           slug,
		abbreviation:   abbr,
		global:         spec.Global,
		notify:         f.notifications.Enabled,
		errorMessage:   f.defaults.ErrorMessage,
		warningMessage: f.defaults.WarningMessage,
		style:          overlayStyle(f.defaults.Style, spec.Style),
		graph:          graph,
		graphDefault:   f.defaults.Graph,
		checker:        checker,
		gate:           Gate{Notifications: f.notifications},
		dispatcher:     f.dispatcher,
		logger:         f.logger.With(zap.String("resource", slug)),
	}
	if spec.Notify != nil {
		r.notify = *spec.Notify
	}
	if spec.ErrorMessage != nil {
		r.errorMessage = *spec.ErrorMessage
	}
	if spec.WarningMessage != nil {
		r.warningMessage = *spec.WarningMessage
	}

	if len(spec.Targets) == 0 {
		r.targets = []*Target{newTarget(DefaultTargetName, 0, checker, r.id)}
		return r, nil
	}

	seen := make(map[string]bool, len(spec.Targets))
	for i, ts := range spec.Targets {
		tname := strings.TrimSpace(ts.Name)
		if tname == "" {
			return nil, configErr(name, fmt.Sprintf("target %d has no name", i), nil)
		}
		if seen[tname] {
			return nil, configErr(name, fmt.Sprintf("duplicate target %q", tname), nil)
		}
		seen[tname] = true

		kind, opts := ts.Checker.Type, ts.Checker.Options
		if kind == "" {
			// inherit the resource checker, target options win
			kind = spec.Checker.Type
			opts = maps.Clone(spec.Checker.Options)
			if opts == nil {
				opts = map[string]any{}
			}
			maps.Copy(opts, ts.Checker.Options)
		}
		tc, err := f.registry.Resolve(kind, opts)
		if err != nil {
			return nil, configErr(name, fmt.Sprintf("target %q checker", tname), err)
		}
		r.targets = append(r.targets, newTarget(tname, i, tc, r.id))
	}
	return r, nil
}

// NewAll builds every spec and reports all failures together. Resources
// that fail are skipped; the others are returned.
func (f *Factory) NewAll(specs []config.ResourceSpec) ([]*Resource, error) {
	var (
		out  []*Resource
		errs error
	)
	slugs := make(map[string]bool, len(specs))
	for _, spec := range specs {
		r, err := f.New(spec)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if slugs[r.slug] {
			errs = multierr.Append(errs, configErr(r.name, fmt.Sprintf("slug %q is already used", r.slug), nil))
			continue
		}
		slugs[r.slug] = true
		out = append(out, r)
	}
	return out, errs
}

// IsConfigError reports whether err came from the factory.
func IsConfigError(err error) bool { return errors.Is(err, ErrConfiguration) }

// Slugify lowercases name and joins runs of letters and digits with hyphens.
// Letters from any script are kept.
func Slugify(name string) string {
	var b strings.Builder
	pendingDash := false
	for _, c := range strings.ToLower(name) {
		if unicode.IsLetter(c) || unicode.IsDigit(c) || unicode.IsMark(c) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(c)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// normalizeStyleKey turns "Font-Color" and "font color" into "font_color".
func normalizeStyleKey(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	return strings.NewReplacer("-", "_", " ", "_").Replace(k)
}

func overlayStyle(defaults, overrides map[string]string) map[string]string {
	out := make(map[string]string, len(defaults)+len(overrides))
	for k, v := range defaults {
		out[normalizeStyleKey(k)] = v
	}
	for k, v := range overrides {
		out[normalizeStyleKey(k)] = v
	}
	return out
}
