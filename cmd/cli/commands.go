package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/hamed0406/resourcewatch/internal/app"
	"github.com/hamed0406/resourcewatch/internal/config"
	"github.com/hamed0406/resourcewatch/internal/domain"
	"github.com/hamed0406/resourcewatch/internal/logging"
	"github.com/hamed0406/resourcewatch/internal/probe"
	"github.com/hamed0406/resourcewatch/internal/resource"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "resourcewatch",
		Short:         "Check monitored resources and report their health",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to resourcewatch.yaml")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "also log to stderr")

	root.AddCommand(newCheckCommand(opts))
	root.AddCommand(newShowCommand(opts))
	root.AddCommand(newValidateCommand(opts))
	return root
}

func (o *rootOptions) build(cmd *cobra.Command) (*app.App, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewLogger(logging.Options{
		Dir:    cfg.Log.Dir,
		Level:  cfg.Log.Level,
		Stderr: o.verbose || cfg.Log.Stderr,
	})
	if err != nil {
		return nil, err
	}
	a, err := app.Build(cmd.Context(), cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return a, nil
}

type outputFlags struct {
	format string
	depth  int
}

func (f *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.format, "format", "f", "text", "output format: text, json or yaml")
	cmd.Flags().IntVar(&f.depth, "depth", resource.DefaultDepth, "nesting limit for json/yaml output")
}

func (f *outputFlags) validate() error {
	switch f.format {
	case "text", "json", "yaml":
		return nil
	}
	return fmt.Errorf("unknown format %q", f.format)
}

func newCheckCommand(opts *rootOptions) *cobra.Command {
	var (
		action string
		out    outputFlags
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check every resource once and exit with the worst status code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := out.validate(); err != nil {
				return err
			}
			a, err := opts.build(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			defer a.Logger.Sync()

			status := a.Runner.RunOnce(cmd.Context(), action)
			if err := render(cmd.OutOrStdout(), out, a.Resources); err != nil {
				return err
			}
			return exitFor(a.Codes, status)
		},
	}
	cmd.Flags().StringVar(&action, "action", "cli", "action recorded on the check; notifications may be toggled per action")
	out.register(cmd)
	return cmd
}

func newShowCommand(opts *rootOptions) *cobra.Command {
	var (
		action string
		out    outputFlags
	)
	cmd := &cobra.Command{
		Use:   "show <slug>",
		Short: "Check one resource and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := out.validate(); err != nil {
				return err
			}
			a, err := opts.build(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			defer a.Logger.Sync()

			r, ok := a.Find(args[0])
			if !ok {
				return fmt.Errorf("no resource with slug %q", args[0])
			}
			a.Runner.Check(cmd.Context(), r, action)
			if err := render(cmd.OutOrStdout(), out, []*resource.Resource{r}); err != nil {
				return err
			}
			return exitFor(a.Codes, r.Status())
		},
	}
	cmd.Flags().StringVar(&action, "action", "cli", "action recorded on the check")
	out.register(cmd)
	return cmd
}

func newValidateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the configuration, resolve every checker and report problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			rs, err := app.Resources(cfg, probe.DefaultRegistry(), nil, zap.NewNop())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			targets := 0
			for _, r := range rs {
				targets += len(r.Targets())
			}
			fmt.Fprintf(w, "✔ %d resources, %d targets\n", len(rs), targets)
			for _, warning := range preflight(cfg) {
				fmt.Fprintln(w, "⚠", warning)
			}
			return nil
		},
	}
}

// preflight lists settings that are valid but probably not what a
// production deployment wants.
func preflight(cfg *config.Config) []string {
	var out []string
	if len(cfg.Auth.AdminKeys) == 0 {
		out = append(out, "auth.admin_keys is empty; POST /api/check is open to everyone")
	}
	if len(cfg.Auth.PublicKeys) == 0 && len(cfg.Auth.AdminKeys) == 0 {
		out = append(out, "no API keys configured; read routes are open")
	}
	if len(cfg.API.AllowedOrigins) == 0 {
		out = append(out, "api.allowed_origins is empty; CORS allows every origin")
	}
	if cfg.Store.Driver == "memory" {
		out = append(out, "store.driver is memory; notification latches are lost on restart")
	}
	if !cfg.Notifications.Enabled {
		out = append(out, "notifications.enabled is false; nothing will be sent")
	} else if len(cfg.Notifications.Channels) == 0 {
		out = append(out, "no notification channels configured")
	}
	return out
}

func render(w io.Writer, f outputFlags, rs []*resource.Resource) error {
	switch f.format {
	case "json":
		docs := make([]map[string]any, 0, len(rs))
		for _, r := range rs {
			docs = append(docs, r.Serialize(f.depth))
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(docs)
	case "yaml":
		docs := make([]map[string]any, 0, len(rs))
		for _, r := range rs {
			docs = append(docs, r.Serialize(f.depth))
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(docs)
	}
	blocks := make([]string, 0, len(rs))
	for _, r := range rs {
		blocks = append(blocks, fmt.Sprintf("[%s] %s", r.Abbreviation(), r.Summary()))
	}
	_, err := fmt.Fprintln(w, strings.Join(blocks, "\n\n"))
	return err
}

func exitFor(codes domain.ExitCodes, status domain.Status) error {
	if code := codes.Code(status); code != 0 {
		return &exitError{code: code}
	}
	return nil
}
