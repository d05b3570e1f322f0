// Package cli provides the command-line interface for specmock.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/getmockd/specmock/pkg/config"
	"github.com/getmockd/specmock/pkg/logging"
	"github.com/getmockd/specmock/pkg/spec"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// app is the state shared by the commands of one root command.
type app struct {
	v          *viper.Viper
	cfgFile    string
	jsonOutput bool
}

// NewRootCommand builds the specmock command tree.
func NewRootCommand() *cobra.Command {
	a := &app{v: config.NewViper()}

	root := &cobra.Command{
		Use:   "specmock",
		Short: "specmock serves validated mock responses from an OpenAPI document",
		Long: `specmock reads an OpenAPI 3.0 or 3.1 document and serves every operation in it.

Requests are resolved to an operation, validated against its security,
parameters and request body, and answered with the documented example or
a response generated from the schema.

Configuration can be provided via flags, SPECMOCK_* environment variables,
or a configuration file. By default, specmock looks for specmock.yaml in the
current directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default: specmock.yaml)")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "Output command results in JSON format")
	root.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().String("log-format", "text", "log format: text, json")
	a.bind(root.PersistentFlags(), map[string]string{
		"log.level":  "log-level",
		"log.format": "log-format",
	})

	root.AddCommand(
		newServeCommand(a),
		newValidateCommand(a),
		newGenerateCommand(a),
		newVersionCommand(a),
	)
	return root
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// bind maps config keys to flags.
func (a *app) bind(fs *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if f := fs.Lookup(name); f != nil {
			_ = a.v.BindPFlag(key, f)
		}
	}
}

// config loads the layered configuration. A positional spec argument wins
// over every other source.
func (a *app) config(args []string) (*config.Config, error) {
	if len(args) > 0 {
		a.v.Set("spec.file", args[0])
	}
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return nil, err
	}
	if cfg.Spec.File == "" {
		return nil, fmt.Errorf("no OpenAPI document given: pass it as an argument or set spec.file")
	}
	return cfg, nil
}

func (a *app) logger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	lc := cfg.Logging()
	lc.Output = cmd.ErrOrStderr()
	return logging.New(lc)
}

// loadSpec loads the configured document, linting it first in strict mode.
func loadSpec(ctx context.Context, cfg *config.Config) (*spec.Document, error) {
	if cfg.Spec.Strict {
		data, err := os.ReadFile(cfg.Spec.File)
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", spec.ErrFileNotFound, cfg.Spec.File)
		}
		if err != nil {
			return nil, fmt.Errorf("read spec: %w", err)
		}
		if err := spec.Lint(ctx, data); err != nil {
			return nil, err
		}
	}
	return spec.LoadFile(cfg.Spec.File,
		spec.WithInclude(cfg.Spec.Include...),
		spec.WithExclude(cfg.Spec.Exclude...),
	)
}
