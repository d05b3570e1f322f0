package cli

import (
	"context"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/specmock/pkg/config"
	"github.com/getmockd/specmock/pkg/engine"
	"github.com/getmockd/specmock/pkg/spec"
)

// shutdownGrace bounds the graceful shutdown on SIGINT/SIGTERM.
const shutdownGrace = 5 * time.Second

func newServeCommand(a *app) *cobra.Command {
	d := config.Default()

	cmd := &cobra.Command{
		Use:   "serve [spec]",
		Short: "Serve mock responses for an OpenAPI document",
		Long: `Serve every operation of an OpenAPI document.

Unmatched requests get 404 {"message":"Not found"}. Requests failing
validation get the status of the failing step, and the step name in the
X-Specmock-Validation-Step header. Control routes are served under
/__specmock (health, operations).

Example:
  specmock serve petstore.yaml
  specmock serve petstore.yaml --port 8080 --base-path /v1 --watch
  specmock serve api.yaml --include '/users/**' --seed 42`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.runServe(ctx, cmd, args)
		},
	}

	f := cmd.Flags()
	f.String("host", d.Server.Host, "interface to listen on")
	f.IntP("port", "p", d.Server.Port, "port to listen on (0 picks a free port)")
	f.String("base-path", "", "mount the mock under this path prefix, e.g. /v1")
	f.Bool("watch", false, "reload the document when the file changes")
	f.Bool("strict", false, "lint the document before serving it")
	f.StringSlice("include", nil, "only serve operations whose path matches one of these globs")
	f.StringSlice("exclude", nil, "skip operations whose path matches one of these globs")
	f.Bool("validate-requests", d.Validation.Enabled, "validate requests before answering")
	f.Int("rejected-credential-status", d.Validation.RejectedCredentialStatus, "status for rejected credentials: 401 or 403")
	addGeneratorFlags(cmd, d)

	a.bind(f, map[string]string{
		"server.host":                         "host",
		"server.port":                         "port",
		"server.basePath":                     "base-path",
		"spec.watch":                          "watch",
		"spec.strict":                         "strict",
		"spec.include":                        "include",
		"spec.exclude":                        "exclude",
		"validation.enabled":                  "validate-requests",
		"validation.rejectedCredentialStatus": "rejected-credential-status",
	})
	a.bind(f, generatorFlagKeys)
	return cmd
}

func (a *app) runServe(ctx context.Context, cmd *cobra.Command, args []string) error {
	cfg, err := a.config(args)
	if err != nil {
		return err
	}
	log := a.logger(cmd, cfg)

	doc, err := loadSpec(ctx, cfg)
	if err != nil {
		return err
	}

	opts := []engine.HandlerOption{
		engine.WithLogger(log),
		engine.WithGeneratorOptions(cfg.GeneratorOptions()),
		engine.WithValidationOptions(cfg.ValidationOptions()),
	}
	if !cfg.Validation.Enabled {
		opts = append(opts, engine.WithoutValidation())
	}
	handler, err := engine.NewHandler(doc, opts...)
	if err != nil {
		return err
	}

	if cfg.Spec.Watch {
		w := engine.NewWatcher(handler, cfg.Spec.File,
			func() (*spec.Document, error) { return loadSpec(ctx, cfg) },
			engine.WithWatcherLogger(log),
		)
		if _, err := w.Start(); err != nil {
			return err
		}
		defer w.Stop()
	}

	srv := engine.NewServer(handler,
		engine.WithAddress(net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))),
		engine.WithBasePath(cfg.Server.BasePath),
		engine.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		engine.WithServerLogger(log),
	)

	log.Info("serving OpenAPI document",
		"file", cfg.Spec.File,
		"title", doc.Title,
		"operations", len(doc.Operations),
		"validation", cfg.Validation.Enabled,
		"locale", cfg.Generator.Locale,
	)
	return srv.Run(ctx, shutdownGrace)
}
