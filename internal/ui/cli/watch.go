package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"zodlint/internal/core/app"
	"zodlint/internal/shared/observability"
	"zodlint/internal/shared/version"
	"zodlint/internal/ui/report/formats"
)

type watchOptions struct {
	noCache bool
	serve   bool
	addr    string
}

func newWatchCommand(g *globalOptions) *cobra.Command {
	opts := &watchOptions{}
	cmd := &cobra.Command{
		Use:   "watch [paths...]",
		Short: "Lint once, then re-lint files as they change",
		Long: `watch lints the given paths, then keeps running and re-lints every
changed file. Edits to the config file reload the rules and trigger a full
run. With observability enabled it serves /metrics and /health.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), g, opts, targetsOrDefault(args))
		},
	}
	f := cmd.Flags()
	f.BoolVar(&opts.noCache, "no-cache", false, "ignore the result cache")
	f.BoolVar(&opts.serve, "serve", false, "serve /metrics and /health (same as observability.enabled)")
	f.StringVar(&opts.addr, "addr", "", "listen address for --serve (default: :observability.port)")
	return cmd
}

func runWatch(ctx context.Context, g *globalOptions, opts *watchOptions, targets []string) error {
	a, p, err := g.openApp(app.Options{NoCache: opts.noCache})
	if err != nil {
		return err
	}
	defer a.Close()
	obs := p.cfg.Observability

	if obs.EnableTracing {
		shutdown, err := observability.SetupTracing(ctx, obs.OTLPEndpoint, version.Version)
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				slog.Warn("trace exporter shutdown failed", "error", err)
			}
		}()
	}

	if opts.serve || (obs.Enabled && obs.EnableMetrics) {
		addr := opts.addr
		if addr == "" {
			addr = fmt.Sprintf(":%d", obs.Port)
		}
		server := NewObservabilityServer(addr, app.NewHealthService(a))
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("start observability server: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Stop(sctx)
		}()
		fmt.Fprintf(g.stderr, "serving metrics on http://%s/metrics\n", server.Addr())
	}

	file, _ := g.stdout.(*os.File)
	fo := formats.Options{
		Root:    p.paths.ProjectRoot,
		Version: version.Version,
		Color:   formats.UseColor(p.cfg.Output.Color, file),
	}
	configPath := p.configPath
	if configPath != "" {
		if abs, err := filepath.Abs(configPath); err == nil {
			configPath = abs
		}
	}
	return a.Watch(ctx, targets, configPath, func(ev app.WatchEvent) {
		printWatchEvent(g.stdout, ev, fo)
	})
}

func printWatchEvent(w io.Writer, ev app.WatchEvent, opts formats.Options) {
	stamp := time.Now().Format("15:04:05")
	switch {
	case ev.Err != nil:
		fmt.Fprintf(w, "[%s] lint failed: %v\n", stamp, ev.Err)
		return
	case ev.Full:
		fmt.Fprintf(w, "[%s] full run\n", stamp)
	default:
		names := make([]string, 0, len(ev.Changed))
		for _, path := range ev.Changed {
			names = append(names, relPath(opts.Root, path))
		}
		if len(names) > 0 {
			fmt.Fprintf(w, "[%s] changed: %s\n", stamp, strings.Join(names, ", "))
		}
		for _, path := range ev.Removed {
			fmt.Fprintf(w, "[%s] removed: %s\n", stamp, relPath(opts.Root, path))
		}
		if len(ev.Changed) == 0 {
			return
		}
	}
	if err := formats.Text(w, ev.Summary, opts); err != nil {
		slog.Error("failed to render report", "error", err)
	}
}

func relPath(root, path string) string {
	if root == "" {
		return path
	}
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return path
}
