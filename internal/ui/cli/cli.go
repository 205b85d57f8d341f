// # internal/ui/cli/cli.go
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"zodlint/internal/core/app"
	"zodlint/internal/core/config"
	"zodlint/internal/shared/version"
)

const (
	exitOK       = 0
	exitProblems = 1
	exitUsage    = 2
)

// exitError carries a process exit code through cobra without printing.
type exitError struct {
	code int
}

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

type globalOptions struct {
	configPath string
	verbose    bool
	color      string

	stdout io.Writer
	stderr io.Writer
}

// Run executes the command line and returns the process exit code.
func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return Execute(ctx, args, os.Stdout, os.Stderr)
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand(stdout, stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	var exit exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return exitUsage
}

func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	g := &globalOptions{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "zodlint",
		Short: "Lint Zod schemas in TypeScript and JavaScript sources",
		Long: `zodlint checks Zod schema definitions for common mistakes and style
issues, and can rewrite many of them in place with --fix.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(g.stderr, g.verbose)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "config file (default: zodlint.toml or zodlint.yaml in the project)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "verbose output")
	root.PersistentFlags().StringVar(&g.color, "color", "", "colorize output: auto, always or never")

	root.SetVersionTemplate("zodlint {{.Version}}\n")

	root.AddCommand(newLintCommand(g))
	root.AddCommand(newWatchCommand(g))
	root.AddCommand(newRulesCommand(g))
	root.AddCommand(newHistoryCommand(g))
	root.AddCommand(newVersionCommand(g))
	return root
}

func configureLogging(w io.Writer, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// project is the resolved configuration of one invocation.
type project struct {
	cfg        *config.Config
	configPath string
	paths      config.ResolvedPaths
}

func (g *globalOptions) loadProject() (project, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return project{}, err
	}
	cfg, path, err := config.Resolve(g.configPath, cwd)
	if err != nil {
		return project{}, err
	}
	if g.color != "" {
		cfg.Output.Color = g.color
	}
	paths, err := config.ResolvePaths(cfg, cwd)
	if err != nil {
		return project{}, err
	}
	if path != "" {
		slog.Debug("loaded config", "path", path)
	}
	return project{cfg: cfg, configPath: path, paths: paths}, nil
}

func (g *globalOptions) openApp(opts app.Options) (*app.App, project, error) {
	p, err := g.loadProject()
	if err != nil {
		return nil, project{}, err
	}
	a, err := app.New(p.cfg, p.paths, opts)
	if err != nil {
		return nil, project{}, err
	}
	return a, p, nil
}

func targetsOrDefault(args []string) []string {
	if len(args) == 0 {
		return []string{"."}
	}
	return args
}
