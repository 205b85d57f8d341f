package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"zodlint/internal/core/app"
	"zodlint/internal/engine/lint"
	"zodlint/internal/shared/util"
	"zodlint/internal/shared/version"
	"zodlint/internal/ui/report/formats"
)

type lintOptions struct {
	fix         bool
	format      string
	output      string
	maxWarnings int
	noCache     bool
	workers     int
}

func newLintCommand(g *globalOptions) *cobra.Command {
	opts := &lintOptions{}
	cmd := &cobra.Command{
		Use:   "lint [paths...]",
		Short: "Lint files and directories (default: current directory)",
		Example: `  zodlint lint src
  zodlint lint --fix src/schemas
  zodlint lint --format sarif --output zodlint.sarif .`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(cmd, g, opts, targetsOrDefault(args))
		},
	}
	f := cmd.Flags()
	f.BoolVar(&opts.fix, "fix", false, "apply automatic fixes and write files in place")
	f.StringVarP(&opts.format, "format", "f", "", "output format: json, markdown, sarif or text")
	f.StringVarP(&opts.output, "output", "o", "", "write the report to this file instead of stdout")
	f.IntVar(&opts.maxWarnings, "max-warnings", -1, "exit with status 1 when warnings exceed this number")
	f.BoolVar(&opts.noCache, "no-cache", false, "ignore the result cache")
	f.IntVar(&opts.workers, "workers", 0, "number of files linted in parallel (default: run.workers)")
	return cmd
}

func runLint(cmd *cobra.Command, g *globalOptions, opts *lintOptions, targets []string) error {
	a, p, err := g.openApp(app.Options{Fix: opts.fix, NoCache: opts.noCache, Workers: opts.workers})
	if err != nil {
		return err
	}
	defer a.Close()

	format := p.cfg.Output.Format
	if opts.format != "" {
		format = opts.format
	}
	formatter, err := formats.Lookup(format)
	if err != nil {
		return err
	}
	output := p.cfg.Output.Path
	if opts.output != "" {
		output = opts.output
	}

	s, err := a.Lint(cmd.Context(), targets)
	if err != nil {
		return err
	}

	fo := formats.Options{
		Root:    p.paths.ProjectRoot,
		Version: version.Version,
		Rules:   a.EnabledRules(),
	}
	if err := writeReport(g.stdout, output, p.cfg.Output.Color, formatter, s, fo); err != nil {
		return err
	}
	if code := lintExitCode(s, opts.maxWarnings); code != exitOK {
		return exitError{code: code}
	}
	return nil
}

// writeReport renders s to path, or to stdout when path is empty. Color is
// only ever applied to a terminal stdout.
func writeReport(stdout io.Writer, path, colorMode string, f formats.Formatter, s lint.Summary, opts formats.Options) error {
	if path == "" {
		file, _ := stdout.(*os.File)
		opts.Color = formats.UseColor(colorMode, file)
		return f.Format(stdout, s, opts)
	}
	var buf bytes.Buffer
	if err := f.Format(&buf, s, opts); err != nil {
		return err
	}
	if err := util.WriteFileWithDirs(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

func lintExitCode(s lint.Summary, maxWarnings int) int {
	if s.Errors > 0 || s.Failed > 0 {
		return exitProblems
	}
	if maxWarnings >= 0 && s.Warnings > maxWarnings {
		return exitProblems
	}
	return exitOK
}
