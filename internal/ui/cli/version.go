package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"zodlint/internal/engine/parser"
	"zodlint/internal/shared/version"
)

func newVersionCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(g.stdout, "zodlint %s\n", version.Version)
			fmt.Fprintf(g.stdout, "go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
			loader, err := parser.NewGrammarLoader()
			if err != nil {
				return err
			}
			fmt.Fprintf(g.stdout, "extensions: %v\n", loader.SupportedExtensions())
			return nil
		},
	}
}
