// # cmd/zodlint/main.go
package main

import (
	"log/slog"
	"os"

	"zodlint/internal/ui/cli"
)

func main() {
	// Replaced once flags are parsed; covers errors raised before that.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	os.Exit(cli.Run(os.Args[1:]))
}
