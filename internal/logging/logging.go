package logging

import (
	"io"
	"log/slog"
	"os"
)

// Init installs the default logger: text on stderr, Debug when verbose,
// Info otherwise.
func Init(verbose bool) {
	slog.SetDefault(New(os.Stderr, verbose))
}

// New returns a text logger writing to w.
func New(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
