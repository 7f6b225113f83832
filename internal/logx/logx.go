// Package logx configures the process logger.
package logx

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	sfmt "github.com/samber/slog-formatter"
)

// Setup builds the console logger and installs it as the slog default.
func Setup(level string, color bool) *slog.Logger {
	logger := slog.New(console(os.Stdout, ParseLevel(level), color))
	slog.SetDefault(logger)
	return logger
}

// New returns a console logger writing to output without touching the default.
func New(output io.Writer, level slog.Level) *slog.Logger {
	return slog.New(console(output, level, false))
}

func ParseLevel(input string) (level slog.Level) {
	if err := level.UnmarshalText([]byte(strings.TrimSpace(input))); err != nil {
		level = slog.LevelInfo
	}
	return level
}

func console(output io.Writer, verbose slog.Level, colorize bool) slog.Handler {
	if f, ok := output.(*os.File); ok && colorize {
		colorize = isatty.IsTerminal(f.Fd())
	} else {
		colorize = false
	}
	return sfmt.NewFormatterHandler(
		sfmt.ErrorFormatter("err"),
		sfmt.ErrorFormatter("error"),
	)(
		tint.NewHandler(output, &tint.Options{
			Level:      verbose,
			TimeFormat: "Jan 02 15:04:05.000",
			NoColor:    !colorize,
		}),
	)
}
