// Package logging builds the slog handler used by the CLI: coloured text on a
// terminal, or styled HTML blocks when output lands in a notebook cell.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/pingcap/errors"
)

type Format string

const (
	FormatAuto Format = "auto"
	FormatText Format = "text"
	FormatHTML Format = "html"
)

// Detect picks HTML when running under a Jupyter kernel.
func Detect(getenv func(string) string) Format {
	if getenv("JPY_PARENT_PID") != "" {
		return FormatHTML
	}
	return FormatText
}

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatAuto, FormatText, FormatHTML:
		return f, nil
	case "":
		return FormatAuto, nil
	default:
		return "", errors.Errorf("unknown log format %q (want auto, text or html)", s)
	}
}

func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, errors.Wrapf(err, "invalid log level %q", s)
	}
	return lvl, nil
}

// NewHandler returns a handler writing to w in the given format.
func NewHandler(w io.Writer, format Format, level slog.Leveler) slog.Handler {
	if format == FormatAuto {
		format = Detect(os.Getenv)
	}
	if format == FormatHTML {
		return NewHTMLHandler(w, level)
	}
	return tint.NewHandler(w, &tint.Options{
		AddSource:   false,
		Level:       level,
		ReplaceAttr: nil,
		TimeFormat:  time.Kitchen,
		NoColor:     !isTerminal(w),
	})
}

// Init installs the default logger.
func Init(w io.Writer, format Format, level slog.Leveler) *slog.Logger {
	logger := slog.New(NewHandler(w, format, level))
	slog.SetDefault(logger)
	return logger
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
