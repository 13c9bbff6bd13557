package whatsthat

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// NewLogger returns a text logger writing to sink at level.
// The returned close function releases the sink and must be called on shutdown.
func NewLogger(level, sink string) (*slog.Logger, func() error, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}

	var w io.Writer
	closeFn := func() error { return nil }
	switch {
	case sink == "" || sink == "stderr":
		w = os.Stderr
	case sink == "stdout":
		w = os.Stdout
	case strings.HasPrefix(sink, "file:"):
		f, err := os.OpenFile(strings.TrimPrefix(sink, "file:"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closeFn = f.Close
	default:
		return nil, nil, fmt.Errorf("unknown log sink %q", sink)
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				source, _ := a.Value.Any().(*slog.Source)
				if source != nil {
					source.File = filepath.Base(source.File)
				}
			}
			return a
		},
	}))
	return logger, closeFn, nil
}
