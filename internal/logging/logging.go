// Package logging wraps log/slog for the synthesis core, replacing the
// source's global ostream&/VERBOSE_FLAG pair (spec.md §9) with an
// explicit logger threaded through Config. Modeled after the layered
// slog wrapper in jinterlante1206-AleutianLocal's pkg/logging, trimmed
// to what the core actually needs: leveled, structured, no file sink.
package logging

import (
	"io"
	"log/slog"
)

// New builds a logger writing text-handler output to w at the given
// level. Passing io.Discard silences it entirely. Library entry points
// given a nil logger fall back to slog.Default(), not to a silent one.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Noop returns a logger that discards everything.
func Noop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
