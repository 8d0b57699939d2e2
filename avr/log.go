package avr

import "log/slog"

// noopLogger discards everything. Used whenever a caller doesn't care to
// observe diagnostic events, so CPU and Bus never need a nil check before
// logging.
var noopLogger = slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{
	Level: slog.LevelError + 1,
}))

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// SetLogger attaches a logger the CPU uses for step-loop diagnostics
// (device resets, sleep transitions, interrupt dispatch). cmd/avrvm wires
// this to internal/obslog's logger, a slog-multi fan-out when -v and a log
// file are both given; direct UDR output never goes through it, staying a
// raw unprefixed byte stream.
func (c *CPU) SetLogger(l *slog.Logger) {
	if l == nil {
		l = noopLogger
	}
	c.log = l
}
