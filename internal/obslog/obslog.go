// Package obslog builds the diagnostic logger handed to avr.CPU.SetLogger.
// The teacher reports errors with a bare fmt.Println; this fans structured
// step-loop diagnostics out to stderr and, optionally, a file, the way
// the retrieval pack's cucaracha reference uses slog-multi.
package obslog

import (
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// New builds a logger at Info level writing to stderr, or Debug level
// fanned out to stderr plus logFile when verbose is set. Direct UDR
// output never goes through this logger; it stays a raw byte stream.
func New(verbose bool, logFile string) *slog.Logger {
	level := slog.LevelInfo
	handlers := []slog.Handler{slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})}

	if verbose {
		level = slog.LevelDebug
		handlers[0] = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})

		if logFile != "" {
			f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err == nil {
				handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
			}
		}
	}

	if len(handlers) == 1 {
		return slog.New(handlers[0])
	}
	return slog.New(slogmulti.Fanout(handlers...))
}
