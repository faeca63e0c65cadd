package iap

import (
	"context"
	"log/slog"
	"time"
)

// Programming phases reported through Progress.Phase.
const (
	PhaseUnprotecting = "unprotecting"
	PhaseErasing      = "erasing"
	PhaseProgramming  = "programming"
	PhaseVerifying    = "verifying"
	PhaseProtecting   = "protecting"
	PhaseComplete     = "complete"
)

// Progress contains information about the programming progress.
// Passed to ProgressCallback during Programmer.Program.
type Progress struct {
	// Phase is one of the Phase* constants
	Phase string

	// Address is the next address to be programmed
	Address uint32

	// BytesWritten is the number of image bytes programmed so far
	BytesWritten int

	// TotalBytes is the number of image bytes to program
	TotalBytes int

	// Percentage is the completion percentage (0.0 to 100.0)
	Percentage float64

	// ElapsedTime is the time elapsed since programming started
	ElapsedTime time.Duration
}

// ProgressCallback is called during programming to report progress.
// Implementations should return quickly; flash operations block the caller.
//
// Example:
//
//	prog, _ := iap.NewProgrammer(dev, region,
//	    iap.WithProgressCallback(func(p iap.Progress) {
//	        fmt.Printf("[%s] %.1f%% - 0x%08X\n", p.Phase, p.Percentage, p.Address)
//	    }),
//	)
type ProgressCallback func(Progress)

// Logger is an optional logging interface for flash operations.
//
// Example with standard log package:
//
//	type StdLogger struct{}
//	func (l *StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l *StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}

// NewSlogLogger adapts a *slog.Logger to Logger.
func NewSlogLogger(l *slog.Logger) Logger {
	return slogLogger{l: l}
}

type slogLogger struct {
	l *slog.Logger
}

func (s slogLogger) Debug(msg string, kv ...interface{}) {
	s.l.Log(context.Background(), slog.LevelDebug, msg, kv...)
}

func (s slogLogger) Info(msg string, kv ...interface{}) {
	s.l.Log(context.Background(), slog.LevelInfo, msg, kv...)
}

func (s slogLogger) Error(msg string, kv ...interface{}) {
	s.l.Log(context.Background(), slog.LevelError, msg, kv...)
}
