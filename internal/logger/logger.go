// Package logger provides process-wide structured logging for regelrag.
//
// Console output goes to stderr: warnings and errors always, debug and
// info only in verbose mode (--verbose). When a log file is configured,
// entries at the configured level are also written there as JSON lines.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/phuslu/log"
	"golang.org/x/term"
)

var (
	mu        sync.RWMutex
	verbose   bool
	output    io.Writer = os.Stderr
	fileLevel           = log.InfoLevel
	file      *log.FileWriter
	current   = build()
)

// SetVerbose enables or disables verbose console logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	current = build()
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the console writer.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	current = build()
}

// Configure sets the file log level and path. An empty path disables file logging.
func Configure(level, path string) error {
	lvl := log.InfoLevel
	if level != "" {
		lvl = log.ParseLevel(strings.ToLower(level))
		if !validLevel(level) {
			return fmt.Errorf("unknown log level %q", level)
		}
	}

	mu.Lock()
	defer mu.Unlock()

	if file != nil {
		_ = file.Close()
		file = nil
	}
	if path != "" {
		file = &log.FileWriter{
			Filename:     path,
			MaxSize:      10 << 20,
			MaxBackups:   5,
			EnsureFolder: true,
		}
	}
	fileLevel = lvl
	current = build()
	return nil
}

// Close flushes and closes the log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	current = build()
	return err
}

// L returns the structured logger.
func L() *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Debug logs a formatted debug message.
func Debug(format string, args ...any) {
	L().Debug().Msgf(format, args...)
}

// Info logs a formatted informational message.
func Info(format string, args ...any) {
	L().Info().Msgf(format, args...)
}

// Warn logs a formatted warning.
func Warn(format string, args ...any) {
	L().Warn().Msgf(format, args...)
}

// Error logs a formatted error.
func Error(format string, args ...any) {
	L().Error().Msgf(format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// build assembles the logger from the current settings. Callers hold mu.
func build() *log.Logger {
	consoleLevel := log.WarnLevel
	if verbose {
		consoleLevel = log.DebugLevel
	}

	writers := log.MultiEntryWriter{
		&levelWriter{min: consoleLevel, w: &log.ConsoleWriter{
			Writer:      output,
			ColorOutput: isTerminal(output),
		}},
	}
	level := consoleLevel
	if file != nil {
		writers = append(writers, &levelWriter{min: fileLevel, w: file})
		if fileLevel < level {
			level = fileLevel
		}
	}

	return &log.Logger{
		Level:  level,
		Writer: &writers,
	}
}

// levelWriter drops entries below min.
type levelWriter struct {
	min log.Level
	w   log.Writer
}

func (l *levelWriter) WriteEntry(e *log.Entry) (int, error) {
	if e.Level < l.min {
		return 0, nil
	}
	return l.w.WriteEntry(e)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func validLevel(level string) bool {
	switch strings.ToLower(level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic":
		return true
	}
	return false
}
