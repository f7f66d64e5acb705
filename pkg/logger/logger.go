package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel defines the severity level for log events.
type LogLevel string

const (
	// DebugLevel indicates detailed tracing information, such as full ffmpeg command lines.
	DebugLevel LogLevel = "debug"
	// InfoLevel indicates general operational information.
	InfoLevel LogLevel = "info"
	// WarnLevel indicates potentially harmful situations or unexpected events.
	WarnLevel LogLevel = "warn"
	// ErrorLevel indicates a failed operation; the application keeps running.
	ErrorLevel LogLevel = "error"
	// FatalLevel indicates a startup failure that aborts the command.
	FatalLevel LogLevel = "fatal"
)

// Output formats accepted by Configure.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Init initializes the global zerolog logger with JSON output to stderr and Unix timestamps.
// This should typically be called once at application startup.
func Init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(os.Stderr)
}

// Configure replaces the global logger's level and output format.
// format is "json" or "console"; w defaults to stderr when nil.
func Configure(level, format string, w io.Writer) error {
	if w == nil {
		w = os.Stderr
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		return fmt.Errorf("invalid log level %q", level)
	}
	zerolog.SetGlobalLevel(lvl)

	switch strings.ToLower(format) {
	case "", FormatJSON:
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
	case FormatConsole:
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}).With().Timestamp().Logger()
	default:
		return fmt.Errorf("invalid log format %q", format)
	}
	return nil
}

// Log is the core logging function.
// Use the level functions (Debug, Info, Warn, Error, Fatal) instead of calling Log directly.
func Log(level LogLevel, message, component string, data map[string]interface{}) {
	logger := log.With().
		Str("component", component).
		Fields(data).
		Logger()

	switch level {
	case DebugLevel:
		logger.Debug().Msg(message)
	case InfoLevel:
		logger.Info().Msg(message)
	case WarnLevel:
		logger.Warn().Msg(message)
	case ErrorLevel:
		logger.Error().Msg(message)
	case FatalLevel:
		logger.Fatal().Msg(message)
	}
}

// Debug logs a message at the Debug level with the specified component and optional data.
func Debug(message, component string, data map[string]interface{}) {
	Log(DebugLevel, message, component, data)
}

// Info logs a message at the Info level with the specified component and optional data.
func Info(message, component string, data map[string]interface{}) {
	Log(InfoLevel, message, component, data)
}

// Warn logs a message at the Warn level with the specified component and optional data.
func Warn(message, component string, data map[string]interface{}) {
	Log(WarnLevel, message, component, data)
}

// Error logs a message at the Error level with the specified component and optional data.
func Error(message, component string, data map[string]interface{}) {
	Log(ErrorLevel, message, component, data)
}

// Fatal logs a message at the Fatal level and then calls os.Exit(1).
// Only the CLI entry point uses it; library packages return errors instead.
func Fatal(message, component string, data map[string]interface{}) {
	Log(FatalLevel, message, component, data)
}
