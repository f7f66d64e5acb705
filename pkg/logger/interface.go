package logger

// Logger defines a standard logging interface for the application
type Logger interface {
	Debug(message string, component string, data map[string]interface{})
	Info(message string, component string, data map[string]interface{})
	Warn(message string, component string, data map[string]interface{})
	Error(message string, component string, data map[string]interface{})
}

// DefaultLogger forwards to the global zerolog logger.
type DefaultLogger struct{}

// NewLogger creates a new instance of the default logger
func NewLogger() Logger {
	return &DefaultLogger{}
}

// Debug logs a debug event
func (l *DefaultLogger) Debug(message string, component string, data map[string]interface{}) {
	Debug(message, component, data)
}

// Info logs an info event
func (l *DefaultLogger) Info(message string, component string, data map[string]interface{}) {
	Info(message, component, data)
}

// Warn logs a warning event
func (l *DefaultLogger) Warn(message string, component string, data map[string]interface{}) {
	Warn(message, component, data)
}

// Error logs an error event
func (l *DefaultLogger) Error(message string, component string, data map[string]interface{}) {
	Error(message, component, data)
}

type nopLogger struct{}

// NewNopLogger returns a Logger that discards everything.
func NewNopLogger() Logger {
	return nopLogger{}
}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}

// OrDefault returns l, or the default logger when l is nil.
func OrDefault(l Logger) Logger {
	if l == nil {
		return NewLogger()
	}
	return l
}
