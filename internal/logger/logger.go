package logger

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents different logging levels
type LogLevel int

const (
	// DEBUG level for detailed debugging information
	DEBUG LogLevel = iota
	// INFO level for general operational information
	INFO
	// WARN level for warning messages
	WARN
	// ERROR level for error messages
	ERROR
	// FATAL level for fatal errors that require immediate attention
	FATAL
)

var levelNames = map[LogLevel]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
	FATAL: "FATAL",
}

var zapLevels = map[LogLevel]zapcore.Level{
	DEBUG: zapcore.DebugLevel,
	INFO:  zapcore.InfoLevel,
	WARN:  zapcore.WarnLevel,
	ERROR: zapcore.ErrorLevel,
	FATAL: zapcore.FatalLevel,
}

// ParseLevel maps a config string such as "debug" to a LogLevel.
// Unknown values fall back to INFO.
func ParseLevel(s string) LogLevel {
	for level, name := range levelNames {
		if strings.EqualFold(s, name) {
			return level
		}
	}
	if strings.EqualFold(s, "warning") {
		return WARN
	}
	return INFO
}

// Logger is a component-scoped, leveled logger on top of zap
type Logger struct {
	level     zap.AtomicLevel
	root      *zap.Logger
	sugar     *zap.SugaredLogger
	component string
}

var (
	defaultLogger *Logger
	once          sync.Once
	mu            sync.Mutex
)

// InitLogger initializes the default logger
func InitLogger(level LogLevel, component string) {
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		defaultLogger = New(level, component, zapcore.Lock(os.Stdout))
	})
}

// GetLogger returns the default logger instance
func GetLogger() *Logger {
	mu.Lock()
	l := defaultLogger
	mu.Unlock()
	if l == nil {
		InitLogger(INFO, "default")
		mu.Lock()
		l = defaultLogger
		mu.Unlock()
	}
	return l
}

// New builds a logger writing console-encoded lines to w
func New(level LogLevel, component string, w zapcore.WriteSyncer) *Logger {
	atom := zap.NewAtomicLevelAt(zapLevels[level])
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), w, atom)
	root := zap.New(core)
	return &Logger{
		level:     atom,
		root:      root,
		sugar:     root.Named(component).Sugar(),
		component: component,
	}
}

// WithComponent creates a new logger with the specified component name
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		level:     l.level,
		root:      l.root,
		sugar:     l.root.Named(component).Sugar(),
		component: component,
	}
}

// SetLevel sets the logging level. Loggers derived with WithComponent share it.
func (l *Logger) SetLevel(level LogLevel) {
	l.level.SetLevel(zapLevels[level])
}

// Debug logs debug level messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Info logs info level messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Warn logs warning level messages
func (l *Logger) Warn(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// Error logs error level messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// Fatal logs fatal level messages and exits
func (l *Logger) Fatal(format string, args ...interface{}) {
	l.sugar.Fatalf(format, args...)
}

// WithError returns a logger that attaches err to every entry
func (l *Logger) WithError(err error) *Logger {
	return &Logger{
		level:     l.level,
		root:      l.root,
		sugar:     l.sugar.With(zap.Error(err)),
		component: l.component,
	}
}

// Sync flushes buffered entries
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}
