package common

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/rs/zerolog"
)

// Names of the loggers used by this module
var loggerNames = []string{"client", "transport", "discovery", "mock", "cli"}

// --------------------------------------------------------------------------
// Custom Logger (implements dragonboats logger.ILogger)
// --------------------------------------------------------------------------

// zeroLogger implements the ILogger interface on top of a zerolog logger
type zeroLogger struct {
	mu     sync.RWMutex
	level  logger.LogLevel
	logger zerolog.Logger
}

func (l *zeroLogger) SetLevel(level logger.LogLevel) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

func (l *zeroLogger) enabled(level logger.LogLevel) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level >= level
}

func (l *zeroLogger) Debugf(format string, args ...interface{}) {
	if l.enabled(logger.DEBUG) {
		l.logger.Debug().Msgf(format, args...)
	}
}

func (l *zeroLogger) Infof(format string, args ...interface{}) {
	if l.enabled(logger.INFO) {
		l.logger.Info().Msgf(format, args...)
	}
}

func (l *zeroLogger) Warningf(format string, args ...interface{}) {
	if l.enabled(logger.WARNING) {
		l.logger.Warn().Msgf(format, args...)
	}
}

func (l *zeroLogger) Errorf(format string, args ...interface{}) {
	if l.enabled(logger.ERROR) {
		l.logger.Error().Msgf(format, args...)
	}
}

func (l *zeroLogger) Panicf(format string, args ...interface{}) {
	if l.enabled(logger.CRITICAL) {
		l.logger.Panic().Msgf(format, args...)
	}
}

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

var (
	logOutputMu sync.Mutex
	logOutput   io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
)

// SetLogOutput replaces the writer used by loggers created afterwards
func SetLogOutput(w io.Writer) {
	logOutputMu.Lock()
	logOutput = w
	logOutputMu.Unlock()
}

// CreateLogger implements the dragonboat logger.Factory
func CreateLogger(pkgName string) logger.ILogger {
	logOutputMu.Lock()
	out := logOutput
	logOutputMu.Unlock()

	return &zeroLogger{
		level:  logger.INFO,
		logger: zerolog.New(out).With().Timestamp().Str("pkg", pkgName).Logger(),
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// ParseLogLevel converts a string level to logger.LogLevel
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DEBUG, nil
	case "info", "":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return logger.INFO, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

var factoryOnce sync.Once

// InitLoggers installs the zerolog backed factory and sets the level of all
// loggers of this module
func InitLoggers(level string) error {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return err
	}

	factoryOnce.Do(func() {
		logger.SetLoggerFactory(CreateLogger)
	})

	for _, name := range loggerNames {
		logger.GetLogger(name).SetLevel(lvl)
	}
	return nil
}
