package logs

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the process-wide logger. It logs to stdout at info level until
// Init is called.
var Logger = logrus.New()

// Options configures the global logger.
type Options struct {
	Level      string // trace|debug|info|warning|error|fatal
	Format     string // text|json
	File       string // log file path; stdout only when empty
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Init replaces the global logger according to opts.
func Init(opts Options) {
	l := logrus.New()
	l.SetLevel(parseLevel(opts.Level))

	if opts.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   true,
		}
		l.SetOutput(io.MultiWriter(rotator, os.Stdout))
	} else {
		l.SetOutput(os.Stdout)
	}

	Logger = l
}

// Discard silences the global logger. Used by tests.
func Discard() {
	l := logrus.New()
	l.SetOutput(io.Discard)
	Logger = l
}

func parseLevel(s string) logrus.Level {
	switch s {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warning", "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}
