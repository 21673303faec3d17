package logger

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/writer"
)

type Options struct {
	// Level is the minimum level written to Console.
	Level log.Level
	// Console defaults to os.Stderr.
	Console io.Writer
	// File is an optional secondary log, opened in append mode and always written at debug level.
	File string
}

// Logger is a logrus logger fanned out to its sinks. Close releases the log file.
type Logger struct {
	*log.Logger
	file *os.File
}

func New(o Options) (*Logger, error) {
	l := &Logger{Logger: log.New()}
	l.SetOutput(io.Discard)
	l.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	console := o.Console
	if console == nil {
		console = os.Stderr
	}
	l.AddHook(&writer.Hook{Writer: console, LogLevels: levelsUpTo(o.Level)})
	level := o.Level

	if o.File != "" {
		f, err := os.OpenFile(o.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", o.File, err)
		}
		l.file = f
		l.AddHook(&writer.Hook{Writer: f, LogLevels: levelsUpTo(log.DebugLevel)})
		level = log.DebugLevel
	}
	l.SetLevel(maxLevel(level, o.Level))

	return l, nil
}

func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// levelsUpTo returns every level at least as severe as lvl.
func levelsUpTo(lvl log.Level) []log.Level {
	var out []log.Level
	for _, l := range log.AllLevels {
		if l <= lvl {
			out = append(out, l)
		}
	}
	return out
}

func maxLevel(a, b log.Level) log.Level {
	if a > b {
		return a
	}
	return b
}
