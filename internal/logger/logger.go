package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// LoggerConf holds configuration related to logging
type LoggerConf struct {
	Dir    string `yaml:"dir"`
	StdErr bool   `yaml:"stderr"`
}

// InternalLoggerConf configures application-internal logging.
// Level accepts standard log levels (e.g. DEBUG, INFO, WARN, ERROR).
// When Smart logging is enabled, errors are duplicated to a dedicated directory.
type InternalLoggerConf struct {
	LoggerConf `yaml:",inline"`
	Level      string          `yaml:"level"`
	Smart      SmartLoggerConf `yaml:"smart"`
}

// SmartLoggerConf enables and configures 'smart' logging. If Enabled, error
// logs are also written to Dir.
type SmartLoggerConf struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

var accessWriter io.Writer = os.Stderr

// Init configures the process-wide logrus logger and the access log writer.
func Init(access LoggerConf, internal InternalLoggerConf) {
	log.SetFormatter(
		&log.TextFormatter{
			FullTimestamp: true,
		},
	)
	level, err := log.ParseLevel(strings.ToLower(internal.Level))
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetOutput(openLogWriter(internal.LoggerConf, "internal.log"))
	if internal.Smart.Enabled {
		dir := internal.Smart.Dir
		if dir == "" {
			dir = internal.Dir
		}
		if f := openLogFile(dir, "errors.log"); f != nil {
			log.AddHook(&errorFileHook{out: f})
		}
	}
	accessWriter = openLogWriter(access, "access.log")
}

// AccessWriter returns the writer the http access log goes to.
func AccessWriter() io.Writer {
	return accessWriter
}

func openLogWriter(c LoggerConf, name string) io.Writer {
	f := openLogFile(c.Dir, name)
	switch {
	case f == nil:
		return os.Stderr
	case c.StdErr:
		return io.MultiWriter(f, os.Stderr)
	default:
		return f
	}
}

func openLogFile(dir, name string) *os.File {
	if dir == "" {
		return nil
	}
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		log.WithError(err).WithField("file", name).Error("could not open log file")
		return nil
	}
	return f
}

// errorFileHook duplicates error-and-above entries to a dedicated file.
type errorFileHook struct {
	out io.Writer
}

// Levels implements log.Hook
func (h *errorFileHook) Levels() []log.Level {
	return []log.Level{log.PanicLevel, log.FatalLevel, log.ErrorLevel}
}

// Fire implements log.Hook
func (h *errorFileHook) Fire(entry *log.Entry) error {
	line, err := entry.Bytes()
	if err != nil {
		return err
	}
	_, err = h.out.Write(line)
	return err
}
