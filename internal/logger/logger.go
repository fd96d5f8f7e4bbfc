package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const logFileName = "slack_files.log"

type LogLevel int

const (
	LevelError LogLevel = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// Until Init is called every event is discarded.
var (
	log     = zerolog.Nop()
	logFile io.Closer
)

func ParseLogLevel(lvl string) LogLevel {
	switch strings.ToUpper(lvl) {
	case "DEBUG":
		return LevelDebug
	case "ERROR":
		return LevelError
	case "WARN":
		return LevelWarn
	default:
		return LevelInfo
	}
}

func (l LogLevel) toZerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Init opens <logPath>/slack_files.log for appending. An empty logPath keeps
// logging disabled; the console is reserved for the progress line.
func Init(logPath string, logLevel LogLevel) error {
	if logPath == "" {
		Close()
		log = zerolog.Nop()
		return nil
	}

	if err := os.MkdirAll(logPath, 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(
		filepath.Join(logPath, logFileName),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND,
		0644,
	)
	if err != nil {
		return err
	}

	Close()
	logFile = f
	SetOutput(f, logLevel)
	return nil
}

// SetOutput sends log events to w at the given level.
func SetOutput(w io.Writer, logLevel LogLevel) {
	log = zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		TimeFormat: time.DateTime,
	}).Level(logLevel.toZerolog()).With().Timestamp().Logger()
}

// Close releases the log file opened by Init, if any.
func Close() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

func Info() *zerolog.Event  { return log.Info() }
func Warn() *zerolog.Event  { return log.Warn() }
func Error() *zerolog.Event { return log.Error() }
func Debug() *zerolog.Event { return log.Debug() }
