package types

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/kairos-io/diskplan/constants"
	"github.com/rs/zerolog"
)

// Logger is the zerolog based logger shared by every diskplan package.
// Callers use the embedded zerolog.Logger directly for structured fields.
type Logger struct {
	zerolog.Logger
	fileLock *flock.Flock
	logFile  *os.File
}

// NewLogger creates a logger with the given name and level, defaulting to info.
// $NAME_DEBUG and $NAME_TRACE override the level when set to any value.
// When journald is not reachable the log goes to /var/log/diskplan/<name>.log.
// If quiet is true nothing is written to the console.
func NewLogger(name, level string, quiet bool) Logger {
	var writers []io.Writer
	var fileLock *flock.Flock
	var logFile *os.File

	if isJournaldAvailable() {
		writers = append(writers, getJournaldWriter())
	} else {
		logFileName := filepath.Join(constants.LogDir, fmt.Sprintf("%s.log", name))
		if err := os.MkdirAll(constants.LogDir, os.ModeDir|0755); err == nil {
			f, err := os.OpenFile(logFileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, constants.FilePerm)
			if err == nil {
				logFile = f
				fileLock = flock.New(logFileName + ".lock")
				writers = append(writers, &lockedWriter{lock: fileLock, w: zerolog.ConsoleWriter{Out: f, TimeFormat: time.RFC3339, NoColor: true}})
			}
		}
	}

	if !quiet {
		writers = append(writers, zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.Out = os.Stderr
			w.TimeFormat = time.RFC3339
		}))
	}

	l, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		l = zerolog.InfoLevel
	}
	if os.Getenv(fmt.Sprintf("%s_DEBUG", strings.ToUpper(name))) != "" {
		l = zerolog.DebugLevel
	}
	if os.Getenv(fmt.Sprintf("%s_TRACE", strings.ToUpper(name))) != "" {
		l = zerolog.TraceLevel
	}

	return Logger{
		Logger:   zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger().Level(l),
		fileLock: fileLock,
		logFile:  logFile,
	}
}

func NewBufferLogger(b *bytes.Buffer) Logger {
	return Logger{Logger: zerolog.New(b).With().Timestamp().Logger()}
}

func NewNullLogger() Logger {
	return Logger{Logger: zerolog.New(io.Discard)}
}

// Close releases the log file, if any.
func (l *Logger) Close() {
	if l.logFile != nil {
		_ = l.logFile.Close()
		l.logFile = nil
	}
	l.fileLock = nil
}

func (l Logger) IsDebug() bool {
	return l.Logger.GetLevel() <= zerolog.DebugLevel
}

// lockedWriter holds the file lock for each write so several diskplan
// processes can share one log file.
type lockedWriter struct {
	lock *flock.Flock
	w    io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	if err := lw.lock.Lock(); err == nil {
		defer lw.lock.Unlock() //nolint:errcheck
	}
	return lw.w.Write(p)
}
