package logger

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/term"
)

type Level int

const (
	LevelDetail Level = iota
	LevelSuccess
	LevelWarn
	LevelError
	LevelFatal
)

var (
	logFile     *os.File
	logDir      string
	currentDay  string
	logMu       sync.Mutex
	fileLogging bool

	// Resolved once; stderr does not change tty-ness mid-run.
	colorize = term.IsTerminal(int(os.Stderr.Fd()))

	// Replaceable so Fatal is testable.
	exit = os.Exit
)

// Init enables mirroring of all log lines into a daily-rotated file under
// dir/logs. An empty dir leaves file logging off; console output is
// unaffected either way.
func Init(dir string) error {
	if dir == "" {
		return nil
	}
	resolved := dir
	if path.Base(filepath.ToSlash(dir)) != "logs" {
		resolved = filepath.Join(dir, "logs")
	}
	if err := os.MkdirAll(resolved, 0755); err != nil {
		return err
	}

	logMu.Lock()
	defer logMu.Unlock()
	logDir = resolved
	fileLogging = true
	if err := rotateLocked(time.Now()); err != nil {
		fileLogging = false
		return err
	}
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	fileLogging = false
}

func Detail(format string, args ...interface{}) {
	log(LevelDetail, format, args...)
}

func Success(format string, args ...interface{}) {
	log(LevelSuccess, format, args...)
}

func Warn(format string, args ...interface{}) {
	log(LevelWarn, format, args...)
}

func Error(format string, args ...interface{}) {
	log(LevelError, format, args...)
}

// Fatal reports and exits. Reserved for the CLI layer; normalization steps
// return errors instead.
func Fatal(format string, args ...interface{}) {
	log(LevelFatal, format, args...)
	Close()
	exit(1)
}

// Step announces position i of n in an orchestrated sequence.
func Step(i, n int, format string, args ...interface{}) {
	log(LevelDetail, "[%d/%d] %s", i, n, fmt.Sprintf(format, args...))
}

func log(lvl Level, format string, args ...interface{}) {
	nowTime := time.Now()
	now := nowTime.Format("2006/01/02 15:04:05")
	msg := fmt.Sprintf(format, args...)
	var label, colorStart string
	switch lvl {
	case LevelDetail:
		colorStart = "\033[36m" // Cyan
		label = "[INFO] "
	case LevelSuccess:
		colorStart = "\033[32m" // Green
		label = "[ OK ] "
	case LevelWarn:
		colorStart = "\033[33m" // Yellow
		label = "[WARN] "
	case LevelError:
		colorStart = "\033[31m" // Red
		label = "[EROR] " // 4 chars align
	case LevelFatal:
		colorStart = "\033[31m"
		label = "[FATL] "
	}

	// File output (no color), with daily rollover.
	if fileLogging {
		line := fmt.Sprintf("%s %s%s\n", now, label, msg)
		logMu.Lock()
		if err := rotateLocked(nowTime); err == nil && logFile != nil {
			_, _ = logFile.WriteString(line)
		}
		logMu.Unlock()
	}

	// Stderr so that command output stays clean on stdout.
	if colorize {
		fmt.Fprintf(os.Stderr, "%s %s%s\033[0m%s\n", now, colorStart, label, msg)
	} else {
		fmt.Fprintf(os.Stderr, "%s %s%s\n", now, label, msg)
	}
}

func rotateLocked(t time.Time) error {
	if logDir == "" {
		return nil
	}
	day := t.Format("2006-01-02")
	if logFile != nil && currentDay == day {
		return nil
	}
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	filePath := filepath.Join(logDir, day+".log")
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	logFile = f
	currentDay = day
	return nil
}
