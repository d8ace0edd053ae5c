// Package logging prints console status lines and mirrors them to an optional log file.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/fatih/color"
)

var (
	mu      sync.Mutex
	logFile *os.File
	fileLog *log.Logger

	out   io.Writer = os.Stdout
	quiet bool
	debug bool

	successMark = color.New(color.FgGreen).SprintFunc()
	noticeMark  = color.New(color.FgYellow).SprintFunc()
	debugMark   = color.New(color.FgCyan).SprintFunc()
)

// Init opens logPath for appending and mirrors every message into it.
// An empty path disables the file log.
func Init(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
		fileLog = nil
	}
	if logPath == "" {
		return nil
	}
	if dir := filepath.Dir(logPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	logFile = file
	fileLog = log.New(file, "", log.LstdFlags)
	return nil
}

// Close flushes and closes the file log, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	fileLog = nil
	return err
}

// SetOutput redirects console output. A nil writer restores stdout.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stdout
	}
	out = w
}

// SetQuiet suppresses informational console lines. Notices still print.
func SetQuiet(v bool) {
	mu.Lock()
	quiet = v
	mu.Unlock()
}

// SetDebug enables Debug output.
func SetDebug(v bool) {
	mu.Lock()
	debug = v
	mu.Unlock()
}

// Event prints an informational line.
func Event(format string, args ...any) {
	emit(false, "", "INFO", fmt.Sprintf(format, args...))
}

// Success prints a "✓" line.
func Success(format string, args ...any) {
	emit(false, successMark("✓")+" ", "OK", fmt.Sprintf(format, args...))
}

// Notice prints a "⚠" line for a skipped input or comparison.
func Notice(format string, args ...any) {
	emit(true, noticeMark("⚠")+" ", "NOTICE", fmt.Sprintf(format, args...))
}

// Debug prints only when debug output is enabled; the file log always gets it.
func Debug(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	mu.Lock()
	defer mu.Unlock()
	if fileLog != nil {
		fileLog.Printf("DEBUG %s", msg)
	}
	if debug {
		fmt.Fprintf(out, "%s %s\n", debugMark("[debug]"), msg)
	}
}

func emit(always bool, mark, level, msg string) {
	mu.Lock()
	defer mu.Unlock()
	if fileLog != nil {
		fileLog.Printf("%s %s", level, msg)
	}
	if quiet && !always {
		return
	}
	fmt.Fprintf(out, "%s%s\n", mark, msg)
}
