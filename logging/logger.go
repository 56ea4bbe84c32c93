// Package logging renders CLI output: tagged status lines, compile errors with
// the offending source excerpt, and debug traces from the compiler.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/pterm/pterm"
	"golang.org/x/term"
)

type Level int

// Enumeration of the different log levels
const (
	LevelSilent  Level = iota // no output at all
	LevelError                // only errors
	LevelWarning              // errors and warnings
	LevelVerbose              // errors, warnings and progress (DEFAULT)
	LevelDebug                // everything, including generated IR
)

var levelNames = [...]string{
	LevelSilent:  "silent",
	LevelError:   "error",
	LevelWarning: "warn",
	LevelVerbose: "verbose",
	LevelDebug:   "debug",
}

// LevelNames lists the accepted spellings in increasing verbosity.
func LevelNames() []string {
	return append([]string(nil), levelNames[:]...)
}

func (l Level) String() string {
	if l >= 0 && int(l) < len(levelNames) {
		return levelNames[l]
	}
	return fmt.Sprintf("level(%d)", int(l))
}

func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(i), nil
		}
	}
	if strings.EqualFold(s, "warning") {
		return LevelWarning, nil
	}
	return LevelSilent, fmt.Errorf("unknown log level '%s' (expected one of %s)", s, strings.Join(levelNames[:], ", "))
}

// Logger writes levelled messages. It is safe for concurrent use; the debug
// hook is called from compilations running on other goroutines.
type Logger struct {
	Level Level
	out   io.Writer

	// m serialises writes so multi-line messages are not interleaved
	m *sync.Mutex
}

func New(level Level, out io.Writer) *Logger {
	return &Logger{Level: level, out: out, m: &sync.Mutex{}}
}

// DetectColor turns colour output off unless f is a terminal.
func DetectColor(f *os.File) {
	if !term.IsTerminal(int(f.Fd())) {
		pterm.DisableColor()
	}
}

func (l *Logger) write(s string) {
	l.m.Lock()
	defer l.m.Unlock()
	fmt.Fprint(l.out, s)
}

// Error prints err under tag.
func (l *Logger) Error(tag string, err error) {
	if l.Level >= LevelError {
		l.write(errorMessage(tag, err))
	}
}

func (l *Logger) Warn(tag, msg string) {
	if l.Level >= LevelWarning {
		l.write(warningMessage(tag, msg))
	}
}

func (l *Logger) Info(tag, msg string) {
	if l.Level >= LevelVerbose {
		l.write(infoMessage(tag, msg))
	}
}

// Debugf traces compiler internals; only shown at LevelDebug.
func (l *Logger) Debugf(format string, args ...any) {
	if l.Level >= LevelDebug {
		msg := fmt.Sprintf(format, args...)
		if !strings.HasSuffix(msg, "\n") {
			msg += "\n"
		}
		l.write(DebugColorFG.Sprint("debug: ") + msg)
	}
}

// CompileError prints err with a banner and, when it carries a position,
// the matching line of src with a caret under the column.
func (l *Logger) CompileError(name, src string, err error) {
	if l.Level >= LevelError {
		l.write(compileErrorMessage(name, src, err))
	}
}
