package console

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Logger writes severity-coded messages to the console. Informational and
// success output goes to Out, warnings and errors to Err. Colors are disabled
// automatically when the destination is not a TTY via fatih/color.
type Logger struct {
	Out io.Writer
	Err io.Writer

	success *color.Color
	warn    *color.Color
	fail    *color.Color
	head    *color.Color
}

// New creates a Logger writing to stdout/stderr with the standard scheme:
// green for success, yellow for warnings, red for errors, cyan for headings.
func New() *Logger {
	return NewWithWriters(os.Stdout, os.Stderr)
}

// NewWithWriters creates a Logger with explicit destinations, for tests.
func NewWithWriters(out, err io.Writer) *Logger {
	return &Logger{
		Out:     out,
		Err:     err,
		success: color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		fail:    color.New(color.FgRed),
		head:    color.New(color.FgCyan, color.Bold),
	}
}

func (l *Logger) Infof(format string, args ...any) {
	fmt.Fprintf(l.Out, format+"\n", args...)
}

func (l *Logger) Successf(format string, args ...any) {
	l.success.Fprintf(l.Out, format+"\n", args...)
}

// Warningf writes a yellow WARNING line to Err. Warnings never affect the
// process exit code.
func (l *Logger) Warningf(format string, args ...any) {
	l.warn.Fprintf(l.Err, "WARNING: "+format+"\n", args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.fail.Fprintf(l.Err, "ERROR: "+format+"\n", args...)
}

// Banner writes a heading framed by separator rules.
func (l *Logger) Banner(title string) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(l.Out, rule)
	l.head.Fprintln(l.Out, title)
	fmt.Fprintln(l.Out, rule)
}
