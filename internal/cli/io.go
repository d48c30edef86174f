package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoInput is returned when a hook receives fewer stdin lines than it needs.
var ErrNoInput = errors.New("no input provided")

// IO handles command input and output.
//
// Hooks talk to the task manager over stdout, so anything that is not a task
// record or user feedback goes to stderr.
type IO struct {
	in       *bufio.Reader
	out      io.Writer
	errOut   io.Writer
	warnings []string
}

// NewIO creates a new IO instance. in may be nil.
func NewIO(in io.Reader, out, errOut io.Writer) *IO {
	if in == nil {
		in = strings.NewReader("")
	}

	return &IO{in: bufio.NewReader(in), out: out, errOut: errOut}
}

// ReadLine returns the next stdin line without its line ending. It returns
// [ErrNoInput] when stdin is exhausted.
func (o *IO) ReadLine() (string, error) {
	line, err := o.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read stdin: %w", err)
	}

	if err != nil && line == "" {
		return "", ErrNoInput
	}

	return strings.TrimRight(line, "\r\n"), nil
}

// Warn records a non-fatal problem. Warnings are printed to stderr by
// [IO.Finish] and do not change the exit code, because a failing hook makes
// the task manager reject the change.
func (o *IO) Warn(format string, a ...any) {
	o.warnings = append(o.warnings, fmt.Sprintf(format, a...))
}

// Println writes to stdout.
func (o *IO) Println(a ...any) {
	_, _ = fmt.Fprintln(o.out, a...)
}

// Printf writes formatted output to stdout.
func (o *IO) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(o.out, format, a...)
}

// ErrPrintln writes to stderr.
func (o *IO) ErrPrintln(a ...any) {
	_, _ = fmt.Fprintln(o.errOut, a...)
}

// Finish prints collected warnings to stderr.
func (o *IO) Finish() {
	for _, w := range o.warnings {
		o.ErrPrintln("warning:", w)
	}

	o.warnings = nil
}
