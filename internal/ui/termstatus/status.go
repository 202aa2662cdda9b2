// Package termstatus writes messages and updatable status lines to a
// terminal.
package termstatus

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/vandry/get-longhorn-backup/internal/ui"
)

var _ ui.Terminal = &Terminal{}

// Terminal is used to write messages and display status lines which can be
// updated. When the output is redirected to a file, the status lines are not
// printed.
type Terminal struct {
	wr              io.Writer
	fd              uintptr
	errWriter       io.Writer
	msg             chan message
	status          chan status
	lastStatusLen   int
	canUpdateStatus bool

	// will be closed when the goroutine which runs Run() terminates, so it'll
	// yield a default value immediately
	closed chan struct{}
}

type message struct {
	line    string
	err     bool
	barrier chan struct{}
}

type status struct {
	lines []string
}

type fder interface {
	Fd() uintptr
}

// Setup creates a new Terminal and starts its goroutine. The returned
// function flushes all pending output and must be called before exiting.
func Setup(stdout, stderr io.Writer, disableStatus bool) (*Terminal, func()) {
	var wg sync.WaitGroup
	ctx, cancel := context.WithCancel(context.Background())

	term := New(stdout, stderr, disableStatus)
	wg.Add(1)
	go func() {
		defer wg.Done()
		term.Run(ctx)
	}()

	return term, func() {
		term.Flush()
		cancel()
		wg.Wait()
	}
}

// New returns a new Terminal for wr. When wr is redirected to a file or is
// not an *os.File, no status lines are printed. Status lines and messages are
// written to wr, errors to errWriter. If disableStatus is set, no status lines
// are printed even if the terminal supports it.
func New(wr io.Writer, errWriter io.Writer, disableStatus bool) *Terminal {
	t := &Terminal{
		wr:        wr,
		errWriter: errWriter,
		msg:       make(chan message),
		status:    make(chan status),
		closed:    make(chan struct{}),
	}

	if disableStatus {
		return t
	}

	if d, ok := wr.(fder); ok && canUpdateStatus(d.Fd()) {
		t.canUpdateStatus = true
		t.fd = d.Fd()
	}

	return t
}

// CanUpdateStatus return whether the status output is updated in place.
func (t *Terminal) CanUpdateStatus() bool {
	return t.canUpdateStatus
}

// Run updates the screen. It should be run in a separate goroutine. When
// ctx is cancelled, the status lines are cleanly removed.
func (t *Terminal) Run(ctx context.Context) {
	defer close(t.closed)
	if t.canUpdateStatus {
		t.run(ctx)
		return
	}

	t.runWithoutStatus(ctx)
}

func (t *Terminal) writeFailed(err error) {
	_, _ = fmt.Fprintf(t.errWriter, "write failed: %v\n", err)
}

// run listens on the channels and updates the terminal screen.
func (t *Terminal) run(ctx context.Context) {
	var status []string
	for {
		select {
		case <-ctx.Done():
			t.writeStatus(nil)
			return

		case msg := <-t.msg:
			if msg.barrier != nil {
				msg.barrier <- struct{}{}
				continue
			}
			if err := clearCurrentLine(t.wr); err != nil {
				t.writeFailed(err)
				continue
			}

			dst := t.wr
			if msg.err {
				dst = t.errWriter
			}

			if _, err := io.WriteString(dst, msg.line); err != nil {
				t.writeFailed(err)
				continue
			}

			t.writeStatus(status)

		case stat := <-t.status:
			status = append(status[:0], stat.lines...)
			t.writeStatus(status)
		}
	}
}

func (t *Terminal) writeStatus(status []string) {
	statusLen := len(status)
	status = append([]string{}, status...)
	for i := len(status); i < t.lastStatusLen; i++ {
		// clear no longer used status lines
		status = append(status, "")
		if i > 0 {
			// all lines except the last one must have a line break
			status[i-1] = status[i-1] + "\n"
		}
	}
	t.lastStatusLen = statusLen

	for _, line := range status {
		if err := clearCurrentLine(t.wr); err != nil {
			t.writeFailed(err)
		}

		if _, err := io.WriteString(t.wr, line); err != nil {
			t.writeFailed(err)
		}
	}

	if len(status) > 0 {
		if err := moveCursorUp(t.wr, len(status)-1); err != nil {
			t.writeFailed(err)
		}
	}
}

// runWithoutStatus listens on the channels and just prints out the messages,
// without status lines.
func (t *Terminal) runWithoutStatus(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-t.msg:
			if msg.barrier != nil {
				msg.barrier <- struct{}{}
				continue
			}

			dst := t.wr
			if msg.err {
				dst = t.errWriter
			}

			if _, err := io.WriteString(dst, msg.line); err != nil {
				t.writeFailed(err)
			}

		case stat := <-t.status:
			for _, line := range stat.lines {
				// Ensure that each message ends with exactly one newline.
				if _, err := fmt.Fprintln(t.wr, strings.TrimRight(line, "\n")); err != nil {
					t.writeFailed(err)
				}
			}
		}
	}
}

// Flush waits for all pending messages to be printed.
func (t *Terminal) Flush() {
	ch := make(chan struct{})
	defer close(ch)
	select {
	case t.msg <- message{barrier: ch}:
	case <-t.closed:
	}
	select {
	case <-ch:
	case <-t.closed:
	}
}

func (t *Terminal) print(line string, isErr bool) {
	// make sure the line ends with a line break
	if len(line) == 0 || line[len(line)-1] != '\n' {
		line += "\n"
	}

	select {
	case t.msg <- message{line: line, err: isErr}:
	case <-t.closed:
	}
}

// Print writes a line to the terminal.
func (t *Terminal) Print(line string) {
	t.print(line, false)
}

// Error writes an error to the terminal.
func (t *Terminal) Error(line string) {
	t.print(line, true)
}

func sanitizeLines(lines []string, width int) []string {
	// Sanitize lines and truncate them if they're too long.
	for i, line := range lines {
		line = ui.Quote(line)
		if width > 0 {
			line = ui.Truncate(line, width-2)
		}
		if i < len(lines)-1 { // Last line gets no line break.
			line += "\n"
		}
		lines[i] = line
	}
	return lines
}

// SetStatus updates the status lines.
// The lines should not contain newlines; this method adds them.
// Pass nil or an empty array to remove the status lines.
func (t *Terminal) SetStatus(lines []string) {
	// only truncate interactive status output
	var w int
	if t.canUpdateStatus {
		w = width(t.fd)
		if w <= 0 {
			// use 80 columns by default
			w = 80
		}
	}

	sanitizeLines(lines, w)

	select {
	case t.status <- status{lines: lines}:
	case <-t.closed:
	}
}
