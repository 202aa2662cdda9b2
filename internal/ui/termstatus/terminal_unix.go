package termstatus

import (
	"io"
	"os"

	"golang.org/x/term"
)

const (
	posixControlMoveCursorHome = "\r"
	posixControlMoveCursorUp   = "\x1b[1A"
	posixControlClearLine      = "\x1b[2K"
)

// clearCurrentLine removes all characters from the current line and resets the
// cursor position to the first column.
func clearCurrentLine(wr io.Writer) error {
	_, err := wr.Write([]byte(posixControlMoveCursorHome + posixControlClearLine))
	return err
}

// moveCursorUp moves the cursor to the line n lines above the current one.
func moveCursorUp(wr io.Writer, n int) error {
	for ; n > 0; n-- {
		if _, err := wr.Write([]byte(posixControlMoveCursorUp)); err != nil {
			return err
		}
	}
	return nil
}

// canUpdateStatus returns true if status lines can be printed, the process
// output is not redirected to a file or pipe.
func canUpdateStatus(fd uintptr) bool {
	if !term.IsTerminal(int(fd)) {
		return false
	}
	term := os.Getenv("TERM")
	if term == "" {
		return false
	}
	return term != "dumb"
}

// width returns the number of columns of the terminal, or 0 if unknown.
func width(fd uintptr) int {
	w, _, err := term.GetSize(int(fd))
	if err != nil {
		return 0
	}
	return w
}
