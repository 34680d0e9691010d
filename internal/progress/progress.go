// Package progress prints install progress for interactive runs.
package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
)

// Reporter writes one line per unit, rewriting it in place on terminals.
type Reporter struct {
	w     io.Writer
	tty   bool
	batch string
	total int
	done  int
}

// New returns a reporter writing to w. Terminal detection applies when w is
// an *os.File.
func New(w io.Writer) *Reporter {
	r := &Reporter{w: w}
	if f, ok := w.(*os.File); ok {
		r.tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return r
}

// Interactive reports whether output goes to a terminal.
func (r *Reporter) Interactive() bool { return r.tty }

func (r *Reporter) StartBatch(name string, total int) {
	r.batch, r.total, r.done = name, total, 0
	if total == 0 {
		return
	}
	fmt.Fprintf(r.w, "Installing %d %s\n", total, name)
}

func (r *Reporter) Unit(path string) {
	r.done++
	line := fmt.Sprintf("[%d/%d] %s", r.done, r.total, filepath.Base(path))
	if r.tty {
		fmt.Fprintf(r.w, "\r\033[K%s", line)
		return
	}
	fmt.Fprintln(r.w, line)
}

func (r *Reporter) EndBatch() {
	if r.tty && r.done > 0 {
		fmt.Fprintln(r.w)
	}
}
