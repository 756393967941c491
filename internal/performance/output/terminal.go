package output

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// isTerminal checks if the writer is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// supportsColors checks if the environment allows colored output.
func supportsColors(lookup func(string) string) bool {
	if lookup("NO_COLOR") != "" {
		return false
	}
	if lookup("FORCE_COLOR") != "" {
		return true
	}

	term := lookup("TERM")
	return term != "" && term != "dumb"
}
