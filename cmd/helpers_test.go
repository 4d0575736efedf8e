package cmd

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/pterm/pterm"
)

var outBuf bytes.Buffer

// setupStdoutCapture routes pterm output into outBuf for the duration of a
// test, with colors off so assertions can match plain text.
func setupStdoutCapture(t *testing.T) {
	t.Helper()
	outBuf.Reset()
	pterm.DisableColor()
	pterm.SetDefaultOutput(&outBuf)
	// The prefix printers copy the default writer at package init, so
	// SetDefaultOutput alone does not redirect them.
	printers := []*pterm.PrefixPrinter{&pterm.Info, &pterm.Warning, &pterm.Success, &pterm.Error}
	oldWriters := make([]io.Writer, len(printers))
	for i, p := range printers {
		oldWriters[i] = p.Writer
		p.Writer = &outBuf
	}
	t.Cleanup(func() {
		for i, p := range printers {
			p.Writer = oldWriters[i]
		}
		pterm.SetDefaultOutput(os.Stdout)
		pterm.EnableColor()
	})
}
