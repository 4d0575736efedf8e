// Package table renders pterm tables with the CLI's house style.
package table

import (
	"github.com/pterm/pterm"
)

// PrintTableNoPad renders rows without leading padding so table output lines
// up with surrounding pterm prints.
func PrintTableNoPad(rows pterm.TableData, hasHeader bool) {
	t := pterm.DefaultTable.WithData(rows)
	if hasHeader {
		t = t.WithHasHeader()
	}
	_ = t.Render()
}
