package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/srclight/cli/pkg/util"
)

var watchHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))

var settingsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream the merged settings document as it changes",
	Long: `Stream the merged settings document as it changes.

The cascade is polled at the given interval; edits made through this CLI are
reflected immediately because they refresh the shared cache themselves.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		store := cascadeStore()
		updates, cancel := store.Subscribe()
		defer cancel()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		revision := 0
		for {
			select {
			case u := <-updates:
				if u.Err != nil {
					logger.Error("cascade fetch failed", "err", u.Err)
					continue
				}
				revision++
				header := fmt.Sprintf("revision %d · %d subjects · %s",
					revision, len(u.Cascade.Subjects), time.Now().Format(time.Kitchen))
				pterm.Println(watchHeaderStyle.Render(header))
				for _, msg := range u.Cascade.Merged.Messages {
					logger.Warn("merge problem", "message", msg)
				}
				_ = util.PrintRawJSON(u.Cascade.Merged.Contents)
			case <-ticker.C:
				store.Refresh()
			case <-cmd.Context().Done():
				return nil
			}
		}
	},
}

func init() {
	settingsWatchCmd.Flags().Duration("interval", 30*time.Second, "Poll interval for remote changes")
}
