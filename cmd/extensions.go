package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/pterm/pterm"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/srclight/cli/internal/cascade"
	"github.com/srclight/cli/pkg/extbundle"
	"github.com/srclight/cli/pkg/table"
	"github.com/srclight/cli/pkg/util"
)

// ExtensionsCmd handles extension operations independent of cobra.
type ExtensionsCmd struct {
	cascades CascadeService
	edits    EditService
}

type ExtensionsListInput struct {
	Output string
}

type ExtensionToggleInput struct {
	ExtensionID string
	SubjectID   string
	// Clear removes the override entirely instead of writing false.
	Clear bool
}

// List shows the extension overrides present in the merged settings document.
func (c ExtensionsCmd) List(ctx context.Context, in ExtensionsListInput) error {
	if in.Output != "" && in.Output != "json" {
		return fmt.Errorf("unsupported --output value: use 'json'")
	}

	cas, err := c.cascades.Value(ctx)
	if err != nil {
		return err
	}

	var doc struct {
		Extensions map[string]bool `json:"extensions"`
	}
	if err := json.Unmarshal([]byte(cas.Merged.Contents), &doc); err != nil {
		return fmt.Errorf("merged settings are not valid JSON: %w", err)
	}

	if in.Output == "json" {
		return util.PrintPrettyJSON(doc.Extensions)
	}

	if len(doc.Extensions) == 0 {
		pterm.Info.Println("No extensions configured")
		return nil
	}

	ids := lo.Keys(doc.Extensions)
	sort.Strings(ids)
	rows := pterm.TableData{{"Extension", "Enabled"}}
	for _, id := range ids {
		enabled := "no"
		if doc.Extensions[id] {
			enabled = "yes"
		}
		rows = append(rows, []string{id, enabled})
	}
	table.PrintTableNoPad(rows, true)
	return nil
}

// Toggle enables, disables, or clears one extension override on a subject.
func (c ExtensionsCmd) Toggle(ctx context.Context, in ExtensionToggleInput, enable bool) error {
	if in.ExtensionID == "" {
		return fmt.Errorf("extension ID is required")
	}
	if in.SubjectID == "" {
		return fmt.Errorf("--subject is required")
	}

	edit := cascade.Edit{ExtensionID: in.ExtensionID}
	if !in.Clear {
		edit.Enabled = &enable
	}
	if err := c.edits.Apply(ctx, in.SubjectID, edit); err != nil {
		return err
	}

	switch {
	case in.Clear:
		pterm.Success.Printf("Cleared %s override on %s\n", in.ExtensionID, in.SubjectID)
	case enable:
		pterm.Success.Printf("Enabled %s on %s\n", in.ExtensionID, in.SubjectID)
	default:
		pterm.Success.Printf("Disabled %s on %s\n", in.ExtensionID, in.SubjectID)
	}
	return nil
}

var extCmd = &cobra.Command{
	Use:     "ext",
	Aliases: []string{"extensions"},
	Short:   "Manage language extensions",
}

var extListCmd = &cobra.Command{
	Use:   "list",
	Short: "List extension overrides in your merged settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		return newExtensionsCmd().List(cmd.Context(), ExtensionsListInput{Output: output})
	},
}

var extEnableCmd = &cobra.Command{
	Use:   "enable <extension-id>",
	Short: "Enable an extension for a subject",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtensionToggle(cmd, args[0], true)
	},
}

var extDisableCmd = &cobra.Command{
	Use:   "disable <extension-id>",
	Short: "Disable an extension for a subject",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtensionToggle(cmd, args[0], false)
	},
}

func runExtensionToggle(cmd *cobra.Command, extensionID string, enable bool) error {
	subject, _ := cmd.Flags().GetString("subject")
	clear, _ := cmd.Flags().GetBool("clear")
	return newExtensionsCmd().Toggle(cmd.Context(), ExtensionToggleInput{
		ExtensionID: extensionID,
		SubjectID:   subject,
		Clear:       clear,
	}, enable)
}

var extValidateCmd = &cobra.Command{
	Use:   "validate <dir>",
	Short: "Validate an extension directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bundle, err := extbundle.Load(args[0])
		if err != nil {
			return err
		}
		pterm.Success.Printf("%s %s is valid (entry %s)\n",
			bundle.Manifest.ID, bundle.Manifest.Version, bundle.Manifest.Entry)
		return nil
	},
}

var extBundleCmd = &cobra.Command{
	Use:   "bundle <dir>",
	Short: "Package an extension directory for publishing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		verbose, _ := cmd.Flags().GetBool("verbose")

		bundle, err := extbundle.Load(args[0])
		if err != nil {
			return err
		}
		if out == "" {
			out = fmt.Sprintf("%s.zip", sanitizeExtensionID(bundle.Manifest.ID))
		}

		stats, err := extbundle.Pack(bundle, out, &extbundle.PackOptions{Verbose: verbose})
		if err != nil {
			return err
		}

		pterm.Success.Printf("Packaged %s %s to %s\n", bundle.Manifest.ID, bundle.Manifest.Version, out)
		pterm.Printf("  %d files, %s (excluded %d files, %s)\n",
			stats.FilesIncluded, util.FormatBytes(stats.BytesIncluded),
			stats.FilesExcluded, util.FormatBytes(stats.BytesExcluded))
		if verbose {
			for _, p := range stats.ExcludedPaths {
				pterm.Printf("  excluded %s\n", p)
			}
		}
		return nil
	},
}

func sanitizeExtensionID(id string) string {
	out := []rune(id)
	for i, r := range out {
		if r == '/' {
			out[i] = '-'
		}
	}
	return string(out)
}

func newExtensionsCmd() ExtensionsCmd {
	return ExtensionsCmd{cascades: cascadeStore(), edits: cascadeEditor()}
}

func init() {
	addOutputFlag(extListCmd.Flags())
	for _, c := range []*cobra.Command{extEnableCmd, extDisableCmd} {
		c.Flags().String("subject", "", "Subject ID the override applies to")
		c.Flags().Bool("clear", false, "Remove the override instead, falling back to the default")
	}
	extBundleCmd.Flags().String("out", "", "Output zip path (defaults to <publisher>-<name>.zip)")
	extBundleCmd.Flags().BoolP("verbose", "v", false, "List excluded files")

	extCmd.AddCommand(extListCmd, extEnableCmd, extDisableCmd, extValidateCmd, extBundleCmd)
	rootCmd.AddCommand(extCmd)
}
