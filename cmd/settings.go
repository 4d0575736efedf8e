package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/browser"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/srclight/cli/internal/cascade"
	"github.com/srclight/cli/pkg/table"
	"github.com/srclight/cli/pkg/util"
)

// CascadeService is the subset of the cascade store the settings commands use.
type CascadeService interface {
	Value(ctx context.Context) (*cascade.Cascade, error)
}

// EditService applies settings edits.
type EditService interface {
	Apply(ctx context.Context, subjectID string, edit cascade.Edit) error
}

// SettingsCmd handles settings operations independent of cobra.
type SettingsCmd struct {
	cascades CascadeService
	edits    EditService
	openURL  func(url string) error
}

type SettingsViewInput struct {
	Subject string
	Output  string
}

type SettingsEditInput struct {
	Subject string
	Path    string
	Value   string
	Unset   bool
}

type SettingsOpenInput struct {
	Subject string
}

// View prints the merged settings document, or one subject's raw document
// when --subject is given. Merge problems are warnings, not failures: the
// merged contents are still the best available view.
func (c SettingsCmd) View(ctx context.Context, in SettingsViewInput) error {
	if in.Output != "" && in.Output != "json" {
		return fmt.Errorf("unsupported --output value: use 'json'")
	}

	cas, err := c.cascades.Value(ctx)
	if err != nil {
		return err
	}

	if in.Subject != "" {
		subject, ok := cas.Subject(in.Subject)
		if !ok {
			return &cascade.UnknownSubjectError{ID: in.Subject}
		}
		if subject.LatestSettings == nil {
			pterm.Info.Printf("%s has no settings yet\n", subject.Name)
			return nil
		}
		return util.PrintRawJSON(subject.LatestSettings.Contents)
	}

	if in.Output == "json" {
		return util.PrintPrettyJSON(struct {
			Contents string   `json:"contents"`
			Messages []string `json:"messages"`
		}{cas.Merged.Contents, cas.Merged.Messages})
	}

	for _, msg := range cas.Merged.Messages {
		pterm.Warning.Println(msg)
	}
	return util.PrintRawJSON(cas.Merged.Contents)
}

// Subjects lists every settings-owning subject visible to the viewer.
func (c SettingsCmd) Subjects(ctx context.Context, in SettingsViewInput) error {
	if in.Output != "" && in.Output != "json" {
		return fmt.Errorf("unsupported --output value: use 'json'")
	}

	cas, err := c.cascades.Value(ctx)
	if err != nil {
		return err
	}

	if in.Output == "json" {
		return util.PrintPrettyJSON(cas.Subjects)
	}

	rows := pterm.TableData{{"Kind", "ID", "Name", "Settings URL", "Editable"}}
	for _, s := range cas.Subjects {
		editable := "no"
		if s.ViewerCanAdminister {
			editable = "yes"
		}
		rows = append(rows, []string{string(s.Kind), s.ID, util.OrDash(s.Name), util.OrDash(s.SettingsURL), editable})
	}
	table.PrintTableNoPad(rows, true)
	return nil
}

// Edit applies one key-path edit to a subject's settings document.
func (c SettingsCmd) Edit(ctx context.Context, in SettingsEditInput) error {
	if in.Subject == "" {
		return fmt.Errorf("--subject is required")
	}
	if in.Path == "" {
		return fmt.Errorf("--path is required")
	}
	if in.Unset && in.Value != "" {
		return fmt.Errorf("--value and --unset are mutually exclusive")
	}
	if !in.Unset && in.Value == "" {
		return fmt.Errorf("either --value or --unset is required")
	}

	path, err := cascade.ParsePath(in.Path)
	if err != nil {
		return err
	}

	var value any
	if !in.Unset {
		if err := json.Unmarshal([]byte(in.Value), &value); err != nil {
			// Bare strings are accepted without quoting.
			value = in.Value
		}
	}

	if err := c.edits.Apply(ctx, in.Subject, cascade.Edit{Path: path, Value: value}); err != nil {
		return err
	}

	if in.Unset {
		pterm.Success.Printf("Removed %s from %s\n", in.Path, in.Subject)
	} else {
		pterm.Success.Printf("Updated %s on %s\n", in.Path, in.Subject)
	}
	return nil
}

// Open opens a subject's settings page in the browser. Without --subject it
// opens the viewer's own (user) settings.
func (c SettingsCmd) Open(ctx context.Context, in SettingsOpenInput) error {
	cas, err := c.cascades.Value(ctx)
	if err != nil {
		return err
	}

	var subject cascade.Subject
	if in.Subject != "" {
		var ok bool
		subject, ok = cas.Subject(in.Subject)
		if !ok {
			return &cascade.UnknownSubjectError{ID: in.Subject}
		}
	} else {
		var ok bool
		for _, s := range cas.Subjects {
			if s.Kind == cascade.KindUser {
				subject, ok = s, true
				break
			}
		}
		if !ok {
			return fmt.Errorf("no user subject in the current cascade; pass --subject")
		}
	}

	if subject.SettingsURL == "" {
		return fmt.Errorf("%s has no settings page", subject.ID)
	}
	url := endpoints().Current() + subject.SettingsURL
	pterm.Info.Printf("Opening %s\n", url)
	return c.openURL(url)
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect and edit your configuration cascade",
}

var settingsViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Print the merged settings document",
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, _ := cmd.Flags().GetString("subject")
		output, _ := cmd.Flags().GetString("output")
		return newSettingsCmd().View(cmd.Context(), SettingsViewInput{Subject: subject, Output: output})
	},
}

var settingsSubjectsCmd = &cobra.Command{
	Use:   "subjects",
	Short: "List the subjects that contribute to your settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		return newSettingsCmd().Subjects(cmd.Context(), SettingsViewInput{Output: output})
	},
}

var settingsEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Set or remove one settings value by key path",
	Example: `  srclight settings edit --subject u1 --path ui.theme --value '"dark"'
  srclight settings edit --subject org1 --path search.defaultMode --unset`,
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, _ := cmd.Flags().GetString("subject")
		path, _ := cmd.Flags().GetString("path")
		value, _ := cmd.Flags().GetString("value")
		unset, _ := cmd.Flags().GetBool("unset")
		return newSettingsCmd().Edit(cmd.Context(), SettingsEditInput{
			Subject: subject,
			Path:    path,
			Value:   value,
			Unset:   unset,
		})
	},
}

var settingsOpenCmd = &cobra.Command{
	Use:   "open",
	Short: "Open a subject's settings page in your browser",
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, _ := cmd.Flags().GetString("subject")
		return newSettingsCmd().Open(cmd.Context(), SettingsOpenInput{Subject: subject})
	},
}

func newSettingsCmd() SettingsCmd {
	return SettingsCmd{
		cascades: cascadeStore(),
		edits:    cascadeEditor(),
		openURL:  browser.OpenURL,
	}
}

func init() {
	settingsViewCmd.Flags().String("subject", "", "Show one subject's raw document instead of the merge")
	addOutputFlag(settingsViewCmd.Flags())
	addOutputFlag(settingsSubjectsCmd.Flags())
	settingsEditCmd.Flags().String("subject", "", "Subject ID to edit (see 'settings subjects')")
	settingsEditCmd.Flags().String("path", "", "Dotted key path, e.g. ui.theme or search.contexts.0")
	settingsEditCmd.Flags().String("value", "", "Replacement value as JSON (bare strings accepted)")
	settingsEditCmd.Flags().Bool("unset", false, "Remove the value at the key path")
	settingsOpenCmd.Flags().String("subject", "", "Subject whose settings page to open")

	settingsCmd.AddCommand(settingsViewCmd, settingsSubjectsCmd, settingsEditCmd, settingsOpenCmd, settingsWatchCmd)
	rootCmd.AddCommand(settingsCmd)
}
