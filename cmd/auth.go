package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/srclight/cli/pkg/auth"
	"github.com/srclight/cli/pkg/table"
	"github.com/srclight/cli/pkg/util"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Log in to a Srclight instance",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with the instance through your browser",
	RunE: func(cmd *cobra.Command, args []string) error {
		noBrowser, _ := cmd.Flags().GetBool("no-browser")
		totpSecret, _ := cmd.Flags().GetString("totp-secret")

		endpoint := endpoints().Current()
		token, err := auth.Login(cmd.Context(), auth.LoginOptions{
			Endpoint:   endpoint,
			NoBrowser:  noBrowser,
			TOTPSecret: totpSecret,
		})
		if err != nil {
			return err
		}
		if err := auth.NewTokenStore(endpoint).Save(token); err != nil {
			return err
		}
		pterm.Success.Printf("Logged in to %s\n", endpoint)
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		endpoint := endpoints().Current()
		if err := auth.NewTokenStore(endpoint).Delete(); err != nil {
			return err
		}
		pterm.Success.Printf("Logged out of %s\n", endpoint)
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current authentication state",
	RunE: func(cmd *cobra.Command, args []string) error {
		endpoint := endpoints().Current()
		token, err := auth.NewTokenStore(endpoint).Token()
		if err != nil {
			return err
		}
		if token == "" {
			pterm.Warning.Printf("Not logged in to %s. Run 'srclight auth login'.\n", endpoint)
			return nil
		}

		rows := pterm.TableData{
			{"Instance", endpoint},
		}
		if info, derr := auth.DescribeToken(token); derr == nil {
			if info.Expired() {
				pterm.Warning.Println("Stored token has expired. Run 'srclight auth login'.")
			}
			rows = append(rows,
				[]string{"Account", util.OrDash(info.Subject)},
				[]string{"Issuer", util.OrDash(info.Issuer)},
				[]string{"Expires", util.FormatLocal(info.ExpiresAt)},
			)
		} else {
			// Opaque (non-JWT) tokens carry no claims worth printing.
			rows = append(rows, []string{"Token", "stored"})
		}
		table.PrintTableNoPad(rows, false)
		return nil
	},
}

func init() {
	authLoginCmd.Flags().Bool("no-browser", false, "Print the login URL instead of opening a browser")
	authLoginCmd.Flags().String("totp-secret", "", "TOTP secret for instances requiring two-factor exchange")

	authCmd.AddCommand(authLoginCmd, authLogoutCmd, authStatusCmd)
	rootCmd.AddCommand(authCmd)
}
