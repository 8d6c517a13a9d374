package cmd

import (
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kontorlabs/kontor/auth"
)

// whoamiCmd shows the account behind the stored session.
func whoamiCmd(app *appEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()

			creds, err := app.store.Credentials(ctx)
			if err != nil {
				log.Error().Err(err).Msg("Failed to read stored credentials")
				cmd.PrintErrln("Error: Failed to read the stored session.")
				return
			}
			if creds == nil {
				cmd.Println("Not signed in. Use `kontor login` to sign in.")
				return
			}

			account, err := app.api.FetchAccount(ctx)
			if err != nil {
				log.Error().Err(err).Msg("Failed to fetch the account")
				cmd.PrintErrln("Error: Failed to fetch the account. Your session may have expired; use `kontor login` to sign in again.")
				return
			}

			// Create a table for displaying the account
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Field", "Value"})

			// Table appearance settings
			table.SetAlignment(tablewriter.ALIGN_LEFT)       // Align all columns to the left
			table.SetHeaderAlignment(tablewriter.ALIGN_LEFT) // Align headers to the left
			table.SetAutoWrapText(false)                     // Disable text wrapping in all columns
			table.SetRowLine(false)                          // Disable row line breaks

			table.Append([]string{"ID", account.ID})
			table.Append([]string{"Email", account.Email})
			table.Append([]string{"Name", account.Name})
			if account.Company != "" {
				table.Append([]string{"Company", account.Company})
			}
			if account.Plan != "" {
				table.Append([]string{"Plan", account.Plan})
			}

			// The expiry claim is display-only; session handling stays
			// 401-driven.
			if claims, err := auth.PeekClaims(creds.AccessToken); err == nil && !claims.ExpiresAt.IsZero() {
				table.Append([]string{"Session expires", claims.ExpiresAt.UTC().Format(time.RFC1123)})
			}

			table.Render()
		},
	}
}
