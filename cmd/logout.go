package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// logoutCmd ends the session: the refresh token is revoked server-side and
// the stored credential pair is discarded.
func logoutCmd(app *appEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and discard the stored session",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()

			creds, err := app.store.Credentials(ctx)
			if err != nil {
				log.Error().Err(err).Msg("Failed to read stored credentials")
				cmd.PrintErrln("Error: Failed to read the stored session.")
				return
			}
			if creds == nil {
				cmd.Println("Not signed in.")
				return
			}

			// Revocation is best-effort; the local session goes away
			// regardless of the outcome.
			if err := app.authAPI.Logout(ctx, creds.AccessToken); err != nil {
				log.Warn().Err(err).Msg("Failed to revoke the session server-side")
			}

			if err := app.store.Clear(ctx); err != nil {
				log.Error().Err(err).Msg("Failed to clear stored credentials")
				cmd.PrintErrln("Error: Failed to discard the stored session.")
				return
			}

			app.terminator.Reset()
			cmd.Println("Signed out.")
		},
	}
}
