package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kontorlabs/kontor/pkg/validation"
)

// stdinReader is the shared buffered reader behind interactive prompts.
// Consecutive prompts must read from the same reader or buffered bytes
// from one prompt are lost to the next.
var stdinReader = bufio.NewReader(os.Stdin)

// loginCmd creates a new cobra.Command for signing in to the platform.
// It returns a pointer to the created cobra.Command.
func loginCmd(app *appEnv) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the platform",
		Long:  "Sign in to the platform with your email and password and store the session credentials locally",
		Run: func(cmd *cobra.Command, args []string) {
			if email == "" {
				email = promptForInput("Email: ")
			}
			password := promptForPassword("Password: ")

			if validation.ValidateNonEmptyString("email", email) != nil ||
				validation.ValidateNonEmptyString("password", password) != nil {
				cmd.PrintErrln("Error: Email and password cannot be empty.")
				return
			}

			creds, err := app.authAPI.Login(cmd.Context(), email, password)
			if err != nil {
				log.Error().Err(err).Msg("Login failed")
				cmd.PrintErrln("Error: Failed to sign in. Please check your credentials and try again.")
				return
			}

			if err := app.store.Save(cmd.Context(), creds); err != nil {
				log.Error().Err(err).Msg("Failed to save credentials")
				cmd.PrintErrln("Error: Failed to store the session credentials.")
				return
			}

			// A fresh session re-arms the one-shot session termination.
			app.terminator.Reset()
			cmd.Println("Signed in successfully.")
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Email address to sign in with (prompted for when omitted)")

	return cmd
}

// promptForInput prompts the user for input and returns the trimmed string.
// It takes a prompt string as an argument.
func promptForInput(prompt string) string {
	fmt.Print(prompt)
	return readLineOrExit()
}

// promptForPassword prompts the user for a password securely and returns the
// trimmed string. When stdin is not a terminal (pipes, tests) it falls back
// to a plain line read.
func promptForPassword(prompt string) string {
	fmt.Print(prompt)
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return readLineOrExit()
	}
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		fmt.Println("Error: Failed to read password.")
		os.Exit(1)
	}
	fmt.Println() // Print a newline for better formatting
	return strings.TrimSpace(string(password))
}

func readLineOrExit() string {
	input, err := stdinReader.ReadString('\n')
	if err != nil {
		fmt.Println("Error: Failed to read input.")
		os.Exit(1)
	}
	return strings.TrimSpace(input)
}
