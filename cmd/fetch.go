package cmd

import (
	"net/url"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kontorlabs/kontor/client"
	"github.com/kontorlabs/kontor/pkg/validation"
)

// fetchCmd creates a new cobra.Command for downloading a single document's
// printable file. It returns a pointer to the created cobra.Command.
func fetchCmd(app *appEnv) *cobra.Command {
	var resumeFlag bool

	cmd := &cobra.Command{
		Use:   "fetch [documentID] [downloadDir]",
		Short: "Download a document's printable file",
		Long:  "Download the printable file of the specified document to the specified directory",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			documentID := args[0]
			downloadDir := args[1]
			if err := validation.ValidateDocumentID(documentID); err != nil {
				cmd.PrintErrln("Error: Invalid document ID. It must not be empty or contain spaces or slashes.")
				return
			}
			executeFetch(cmd, app, documentID, downloadDir, resumeFlag)
		},
	}

	// Add flags for fetch options
	cmd.Flags().BoolVarP(&resumeFlag, "resume", "r", true, "Resume a partial download? [true, false]")

	return cmd
}

// executeFetch handles the download logic for a single document.
func executeFetch(cmd *cobra.Command, app *appEnv, documentID, downloadDir string, resume bool) {
	ctx := cmd.Context()

	document, err := app.api.FetchDocument(ctx, documentID)
	if err != nil {
		log.Error().Err(err).Str("document", documentID).Msg("Failed to fetch document metadata.")
		cmd.PrintErrln("Error: Failed to fetch the document. Please check the ID and try again.")
		return
	}

	destPath := filepath.Join(downloadDir, documentFileName(document))
	err = app.api.DownloadFile(ctx, documentFilePath(document.ID), destPath, client.DownloadOptions{
		Resume:         resume,
		ProgressWriter: cmd.OutOrStdout(),
	})
	if err != nil {
		log.Error().Err(err).Str("document", documentID).Msg("Failed to download document file.")
		cmd.PrintErrln("Error: Failed to download the document file.")
		return
	}

	cmd.Printf("Document downloaded successfully to: %q\n", destPath)
}

// documentFilePath is the API path serving a document's printable file.
func documentFilePath(id string) string {
	return "/documents/" + url.PathEscape(id) + "/file"
}

// documentFileName picks the server-provided file name when there is one
// and otherwise falls back to the sanitized document number.
func documentFileName(document *client.Document) string {
	if document.FileName != "" {
		return client.SanitizePath(document.FileName)
	}
	return client.SanitizePath(document.Number) + ".pdf"
}
