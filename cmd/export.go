package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kontorlabs/kontor/client"
	"github.com/kontorlabs/kontor/pkg/hasher"
	"github.com/kontorlabs/kontor/pkg/pool"
	"github.com/kontorlabs/kontor/pkg/validation"
)

// exportCmd creates a new cobra.Command for bulk-downloading document
// files. It returns a pointer to the created cobra.Command.
func exportCmd(app *appEnv) *cobra.Command {
	var kind string
	var numWorkers int
	var hashAlgo string

	cmd := &cobra.Command{
		Use:   "export [downloadDir]",
		Short: "Export document files in bulk",
		Long:  "Download the printable files of all documents of a kind to the specified directory",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			executeExport(cmd, app, args[0], kind, hashAlgo, numWorkers)
		},
	}

	// Add flags for export options
	cmd.Flags().StringVarP(&kind, "kind", "k", "all", "Document kind to export [all, invoice, order, credit_note]; all means all kinds")
	cmd.Flags().IntVarP(&numWorkers, "workers", "w", 4, "Number of worker threads to use for downloading [1-20]")
	cmd.Flags().StringVarP(&hashAlgo, "hash", "a", "sha256", "Checksum algorithm for the summary [md5, sha1, sha256, sha512]")

	return cmd
}

// exportJob carries one document through the worker pool and collects what
// the summary table needs.
type exportJob struct {
	document client.Document
	destPath string
	size     int64
	checksum string
}

// executeExport lists the matching documents and downloads their files
// concurrently, then prints a per-file summary.
func executeExport(cmd *cobra.Command, app *appEnv, outputDir, kind, hashAlgo string, numWorkers int) {
	ctx := cmd.Context()

	if err := validation.ValidateDocumentKind(kind); err != nil {
		cmd.PrintErrln("Error:", err)
		return
	}
	if err := validation.ValidateWorkerCount(numWorkers); err != nil {
		cmd.PrintErrln("Error:", err)
		return
	}
	if !hasher.IsValidHashAlgo(hashAlgo) {
		cmd.PrintErrf("Error: invalid hash algorithm: %s (must be one of: %s)\n", hashAlgo, strings.Join(hasher.HashAlgorithms, ", "))
		return
	}

	listKind := kind
	if listKind == "all" {
		listKind = ""
	}
	documents, err := app.api.ListDocuments(ctx, listKind, 0)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list documents.")
		cmd.PrintErrln("Error: Failed to list documents. Your session may have expired; use `kontor login` to sign in again.")
		return
	}
	if len(documents) == 0 {
		cmd.Println("No documents found to export.")
		return
	}

	if err := os.MkdirAll(outputDir, os.ModePerm); err != nil {
		log.Error().Err(err).Msgf("Failed to create download path %s", outputDir)
		cmd.PrintErrln("Error: Failed to create the download directory.")
		return
	}

	log.Info().Int("count", len(documents)).Str("kind", kind).Msgf("Exporting documents to %s", outputDir)

	bar := progressbar.NewOptions(len(documents),
		progressbar.OptionSetDescription("Exporting documents..."),
		progressbar.OptionSetWidth(20),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetWriter(cmd.OutOrStdout()),
	)

	jobs := make([]*exportJob, len(documents))
	for i := range documents {
		jobs[i] = &exportJob{
			document: documents[i],
			destPath: filepath.Join(outputDir, documentFileName(&documents[i])),
		}
	}

	worker := func(ctx context.Context, job *exportJob) error {
		defer func() { _ = bar.Add(1) }()

		err := app.api.DownloadFile(ctx, documentFilePath(job.document.ID), job.destPath, client.DownloadOptions{
			Resume: true,
		})
		if err != nil {
			return err
		}

		info, err := os.Stat(job.destPath)
		if err != nil {
			return err
		}
		job.size = info.Size()

		job.checksum, err = hasher.GenerateHash(job.destPath, hashAlgo)
		return err
	}

	results := pool.Run(ctx, jobs, numWorkers, worker)
	_ = bar.Finish()

	// Create a table summarizing the export
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"File", "Size", strings.ToUpper(hashAlgo), "Status"})

	// Table appearance settings
	table.SetAlignment(tablewriter.ALIGN_LEFT)       // Align all columns to the left
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT) // Align headers to the left
	table.SetAutoWrapText(false)                     // Disable text wrapping in all columns
	table.SetRowLine(false)                          // Disable row line breaks

	var failures int
	for _, res := range results {
		if res.Err != nil {
			failures++
			log.Error().Err(res.Err).Str("document", res.Item.document.ID).Msg("Failed to export document")
			table.Append([]string{filepath.Base(res.Item.destPath), "-", "-", "failed"})
			continue
		}
		table.Append([]string{
			filepath.Base(res.Item.destPath),
			formatBytes(res.Item.size),
			res.Item.checksum,
			"ok",
		})
	}
	table.Render()

	if failures > 0 {
		cmd.PrintErrf("Error: %d of %d documents failed to export. Please check the logs for details.\n", failures, len(results))
		return
	}
	cmd.Printf("Exported %d documents to %q.\n", len(results), outputDir)
}

// formatBytes renders a byte count in binary units.
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
