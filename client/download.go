package client

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"

	"github.com/kontorlabs/kontor/pkg/hasher"
)

// checksumHeader carries the hex SHA-256 of the complete file when the
// platform knows it.
const checksumHeader = "X-Checksum-Sha256"

// DownloadOptions control a single file transfer.
type DownloadOptions struct {
	// Resume appends to an existing partial file using a Range request
	// instead of starting over.
	Resume bool
	// Checksum is the expected hex SHA-256 of the complete file. Empty
	// falls back to the server's checksum header; no verification happens
	// when neither is present.
	Checksum string
	// ProgressWriter receives progress output. Nil keeps the transfer
	// silent.
	ProgressWriter io.Writer
}

// ensureDirExists creates path as a directory when missing.
func ensureDirExists(path string) error {
	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			log.Error().Msgf("Path %s exists but is not a directory", path)
			return fmt.Errorf("path %s exists but is not a directory", path)
		}
		return nil
	}
	if os.IsNotExist(err) {
		log.Info().Msgf("Creating directory: %s", path)
		return os.MkdirAll(path, os.ModePerm)
	}
	log.Error().Err(err).Msgf("Error checking directory %s", path)
	return err
}

// SanitizePath converts a display name into a safe file name.
func SanitizePath(name string) string {
	replacements := []struct {
		old string
		new string
	}{
		{"®", ""}, {":", ""}, {" ", "-"}, {"(", ""}, {")", ""}, {"™", ""}, {"/", "-"},
	}
	name = strings.ToLower(name)
	for _, r := range replacements {
		name = strings.ReplaceAll(name, r.old, r.new)
	}
	return name
}

// DownloadFile streams the file behind an API path into destPath. Partial
// files can be resumed with a Range request, transfers honor the global
// rate cap, and the result is verified against a SHA-256 checksum when one
// is known. A file that fails verification is removed; a later attempt
// starts from scratch.
func (c *Client) DownloadFile(ctx context.Context, path, destPath string, opts DownloadOptions) error {
	if err := ensureDirExists(filepath.Dir(destPath)); err != nil {
		return err
	}

	var startOffset int64
	if opts.Resume {
		if info, err := os.Stat(destPath); err == nil {
			startOffset = info.Size()
		} else if !os.IsNotExist(err) {
			log.Error().Err(err).Msgf("Failed to stat file %s", destPath)
			return err
		}
	}

	header := http.Header{}
	if startOffset > 0 {
		header.Set("Range", fmt.Sprintf("bytes=%d-", startOffset))
	}

	resp, err := c.Do(ctx, http.MethodGet, path, nil, header)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// Server ignored the Range request; start over from byte zero.
		startOffset = 0
	case http.StatusPartialContent:
	case http.StatusRequestedRangeNotSatisfiable:
		log.Info().Msgf("File %s is already fully downloaded. Skipping transfer.", destPath)
		return nil
	default:
		return newAPIError(resp)
	}

	file, err := openDestFile(destPath, startOffset)
	if err != nil {
		return err
	}
	defer file.Close()

	expected := opts.Checksum
	if expected == "" {
		expected = resp.Header.Get(checksumHeader)
	}
	expected = strings.ToLower(strings.TrimSpace(expected))

	sum, err := hasher.New("sha256")
	if err != nil {
		return err
	}
	if expected != "" && startOffset > 0 {
		// The checksum covers the whole file, so the bytes already on
		// disk have to be folded in before appending.
		if err := hashExisting(file, sum, startOffset); err != nil {
			return err
		}
	}

	totalSize := resp.ContentLength
	if totalSize > 0 {
		totalSize += startOffset
	} else {
		totalSize = -1 // Unknown size, the progress bar falls back to a spinner
	}

	progressWriter := opts.ProgressWriter
	if progressWriter == nil {
		progressWriter = io.Discard
	}
	progressBar := progressbar.NewOptions64(
		totalSize,
		progressbar.OptionSetDescription(fmt.Sprintf("Downloading %s", filepath.Base(destPath))),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWriter(progressWriter),
		progressbar.OptionThrottle(500*time.Millisecond),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetPredictTime(false),
	)
	if startOffset > 0 {
		if err := progressBar.Set64(startOffset); err != nil {
			log.Warn().Err(err).Msg("failed to set progress start offset")
		}
	}

	limited := wrapWithTransferRateLimit(ctx, resp.Body)
	progressReader := progressbar.NewReader(limited, progressBar)

	dest := io.Writer(file)
	if expected != "" {
		dest = io.MultiWriter(file, sum)
	}

	buffer := make([]byte, 32*1024)
	if _, err := io.CopyBuffer(dest, &progressReader, buffer); err != nil {
		if ctx.Err() != nil {
			log.Info().Msgf("Download cancelled while copying %s", destPath)
			return ctx.Err()
		}
		log.Error().Err(err).Msgf("Failed to save file content for %s", destPath)
		return fmt.Errorf("failed to save file %s: %w", destPath, err)
	}
	_ = progressBar.Finish()

	if expected != "" {
		actual := hex.EncodeToString(sum.Sum(nil))
		if actual != expected {
			_ = file.Close()
			_ = os.Remove(destPath)
			log.Error().Str("expected", expected).Str("actual", actual).Msgf("Checksum mismatch for %s", destPath)
			return fmt.Errorf("checksum mismatch for %s: expected %s, got %s", destPath, expected, actual)
		}
		log.Debug().Str("checksum", actual).Msgf("Verified checksum for %s", destPath)
	}

	log.Info().Msgf("Finished downloading %s", destPath)
	return nil
}

// openDestFile opens destPath for appending at offset, or truncates it
// when starting from byte zero.
func openDestFile(destPath string, offset int64) (*os.File, error) {
	if offset > 0 {
		// Read-write so existing content can be folded into the checksum.
		file, err := os.OpenFile(destPath, os.O_RDWR, 0o644)
		if err != nil {
			log.Error().Err(err).Msgf("Failed to open file %s for appending", destPath)
			return nil, err
		}
		if _, err := file.Seek(offset, io.SeekStart); err != nil {
			file.Close()
			return nil, err
		}
		return file, nil
	}

	file, err := os.Create(destPath)
	if err != nil {
		log.Error().Err(err).Msgf("Failed to create file %s", destPath)
		return nil, err
	}
	return file, nil
}

// hashExisting folds the first offset bytes of the file into sum, then
// returns the write position to the end of the existing data.
func hashExisting(file *os.File, sum io.Writer, offset int64) error {
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := io.CopyN(sum, file, offset); err != nil {
		return fmt.Errorf("failed to hash existing file content: %w", err)
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	return nil
}
