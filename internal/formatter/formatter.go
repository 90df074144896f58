// package formatter exports resolved catalog metadata to JSON, CSV, Markdown and plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/desertthunder/spotydl/internal/models"
	"github.com/desertthunder/spotydl/internal/shared"
)

// Format is an export format name as accepted on the command line.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
)

// ParseFormat accepts json, csv, markdown (or md) and txt (or text).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q (use json, csv, markdown or txt)", shared.ErrInvalidArgument, s)
	}
}

// Ext is the file extension for f, without the dot.
func (f Format) Ext() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

// ExportToJSON renders meta as indented JSON.
func ExportToJSON(meta *models.PlaylistMetadata) ([]byte, error) {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToCSV converts meta to CSV with columns: Index, Artist, Name, Duration, Spotify URL, Preview URL
func ExportToCSV(meta *models.PlaylistMetadata) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Index", "Artist", "Name", "Duration", "Spotify URL", "Preview URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, track := range meta.Tracks {
		record := []string{
			strconv.Itoa(i + 1),
			track.Artist,
			track.Name,
			shared.FormatDuration(track.Duration),
			track.SourceURI,
			track.PreviewURL,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts meta to a Markdown document with a numbered track list
func ExportToMarkdown(meta *models.PlaylistMetadata) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", meta.Name)
	fmt.Fprintf(&buf, "**Tracks**: %d\n\n", len(meta.Tracks))

	buf.WriteString("## Tracks\n\n")
	for i, track := range meta.Tracks {
		line := fmt.Sprintf("%s - %s", track.Artist, track.Name)
		if track.SourceURI != "" {
			line = fmt.Sprintf("[%s](%s)", line, track.SourceURI)
		}
		fmt.Fprintf(&buf, "%d. %s [%s]\n", i+1, line, shared.FormatDuration(track.Duration))
	}

	return buf.Bytes(), nil
}

// ExportToText converts meta to plain text, one "<n>. <artist> - <name>" line per track
func ExportToText(meta *models.PlaylistMetadata) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", meta.Name)
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(meta.Tracks))

	for i, track := range meta.Tracks {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, track.Artist, track.Name)
	}

	return buf.Bytes(), nil
}

// Export renders meta in format f.
func Export(meta *models.PlaylistMetadata, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return ExportToJSON(meta)
	case FormatCSV:
		return ExportToCSV(meta)
	case FormatMarkdown:
		return ExportToMarkdown(meta)
	case FormatText:
		return ExportToText(meta)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, f)
	}
}

// DefaultFilename is "<sanitized name>.<ext>".
func DefaultFilename(meta *models.PlaylistMetadata, f Format) string {
	name := shared.SanitizeFilename(meta.Name)
	if name == "" {
		name = "playlist"
	}
	return name + "." + f.Ext()
}

// Write exports meta in format f to path, creating parent directories.
//
// An empty path writes [DefaultFilename] in the working directory. Returns the written path.
func Write(meta *models.PlaylistMetadata, f Format, path string) (string, error) {
	if path == "" {
		path = DefaultFilename(meta, f)
	}

	data, err := Export(meta, f)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", f, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}

	return path, nil
}
