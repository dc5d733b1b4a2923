// package formatter renders a track collection as text, Markdown, CSV, JSON or an HTML list.
//
// Every function is a pure projection: the input order is the output order and the slice is never modified.
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/spotshuffle/internal/models"
	"github.com/desertthunder/spotshuffle/internal/shared"
)

// Supported output formats.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
	FormatJSON     = "json"
	FormatHTML     = "html"
)

// Formats lists the names accepted by [Format].
var Formats = []string{FormatText, FormatMarkdown, FormatCSV, FormatJSON, FormatHTML}

// ToText numbers each track from 1 as "N. Name — Artist, Artist".
func ToText(tracks []models.Track) []byte {
	var buf bytes.Buffer
	for i, track := range tracks {
		fmt.Fprintf(&buf, "%d. %s — %s\n", i+1, track.Name, track.ArtistLine())
	}
	return buf.Bytes()
}

// ToMarkdown renders a titled ordered list with album names where known.
func ToMarkdown(title string, tracks []models.Track) []byte {
	var buf bytes.Buffer

	if title != "" {
		fmt.Fprintf(&buf, "# %s\n\n", title)
	}
	fmt.Fprintf(&buf, "**Tracks**: %d\n\n", len(tracks))

	for i, track := range tracks {
		albumPart := ""
		if track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s\n", i+1, track.ArtistLine(), track.Name, albumPart)
	}

	return buf.Bytes()
}

// ToCSV converts tracks to CSV with columns: Position, ID, Name, Artists, Album, URI
func ToCSV(tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Position", "ID", "Name", "Artists", "Album", "URI"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, track := range tracks {
		record := []string{
			strconv.Itoa(i + 1),
			track.ID,
			track.Name,
			track.ArtistLine(),
			track.Album,
			track.URI,
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

// ToJSON renders the tracks as an indented JSON array. An empty collection is "[]".
func ToJSON(tracks []models.Track) ([]byte, error) {
	if tracks == nil {
		tracks = []models.Track{}
	}
	data, err := json.MarshalIndent(tracks, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tracks: %w", err)
	}
	return append(data, '\n'), nil
}

var listTemplate = template.Must(template.New("tracks").Parse(
	`<ol class="tracks">{{range .}}<li><span class="name">{{.Name}}</span> — <span class="artists">{{.ArtistLine}}</span></li>{{end}}</ol>`,
))

// ToHTML renders an escaped ordered list for embedding in a page.
func ToHTML(tracks []models.Track) (template.HTML, error) {
	var buf bytes.Buffer
	if err := listTemplate.Execute(&buf, tracks); err != nil {
		return "", fmt.Errorf("failed to render tracks: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// Format renders tracks in the named format. The title is only used by Markdown.
func Format(format, title string, tracks []models.Track) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", FormatText, "txt":
		return ToText(tracks), nil
	case FormatMarkdown, "md":
		return ToMarkdown(title, tracks), nil
	case FormatCSV:
		return ToCSV(tracks)
	case FormatJSON:
		return ToJSON(tracks)
	case FormatHTML:
		h, err := ToHTML(tracks)
		return []byte(h), err
	default:
		return nil, fmt.Errorf("%w: unknown format %q (expected one of %s)",
			shared.ErrInvalidArgument, format, strings.Join(Formats, ", "))
	}
}

// Write renders tracks to w.
func Write(w io.Writer, format, title string, tracks []models.Track) error {
	data, err := Format(format, title, tracks)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// WriteFile renders tracks to path, creating or truncating it.
func WriteFile(path, format, title string, tracks []models.Track) error {
	data, err := Format(format, title, tracks)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
