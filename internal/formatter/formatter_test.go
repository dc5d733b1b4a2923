package formatter

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/desertthunder/spotshuffle/internal/models"
	"github.com/desertthunder/spotshuffle/internal/shared"
	th "github.com/desertthunder/spotshuffle/internal/testing"
)

func sampleTracks() []models.Track {
	return []models.Track{
		{ID: "t1", Name: "Song One", Artists: []string{"Artist One"}, Album: "Album One", URI: "spotify:track:t1"},
		{ID: "t2", Name: "Song Two", Artists: []string{"A", "B"}, URI: "spotify:track:t2"},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ToText", func(t *testing.T) {
		got := string(ToText(sampleTracks()))
		want := "1. Song One — Artist One\n2. Song Two — A, B\n"
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("ToText Empty", func(t *testing.T) {
		if got := ToText(nil); len(got) != 0 {
			t.Errorf("expected empty output, got %q", got)
		}
	})

	t.Run("Does Not Mutate", func(t *testing.T) {
		tracks := sampleTracks()
		before := slices.Clone(tracks)

		_ = ToText(tracks)
		_, _ = ToCSV(tracks)

		for i := range tracks {
			if tracks[i].Name != before[i].Name {
				t.Error("expected input to be unchanged")
			}
		}
	})

	t.Run("ToMarkdown", func(t *testing.T) {
		output := string(ToMarkdown("Shuffled", sampleTracks()))

		for _, want := range []string{
			"# Shuffled",
			"**Tracks**: 2",
			"1. Artist One - Song One (Album One)",
			"2. A, B - Song Two\n",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("markdown missing %q, got: %s", want, output)
			}
		}
	})

	t.Run("ToCSV", func(t *testing.T) {
		data, err := ToCSV(sampleTracks())
		if err != nil {
			t.Fatalf("ToCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected header and 2 rows, got %d lines", len(lines))
		}
		if lines[0] != "Position,ID,Name,Artists,Album,URI" {
			t.Errorf("unexpected header %q", lines[0])
		}
		if lines[2] != `2,t2,Song Two,"A, B",,spotify:track:t2` {
			t.Errorf("unexpected row %q", lines[2])
		}
	})

	t.Run("ToJSON", func(t *testing.T) {
		data, err := ToJSON(sampleTracks())
		if err != nil {
			t.Fatalf("ToJSON failed: %v", err)
		}

		var decoded []models.Track
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if len(decoded) != 2 || decoded[1].Artists[1] != "B" {
			t.Errorf("unexpected decoded tracks: %+v", decoded)
		}

		empty, _ := ToJSON(nil)
		if strings.TrimSpace(string(empty)) != "[]" {
			t.Errorf("expected [] for no tracks, got %s", empty)
		}
	})

	t.Run("ToHTML", func(t *testing.T) {
		tracks := []models.Track{{Name: "<script>alert(1)</script>", Artists: []string{"Tom & Jerry"}}}

		got, err := ToHTML(tracks)
		if err != nil {
			t.Fatalf("ToHTML failed: %v", err)
		}

		output := string(got)
		if strings.Contains(output, "<script>") {
			t.Errorf("expected track name to be escaped, got %s", output)
		}
		if !strings.Contains(output, "Tom &amp; Jerry") {
			t.Errorf("expected escaped artist, got %s", output)
		}
		if !strings.HasPrefix(output, `<ol class="tracks">`) {
			t.Errorf("expected an ordered list, got %s", output)
		}
	})
}

func TestFormat(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"", "1. Song One"},
		{"text", "1. Song One"},
		{"TXT", "1. Song One"},
		{"md", "**Tracks**: 2"},
		{"markdown", "**Tracks**: 2"},
		{"csv", "Position,ID"},
		{"json", `"name": "Song One"`},
		{"html", "<li>"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			data, err := Format(tt.format, "Title", sampleTracks())
			if err != nil {
				t.Fatalf("Format(%q) error = %v", tt.format, err)
			}
			if !strings.Contains(string(data), tt.want) {
				t.Errorf("expected %q in output, got %s", tt.want, data)
			}
		})
	}

	t.Run("Unknown", func(t *testing.T) {
		if _, err := Format("yaml", "", sampleTracks()); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestWrite(t *testing.T) {
	t.Run("Writer", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Write(&buf, FormatText, "", sampleTracks()); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if !strings.HasPrefix(buf.String(), "1. Song One") {
			t.Errorf("unexpected output %q", buf.String())
		}
	})

	t.Run("Failing Writer", func(t *testing.T) {
		if err := Write(&th.FWriter{}, FormatText, "", sampleTracks()); err == nil {
			t.Error("expected write error")
		}
	})

	t.Run("File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "shuffled.csv")
		if err := WriteFile(path, FormatCSV, "", sampleTracks()); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}

		th.AssertFileExists(t, path)
		if content := th.MustReadFile(t, path); !strings.Contains(content, "Song Two") {
			t.Errorf("file missing track, got: %s", content)
		}
	})

	t.Run("File In Missing Directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "out.txt")
		if err := WriteFile(path, FormatText, "", sampleTracks()); err == nil {
			t.Error("expected error for missing directory")
		}
	})
}
