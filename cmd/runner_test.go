package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/spotshuffle/internal/models"
	"github.com/desertthunder/spotshuffle/internal/shared"
	fakes "github.com/desertthunder/spotshuffle/internal/testing"
	"github.com/urfave/cli/v3"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find a free port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

// callbackOpener stands in for the browser: it approves the login by calling the redirect URI
// with the state from the authorize URL.
func callbackOpener(redirect string, opened *int) func(string) error {
	return func(authURL string) error {
		*opened++
		u, err := url.Parse(authURL)
		if err != nil {
			return err
		}
		resp, err := http.Get(redirect + "?code=test-code&state=" + url.QueryEscape(u.Query().Get("state")))
		if err != nil {
			return err
		}
		return resp.Body.Close()
	}
}

type testRunner struct {
	*Runner
	fake   *fakes.FakeSpotify
	config *shared.Config
	out    *bytes.Buffer
	opened int
}

func newTestRunner(t *testing.T, total int) *testRunner {
	t.Helper()
	fake := fakes.NewFakeSpotify(t, total)
	config := fake.Config()
	config.Spotify.RedirectURI = fmt.Sprintf("http://127.0.0.1:%d/callback", freePort(t))
	config.Database.Path = filepath.Join(t.TempDir(), "history.db")

	tr := &testRunner{fake: fake, config: config, out: &bytes.Buffer{}}
	tr.Runner = NewRunner(RunnerOpts{
		Config: config,
		Logger: shared.NewLogger(io.Discard),
		Output: tr.out,
		Open:   callbackOpener(config.Spotify.RedirectURI, &tr.opened),
	})
	return tr
}

func (tr *testRunner) run(args ...string) error {
	app := &cli.Command{Name: "spotshuffle", Commands: tr.register()}
	return app.Run(context.Background(), append([]string{"spotshuffle"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.open == nil {
				t.Error("expected a default browser opener")
			}
			if runner.config != nil {
				t.Error("expected config to be loaded per command")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if result := output.String(); result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &fakes.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := fakes.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result := output.String(); result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &fakes.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		names := map[string]bool{}
		for i, cmd := range runner.register() {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}

		for _, name := range []string{"run", "serve", "tui", "history", "setup"} {
			if !names[name] {
				t.Errorf("expected command %q to be registered", name)
			}
		}
	})
}

func TestRun(t *testing.T) {
	t.Run("prints the shuffled playlist", func(t *testing.T) {
		tr := newTestRunner(t, 150)

		if err := tr.run("run", "--id", "https://open.spotify.com/playlist/pl1", "--format", "json"); err != nil {
			t.Fatalf("run failed: %v", err)
		}

		if tr.opened != 1 {
			t.Errorf("expected the browser to open once, got %d", tr.opened)
		}
		if got := tr.fake.PageRequests(); got != 2 {
			t.Errorf("expected 2 page requests, got %d", got)
		}
		if ids := tr.fake.PlaylistIDs(); len(ids) == 0 || ids[0] != "pl1" {
			t.Errorf("expected playlist pl1, got %v", ids)
		}

		output := tr.out.String()
		if !strings.Contains(output, "✓ Logged in with Spotify") || !strings.Contains(output, "[100%]") {
			t.Errorf("expected login and progress lines, got %s", output)
		}

		var tracks []models.Track
		if err := json.Unmarshal([]byte(output[strings.Index(output, "\n\n[")+2:]), &tracks); err != nil {
			t.Fatalf("expected a JSON track list, got %v", err)
		}
		if len(tracks) != 150 {
			t.Fatalf("expected 150 tracks, got %d", len(tracks))
		}
		seen := map[string]bool{}
		for _, track := range tracks {
			seen[track.ID] = true
		}
		if len(seen) != 150 {
			t.Errorf("expected every track exactly once, got %d distinct", len(seen))
		}
	})

	t.Run("writes to a file quietly", func(t *testing.T) {
		tr := newTestRunner(t, 3)
		path := filepath.Join(t.TempDir(), "shuffled.md")

		if err := tr.run("run", "--id", "pl1", "--format", "md", "--output", path, "--quiet"); err != nil {
			t.Fatalf("run failed: %v", err)
		}

		fakes.AssertFileExists(t, path)
		content := fakes.MustReadFile(t, path)
		if !strings.Contains(content, "Playlist pl1 (shuffled)") || !strings.Contains(content, "Track 2") {
			t.Errorf("unexpected file content %s", content)
		}
		if strings.Contains(tr.out.String(), "%]") {
			t.Error("expected no progress output")
		}
		if !strings.Contains(tr.out.String(), "✓ Wrote 3 tracks to "+path) {
			t.Errorf("expected confirmation, got %s", tr.out.String())
		}
	})

	t.Run("records history", func(t *testing.T) {
		tr := newTestRunner(t, 2)
		if err := tr.run("run", "--id", "pl1", "--quiet"); err != nil {
			t.Fatalf("run failed: %v", err)
		}

		tr.out.Reset()
		if err := tr.run("history", "--json"); err != nil {
			t.Fatalf("history failed: %v", err)
		}

		var entries []historyEntry
		if err := json.Unmarshal(tr.out.Bytes(), &entries); err != nil {
			t.Fatalf("expected JSON history, got %v", err)
		}
		if len(entries) != 1 || entries[0].PlaylistID != "pl1" || entries[0].Status != models.RunCompleted || entries[0].TracksTotal != 2 {
			t.Errorf("unexpected history %+v", entries)
		}
	})

	t.Run("records failures", func(t *testing.T) {
		tr := newTestRunner(t, 250)
		tr.fake.FailPage = 2

		if err := tr.run("run", "--id", "pl1", "--quiet"); !errors.Is(err, shared.ErrTransient) {
			t.Fatalf("expected a transient failure, got %v", err)
		}
		if strings.Contains(tr.out.String(), "Track") {
			t.Error("expected no partial output")
		}

		tr.out.Reset()
		if err := tr.run("history", "--status", models.RunFailed); err != nil {
			t.Fatalf("history failed: %v", err)
		}
		if !strings.Contains(tr.out.String(), "pl1") || !strings.Contains(tr.out.String(), "✗") {
			t.Errorf("expected the failed run, got %s", tr.out.String())
		}
		if !strings.Contains(tr.out.String(), "  1 pages") {
			t.Errorf("expected the pages fetched before the failure, got %s", tr.out.String())
		}
	})

	t.Run("rejects bad input before login", func(t *testing.T) {
		tests := []struct {
			name string
			args []string
		}{
			{"invalid id", []string{"run", "--id", "not a playlist!"}},
			{"unknown format", []string{"run", "--id", "pl1", "--format", "yaml"}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				tr := newTestRunner(t, 1)
				if err := tr.run(tt.args...); !errors.Is(err, shared.ErrInvalidArgument) {
					t.Errorf("expected ErrInvalidArgument, got %v", err)
				}
				if tr.opened != 0 || tr.fake.PageRequests() != 0 {
					t.Error("expected no login and no fetch")
				}
			})
		}
	})

	t.Run("missing client id", func(t *testing.T) {
		tr := newTestRunner(t, 1)
		tr.config.Spotify.ClientID = ""

		if err := tr.run("run", "--id", "pl1"); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})
}

func TestServe(t *testing.T) {
	t.Run("refuses unusable session secrets", func(t *testing.T) {
		for _, secret := range []string{"", shared.DefaultConfig().Server.SessionSecret} {
			tr := newTestRunner(t, 1)
			tr.config.Server.SessionSecret = secret
			tr.config.Server.Port = freePort(t)

			if err := tr.run("serve"); !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("secret %q: expected ErrInvalidConfig, got %v", secret, err)
			}
		}
	})
}

func TestHistory(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		tr := newTestRunner(t, 0)
		if err := tr.run("history"); err != nil {
			t.Fatalf("history failed: %v", err)
		}
		if !strings.Contains(tr.out.String(), "No shuffle runs recorded yet.") {
			t.Errorf("unexpected output %q", tr.out.String())
		}
	})
}

func TestSetup(t *testing.T) {
	t.Run("config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		out := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: out})
		app := &cli.Command{Name: "spotshuffle", Commands: runner.register()}

		if err := app.Run(context.Background(), []string{"spotshuffle", "setup", "config", "-c", path}); err != nil {
			t.Fatalf("setup config failed: %v", err)
		}
		fakes.AssertFileExists(t, path)
		if _, err := shared.LoadConfig(path); err != nil {
			t.Errorf("expected a loadable config, got %v", err)
		}

		if err := app.Run(context.Background(), []string{"spotshuffle", "setup", "config", "-c", path}); err == nil {
			t.Error("expected an error when the file exists")
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("[spotify\n"), 0644); err != nil {
			t.Fatal(err)
		}
		runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: &bytes.Buffer{}})
		app := &cli.Command{Name: "spotshuffle", Commands: runner.register()}

		err := app.Run(context.Background(), []string{"spotshuffle", "setup", "database", "-c", path})
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("database", func(t *testing.T) {
		tr := newTestRunner(t, 0)
		if err := tr.run("setup", "database"); err != nil {
			t.Fatalf("setup database failed: %v", err)
		}
		fakes.AssertFileExists(t, tr.config.Database.Path)
	})
}
