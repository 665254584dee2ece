package main

import (
	"bytes"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/ocelot/tunesd/internal/shared"
	tu "github.com/ocelot/tunesd/internal/testing"
)

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

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
		commands := runner.register()

		want := []string{"setup", "serve", "download", "status", "cancel", "playlist", "cache"}
		if len(commands) != len(want) {
			t.Fatalf("len(commands) = %d, want %d", len(commands), len(want))
		}
		for i, name := range want {
			if commands[i].Name != name {
				t.Errorf("commands[%d].Name = %q, want %q", i, commands[i].Name, name)
			}
		}
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("compact", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("writeJSON() error = %v", err)
			}
			if output.String() != "{\"key\":\"value\"}\n" {
				t.Errorf("output = %q", output.String())
			}
		})

		t.Run("pretty", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("writeJSON() error = %v", err)
			}
			if !strings.Contains(output.String(), "  \"key\": \"value\"") {
				t.Errorf("output = %q", output.String())
			}
		})

		t.Run("write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err == nil {
				t.Error("expected error from failing writer")
			}
		})

		t.Run("newline write failure", func(t *testing.T) {
			output := &bytes.Buffer{}
			limited := tu.NewLimitedWriter(1, 0, output)
			runner := NewRunner(RunnerOpts{Output: &limited})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err == nil {
				t.Error("expected error when the trailing newline write fails")
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writePlain("count: %d\n", 3); err != nil {
			t.Fatalf("writePlain() error = %v", err)
		}
		if output.String() != "count: 3\n" {
			t.Errorf("output = %q", output.String())
		}

		if err := NewRunner(RunnerOpts{Output: &tu.FWriter{}}).writePlain("x"); err == nil {
			t.Error("expected error from failing writer")
		}
	})
}

func TestServiceDetail(t *testing.T) {
	if got := serviceDetail(map[string]any{"detail": "not found"}); got != "not found" {
		t.Errorf("serviceDetail() = %q", got)
	}
	if got := serviceDetail("plain"); got != "plain" {
		t.Errorf("serviceDetail() = %q", got)
	}
}
