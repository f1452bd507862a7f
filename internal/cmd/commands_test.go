package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harrison/actuator/internal/models"
)

const insightsYAML = `- id: ins-1
  summary: Add opportunity detection
  type: trading_optimization
  action: add_opportunity_detection
- summary: Noisy prints
  type: code_optimization
  action: replace_prints_with_logging
`

// testEnv isolates ACTUATOR_HOME and returns (home, workspace, insights file).
func testEnv(t *testing.T) (string, string, string) {
	t.Helper()
	root := t.TempDir()
	home := filepath.Join(root, "home")
	ws := filepath.Join(root, "ws")
	if err := os.MkdirAll(ws, 0755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ACTUATOR_HOME", home)

	if err := os.WriteFile(filepath.Join(ws, "unified_trading_system.py"), []byte("class TradingSystem:\n    pass\n"), 0644); err != nil {
		t.Fatal(err)
	}
	insights := filepath.Join(root, "insights.yaml")
	if err := os.WriteFile(insights, []byte(insightsYAML), 0644); err != nil {
		t.Fatal(err)
	}
	return home, ws, insights
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestLoadInsights(t *testing.T) {
	dir := t.TempDir()

	t.Run("yaml list", func(t *testing.T) {
		path := filepath.Join(dir, "list.yaml")
		os.WriteFile(path, []byte(insightsYAML), 0644)

		insights, err := LoadInsights(path)
		if err != nil {
			t.Fatalf("LoadInsights() error = %v", err)
		}
		if len(insights) != 2 {
			t.Fatalf("got %d insights, want 2", len(insights))
		}
		if insights[0].ID != "ins-1" {
			t.Errorf("ID = %q, want ins-1", insights[0].ID)
		}
		if insights[1].ID == "" {
			t.Error("missing ID should be generated")
		}
	})

	t.Run("json wrapper", func(t *testing.T) {
		path := filepath.Join(dir, "wrapped.json")
		os.WriteFile(path, []byte(`{"insights": [{"id": "j1", "summary": "Fix links", "type": "website_optimization", "action": "fix_broken_website_links", "implication": "visitors bounce"}]}`), 0644)

		insights, err := LoadInsights(path)
		if err != nil {
			t.Fatalf("LoadInsights() error = %v", err)
		}
		want := models.Insight{ID: "j1", Summary: "Fix links", Type: "website_optimization", Action: "fix_broken_website_links", Implication: "visitors bounce"}
		if len(insights) != 1 || insights[0] != want {
			t.Errorf("got %+v, want %+v", insights, want)
		}
	})

	t.Run("scalar document", func(t *testing.T) {
		path := filepath.Join(dir, "scalar.yaml")
		os.WriteFile(path, []byte("just text\n"), 0644)
		if _, err := LoadInsights(path); err == nil {
			t.Error("expected error for scalar document")
		}
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(dir, "empty.yaml")
		os.WriteFile(path, nil, 0644)
		insights, err := LoadInsights(path)
		if err != nil || len(insights) != 0 {
			t.Errorf("LoadInsights() = %v, %v; want empty, nil", insights, err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadInsights(filepath.Join(dir, "nope.yaml")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func TestPlanCommand(t *testing.T) {
	home, ws, insights := testEnv(t)

	output, err := execute(t, "plan", "--workspace", ws, "--verbose", insights)
	if err != nil {
		t.Fatalf("plan failed: %v\n%s", err, output)
	}

	for _, want := range []string{
		"Insight ins-1: Add opportunity detection",
		"1. trading_optimization/add_opportunity_detection -> unified_trading_system.py [HIGH]",
		"Add real-time opportunity detection to trading system",
		"code_optimization/replace_prints_with_logging",
		"Dry-run: 2 action(s) across 2 insight(s), 3 sample(s) per insight.",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}

	if _, err := os.Stat(filepath.Join(home, "history.jsonl")); !os.IsNotExist(err) {
		t.Error("plan must not create the history")
	}
	data, _ := os.ReadFile(filepath.Join(ws, "unified_trading_system.py"))
	if strings.Contains(string(data), "actuator:") {
		t.Error("plan must not mutate the workspace")
	}
}

func TestRunThenSummary(t *testing.T) {
	home, ws, insights := testEnv(t)

	output, err := execute(t, "run", "--workspace", ws, insights)
	if err != nil {
		t.Fatalf("run failed: %v\n%s", err, output)
	}
	for _, want := range []string{
		"trading_optimization/add_opportunity_detection -> completed (verified)",
		"unknown_code_action",
		"Executed: 2",
		"Successful: 1",
		"Failed: 1",
		"=== Execution Summary ===",
		"Total executions: 2",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("run output missing %q:\n%s", want, output)
		}
	}
	if _, err := os.Stat(filepath.Join(home, "logs", "latest.log")); err != nil {
		t.Errorf("run log missing: %v", err)
	}

	// The completed insight is inside the cooldown; the failed one runs again.
	output, err = execute(t, "run", "--workspace", ws, insights)
	if err != nil {
		t.Fatalf("second run failed: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Executed: 1") || !strings.Contains(output, "Skipped: 1") {
		t.Errorf("second run should skip the completed insight:\n%s", output)
	}

	output, err = execute(t, "summary", "--workspace", ws)
	if err != nil {
		t.Fatalf("summary failed: %v\n%s", err, output)
	}
	for _, want := range []string{
		"Total executions: 3",
		"Successful: 1",
		"Failed: 2",
		"Add opportunity detection",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("summary output missing %q:\n%s", want, output)
		}
	}

	output, err = execute(t, "summary", "--json")
	if err != nil {
		t.Fatalf("summary --json failed: %v", err)
	}
	var summary models.ExecutionSummary
	if err := json.Unmarshal([]byte(output), &summary); err != nil {
		t.Fatalf("summary --json is not JSON: %v\n%s", err, output)
	}
	if summary.Total != 3 || summary.LastExecution == nil {
		t.Errorf("unexpected JSON summary: %+v", summary)
	}
}

func TestRunWithSQLiteBackend(t *testing.T) {
	home, ws, insights := testEnv(t)

	output, err := execute(t, "run", "--workspace", ws, "--history-backend", "sqlite", "--history", filepath.Join(home, "h.db"), insights)
	if err != nil {
		t.Fatalf("run failed: %v\n%s", err, output)
	}

	output, err = execute(t, "summary", "--history-backend", "sqlite", "--history", filepath.Join(home, "h.db"), "--limit", "1")
	if err != nil {
		t.Fatalf("summary failed: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Total executions: 2") {
		t.Errorf("summary output:\n%s", output)
	}
	if strings.Count(output, "action(s))") != 1 {
		t.Errorf("--limit 1 should list one execution:\n%s", output)
	}
}

func TestRunErrors(t *testing.T) {
	_, ws, insights := testEnv(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "no files", args: []string{"run"}, wantErr: "requires at least 1 arg"},
		{name: "missing file", args: []string{"run", "--workspace", ws, "/nonexistent/insights.yaml"}, wantErr: "read insights file"},
		{name: "bad backend", args: []string{"run", "--history-backend", "redis", insights}, wantErr: "invalid configuration"},
		{name: "bad samples", args: []string{"run", "--samples", "-1", insights}, wantErr: "planning.samples"},
		{name: "bad log level", args: []string{"summary", "--log-level", "loud"}, wantErr: "invalid log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestPlanDirectoryArgument(t *testing.T) {
	_, ws, insights := testEnv(t)
	dir := filepath.Join(filepath.Dir(insights), "batch")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(insights)
	os.WriteFile(filepath.Join(dir, "a.yaml"), data, 0644)
	os.WriteFile(filepath.Join(dir, "README.md"), []byte("# not insights"), 0644)

	output, err := execute(t, "plan", "--workspace", ws, dir)
	if err != nil {
		t.Fatalf("plan failed: %v\n%s", err, output)
	}
	if !strings.Contains(output, "across 2 insight(s)") {
		t.Errorf("directory argument not expanded:\n%s", output)
	}
}

func TestConfigFileIsHonored(t *testing.T) {
	home, ws, insights := testEnv(t)
	if err := os.MkdirAll(home, 0755); err != nil {
		t.Fatal(err)
	}
	cfg := "workspace: " + ws + "\nplanning:\n  samples: 1\n"
	if err := os.WriteFile(filepath.Join(home, "config.yaml"), []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}

	output, err := execute(t, "plan", insights)
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	if !strings.Contains(output, "1 sample(s) per insight") {
		t.Errorf("config samples not applied:\n%s", output)
	}
}
