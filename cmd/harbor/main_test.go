package main

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestRunVersionText(t *testing.T) {
	var out strings.Builder
	if err := run(context.Background(), &out, &out, []string{"version"}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "Harbor") {
		t.Errorf("output = %q", out.String())
	}
	if !strings.Contains(out.String(), "go_version:") {
		t.Errorf("output missing go_version: %q", out.String())
	}
}

func TestRunVersionJSON(t *testing.T) {
	var out strings.Builder
	if err := run(context.Background(), &out, &out, []string{"-o", "json", "version"}); err != nil {
		t.Fatalf("run: %v", err)
	}
	var info map[string]string
	if err := json.Unmarshal([]byte(out.String()), &info); err != nil {
		t.Fatalf("output not JSON: %v\n%s", err, out.String())
	}
	if info["version"] == "" {
		t.Errorf("info = %v", info)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	var out strings.Builder
	if err := run(context.Background(), &out, &out, []string{"bogus"}); err == nil {
		t.Error("unknown command accepted")
	}
}

func TestRunUnknownFlag(t *testing.T) {
	var out strings.Builder
	if err := run(context.Background(), &out, &out, []string{"-zap"}); err == nil {
		t.Error("unknown flag accepted")
	}
}

func TestRunBadOutputFormat(t *testing.T) {
	var out strings.Builder
	if err := run(context.Background(), &out, &out, []string{"-o", "xml", "version"}); err == nil {
		t.Error("bad output format accepted")
	}
}

func TestRunNoCommandPrintsUsage(t *testing.T) {
	var out strings.Builder
	if err := run(context.Background(), &out, &out, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "Usage: harbor") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunAskRequiresQuestion(t *testing.T) {
	var out strings.Builder
	if err := run(context.Background(), &out, &out, []string{"ask"}); err == nil {
		t.Error("ask without question accepted")
	}
}

func TestConfigFlagForms(t *testing.T) {
	// Both -config forms should parse; with a nonexistent path the
	// command fails at config discovery, not argument parsing.
	var out strings.Builder
	err := run(context.Background(), &out, &out, []string{"-config", "/nonexistent/cfg.yaml", "ask", "hi"})
	if err == nil || !strings.Contains(err.Error(), "config") {
		t.Errorf("err = %v", err)
	}
	err = run(context.Background(), &out, &out, []string{"-config=/nonexistent/cfg.yaml", "ask", "hi"})
	if err == nil || !strings.Contains(err.Error(), "config") {
		t.Errorf("err = %v", err)
	}
}
