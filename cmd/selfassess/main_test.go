package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kingrea/selfassess/internal/config"
	"github.com/kingrea/selfassess/internal/session"
	"github.com/kingrea/selfassess/internal/step"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestStatusListsActiveSteps(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "status", "--project", dir)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, want := range []string{"Progress 0% (fixed)", "▸    1. Your details", "5. Declaration"} {
		if !strings.Contains(out, want) {
			t.Fatalf("status output missing %q:\n%s", want, out)
		}
	}
}

func TestPolicyCommandPersists(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "policy", "Active", "-C", dir)
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	if !strings.Contains(out, "Progress policy set to active") {
		t.Fatalf("output = %q", out)
	}
	cfg, err := config.NewConfig(dir)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if cfg.ProgressPolicy() != config.PolicyActive {
		t.Fatalf("policy = %s", cfg.ProgressPolicy())
	}

	if _, err := execute(t, "policy", "sometimes", "-C", dir); err == nil {
		t.Fatalf("unknown policy should fail")
	}
}

func TestResetClearsAnswers(t *testing.T) {
	dir := t.TempDir()
	s, err := session.Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.Store.Update(map[string]any{"fullName": "Ada"})
	s.Store.SetSectionCompleted(step.IDProfile, true)
	before := s.Store.SessionID()
	s.Close()

	out, err := execute(t, "reset", "-C", dir)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if !strings.Contains(out, "Answers cleared") || strings.Contains(out, before) {
		t.Fatalf("output = %q", out)
	}

	reopened, err := session.Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if got := reopened.Controller.Snapshot().String("fullName"); got != "" {
		t.Fatalf("full name survived reset: %q", got)
	}
}
