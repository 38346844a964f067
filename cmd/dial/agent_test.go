package main

import (
	"strings"
	"testing"
)

func migratedConfig(t *testing.T) string {
	t.Helper()
	cfg := writeTestConfig(t)
	if _, err := run(t, "db", "migrate", "-c", cfg); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return cfg
}

func TestAgentCmd_Help(t *testing.T) {
	out, err := run(t, "agent", "--help")
	if err != nil {
		t.Fatalf("agent --help failed: %v", err)
	}
	for _, sub := range []string{"create", "list", "state"} {
		if !strings.Contains(out, sub) {
			t.Errorf("expected help to list %q, got: %s", sub, out)
		}
	}
}

func TestAgentCreateAndList(t *testing.T) {
	cfg := migratedConfig(t)

	out, err := run(t, "agent", "create", "Dana", "dana@example.com", "-c", cfg)
	if err != nil {
		t.Fatalf("agent create failed: %v", err)
	}
	if !strings.Contains(out, "Dana <dana@example.com> (available)") {
		t.Errorf("create output = %q", out)
	}

	out, err = run(t, "agent", "list", "-c", cfg)
	if err != nil {
		t.Fatalf("agent list failed: %v", err)
	}
	if !strings.Contains(out, "dana@example.com") {
		t.Errorf("list output = %q", out)
	}
}

func TestAgentList_Empty(t *testing.T) {
	cfg := migratedConfig(t)

	out, err := run(t, "agent", "list", "-c", cfg)
	if err != nil {
		t.Fatalf("agent list failed: %v", err)
	}
	if !strings.Contains(out, "No agents registered.") {
		t.Errorf("list output = %q", out)
	}
}

func TestAgentState(t *testing.T) {
	cfg := migratedConfig(t)
	if _, err := run(t, "agent", "create", "Dana", "dana@example.com", "-c", cfg); err != nil {
		t.Fatalf("agent create: %v", err)
	}

	out, err := run(t, "agent", "state", "1", "break", "-c", cfg)
	if err != nil {
		t.Fatalf("agent state failed: %v", err)
	}
	if !strings.Contains(out, "Agent 1 is now break") {
		t.Errorf("output = %q", out)
	}
}

func TestAgentState_BadID(t *testing.T) {
	cfg := migratedConfig(t)

	_, err := run(t, "agent", "state", "banana", "break", "-c", cfg)
	if err == nil {
		t.Fatal("expected error for non-numeric agent ID")
	}
	if !strings.Contains(err.Error(), "invalid agent ID") {
		t.Errorf("error = %q", err)
	}
}

func TestAgentState_UnknownAgent(t *testing.T) {
	cfg := migratedConfig(t)

	_, err := run(t, "agent", "state", "42", "break", "-c", cfg)
	if err == nil {
		t.Fatal("expected error for unknown agent")
	}
}
