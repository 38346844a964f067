package main

import (
	"strings"
	"testing"
)

func TestServeCmd_Help(t *testing.T) {
	out, err := run(t, "serve", "--help")
	if err != nil {
		t.Fatalf("serve --help failed: %v", err)
	}
	if !strings.Contains(out, "API server") {
		t.Errorf("expected help to mention the API server, got: %s", out)
	}
	if !strings.Contains(out, "--port") {
		t.Errorf("expected help to list the --port flag, got: %s", out)
	}
}

func TestNewServeCmd_Flags(t *testing.T) {
	cmd := newServeCmd()
	if cmd.Use != "serve" {
		t.Errorf("Use = %q, want %q", cmd.Use, "serve")
	}
	if cmd.Flags().Lookup("config") == nil {
		t.Error("serve command missing --config flag")
	}
	if cmd.Flags().Lookup("port") == nil {
		t.Error("serve command missing --port flag")
	}
}
