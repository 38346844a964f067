package models

import (
	"reflect"
	"strings"
	"testing"
)

// gormTag extracts the gorm tag from a struct field.
func gormTag(t *testing.T, typ reflect.Type, fieldName string) string {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	return f.Tag.Get("gorm")
}

// assertGormTag checks that a struct field's gorm tag contains the expected value.
func assertGormTag(t *testing.T, typ reflect.Type, fieldName, expected string) {
	t.Helper()
	tag := gormTag(t, typ, fieldName)
	if !strings.Contains(tag, expected) {
		t.Errorf("%s.%s gorm tag = %q, want to contain %q", typ.Name(), fieldName, tag, expected)
	}
}

func TestAgent_Fields(t *testing.T) {
	typ := reflect.TypeOf(Agent{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "Name", "not null")
	assertGormTag(t, typ, "Email", "uniqueIndex")
	assertGormTag(t, typ, "CurrentState", "default:available")
	assertGormTag(t, typ, "CurrentState", "index")
}

func TestAgentStateLog_Fields(t *testing.T) {
	typ := reflect.TypeOf(AgentStateLog{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "AgentID", "index")
	assertGormTag(t, typ, "State", "not null")

	f, _ := typ.FieldByName("ExitedAt")
	if f.Type.String() != "*time.Time" {
		t.Errorf("ExitedAt type = %q, want *time.Time (nullable)", f.Type.String())
	}
}

func TestQueueEntry_Fields(t *testing.T) {
	typ := reflect.TypeOf(QueueEntry{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "SourceID", "uniqueIndex:idx_queue_source_record")
	assertGormTag(t, typ, "RecordID", "uniqueIndex:idx_queue_source_record")
	assertGormTag(t, typ, "Status", "default:pending")
	assertGormTag(t, typ, "Priority", "default:0")

	for _, field := range []string{"AssignedAt", "CompletedAt"} {
		f, _ := typ.FieldByName(field)
		if f.Type.String() != "*time.Time" {
			t.Errorf("%s type = %q, want *time.Time (nullable)", field, f.Type.String())
		}
	}
}

func TestTaskLog_Fields(t *testing.T) {
	typ := reflect.TypeOf(TaskLog{})

	assertGormTag(t, typ, "AgentID", "index")
	assertGormTag(t, typ, "SourceID", "index")
	assertGormTag(t, typ, "CompletedAt", "index")
}

func TestAgentState_Valid(t *testing.T) {
	tests := []struct {
		state AgentState
		want  bool
	}{
		{StateAvailable, true},
		{StateInTask, true},
		{StateBreak, true},
		{StateWrapUp, true},
		{AgentState("idle"), false},
		{AgentState(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.Valid(); got != tt.want {
				t.Errorf("Valid(%q) = %v, want %v", tt.state, got, tt.want)
			}
		})
	}
}

func TestAllStates_CoversFourStates(t *testing.T) {
	states := AllStates()
	if len(states) != 4 {
		t.Fatalf("AllStates() returned %d states, want 4", len(states))
	}
	seen := make(map[AgentState]bool)
	for _, s := range states {
		if seen[s] {
			t.Errorf("duplicate state %q", s)
		}
		seen[s] = true
	}
}

func TestAllStatuses_CoversFourStatuses(t *testing.T) {
	statuses := AllStatuses()
	if len(statuses) != 4 {
		t.Fatalf("AllStatuses() returned %d statuses, want 4", len(statuses))
	}
}
