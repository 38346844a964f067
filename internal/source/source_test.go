package source

import (
	"errors"
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"github.com/calldesk/dialdesk/internal/config"
	"github.com/calldesk/dialdesk/internal/db"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.Connect(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "dialdesk_test.db"),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return gdb
}

func TestCreate(t *testing.T) {
	gdb := openTestDB(t)

	src, err := Create(gdb, "campaign-a", "crm-7")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if src.ID == 0 {
		t.Error("source ID not assigned")
	}
	if src.Name != "campaign-a" || src.ExternalRef != "crm-7" {
		t.Errorf("source = %+v", src)
	}
}

func TestCreate_EmptyName(t *testing.T) {
	gdb := openTestDB(t)

	if _, err := Create(gdb, "", ""); err == nil {
		t.Fatal("expected error for empty name")
	}
}

func TestCreate_DuplicateName(t *testing.T) {
	gdb := openTestDB(t)

	if _, err := Create(gdb, "campaign-a", ""); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if _, err := Create(gdb, "campaign-a", ""); err == nil {
		t.Fatal("expected error for duplicate name")
	}
}

func TestGet(t *testing.T) {
	gdb := openTestDB(t)
	src, err := Create(gdb, "campaign-a", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := Get(gdb, src.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "campaign-a" {
		t.Errorf("Get = %+v", got)
	}
}

func TestGet_NotFound(t *testing.T) {
	gdb := openTestDB(t)

	_, err := Get(gdb, 42)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestList_OrderedByName(t *testing.T) {
	gdb := openTestDB(t)
	for _, name := range []string{"charlie", "alpha", "bravo"} {
		if _, err := Create(gdb, name, ""); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
	}

	sources, err := List(gdb)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(sources) != 3 {
		t.Fatalf("List returned %d sources, want 3", len(sources))
	}
	want := []string{"alpha", "bravo", "charlie"}
	for i, s := range sources {
		if s.Name != want[i] {
			t.Errorf("sources[%d] = %q, want %q", i, s.Name, want[i])
		}
	}
}
