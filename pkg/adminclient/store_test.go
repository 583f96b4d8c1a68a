package adminclient

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	s := NewFileStore(path)

	if _, ok := s.Get(KeyAdminToken); ok {
		t.Fatal("empty store should have no values")
	}
	if err := s.Set(KeyAdminToken, "tok"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(KeyAdminUser, `{"id":"a"}`); err != nil {
		t.Fatalf("set: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("expected 0600, got %o", perm)
	}

	reopened := NewFileStore(path)
	if v, ok := reopened.Get(KeyAdminToken); !ok || v != "tok" {
		t.Errorf("value not persisted: %q", v)
	}

	if err := reopened.Delete(KeyAdminToken, KeyAdminUser); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := s.Get(KeyAdminUser); ok {
		t.Error("delete should remove keys")
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	os.WriteFile(path, []byte("{not json"), 0o600)
	s := NewFileStore(path)
	if _, ok := s.Get(KeyAdminToken); ok {
		t.Fatal("corrupt file should read as empty")
	}
	if err := s.Set(KeyAdminToken, "x"); err == nil {
		t.Fatal("writing over a corrupt file should report the parse error")
	}
}
