package credential

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestStore_SetGetClear(t *testing.T) {
	storage := NewMemoryStorage()
	s := New(storage, nil)

	if got := s.Get(); got != "" {
		t.Fatalf("Get() on empty store = %q, want empty", got)
	}

	s.Set("sk-test")
	if got := s.Get(); got != "sk-test" {
		t.Errorf("Get() = %q, want sk-test", got)
	}
	if v, ok, _ := storage.Get(StorageKey); !ok || v != "sk-test" {
		t.Errorf("storage value = %q (ok=%v), want sk-test", v, ok)
	}

	s.Clear()
	if got := s.Get(); got != "" {
		t.Errorf("Get() after Clear = %q, want empty", got)
	}
	if _, ok, _ := storage.Get(StorageKey); ok {
		t.Error("storage still holds key after Clear")
	}
}

func TestStore_SetEmptyClears(t *testing.T) {
	storage := NewMemoryStorage()
	s := New(storage, nil)
	s.Set("sk-test")
	s.Set("")

	if s.IsSet() {
		t.Error("IsSet() = true after Set(\"\")")
	}
	if _, ok, _ := storage.Get(StorageKey); ok {
		t.Error("storage still holds key after Set(\"\")")
	}
}

func TestStore_LoadsPersistedValue(t *testing.T) {
	storage := NewMemoryStorage()
	storage.Set(StorageKey, "sk-persisted")

	s := New(storage, nil)
	if got := s.Get(); got != "sk-persisted" {
		t.Errorf("Get() = %q, want sk-persisted", got)
	}
}

type failingStorage struct{}

func (failingStorage) Get(string) (string, bool, error) { return "", false, errors.New("boom") }
func (failingStorage) Set(string, string) error         { return errors.New("boom") }
func (failingStorage) Remove(string) error              { return errors.New("boom") }

func TestStore_StorageFailuresSwallowed(t *testing.T) {
	s := New(failingStorage{}, nil)

	s.Set("sk-test")
	if got := s.Get(); got != "sk-test" {
		t.Errorf("Get() = %q, want in-memory value sk-test", got)
	}

	s.Clear()
	if got := s.Get(); got != "" {
		t.Errorf("Get() after Clear = %q, want empty", got)
	}
}

func TestStore_NilStorage(t *testing.T) {
	s := New(nil, nil)
	s.Set("sk-test")
	if got := s.Get(); got != "sk-test" {
		t.Errorf("Get() = %q, want sk-test", got)
	}
	s.Clear()
	if s.IsSet() {
		t.Error("IsSet() = true after Clear")
	}
}

func TestMask(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"abc", "•••"},
		{"sk-12345", "••••••••"},
	}
	for _, tt := range tests {
		if got := Mask(tt.in); got != tt.want {
			t.Errorf("Mask(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsMask(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", false},
		{"•••", true},
		{"••a", false},
		{"sk-1", false},
	}
	for _, tt := range tests {
		if got := IsMask(tt.in); got != tt.want {
			t.Errorf("IsMask(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStore_Save(t *testing.T) {
	s := New(NewMemoryStorage(), nil)
	s.Set("sk-original")

	if s.Save(s.Masked()) {
		t.Error("Save(mask) reported a change")
	}
	if got := s.Get(); got != "sk-original" {
		t.Errorf("Get() after Save(mask) = %q, want sk-original", got)
	}

	if !s.Save("sk-new") {
		t.Error("Save(new) reported no change")
	}
	if got := s.Get(); got != "sk-new" {
		t.Errorf("Get() = %q, want sk-new", got)
	}

	if !s.Save("") {
		t.Error("Save(\"\") reported no change")
	}
	if s.IsSet() {
		t.Error("Save(\"\") did not clear the key")
	}
}

func TestFileStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.json")
	fs, err := NewFileStorage(path)
	if err != nil {
		t.Fatalf("NewFileStorage: %v", err)
	}

	if _, ok, err := fs.Get(StorageKey); err != nil || ok {
		t.Fatalf("Get on missing file: ok=%v err=%v", ok, err)
	}

	if err := fs.Set(StorageKey, "sk-file"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file mode = %o, want 0600", perm)
	}

	// A second store over the same file sees the value.
	s := New(mustFileStorage(t, path), nil)
	if got := s.Get(); got != "sk-file" {
		t.Errorf("Get() = %q, want sk-file", got)
	}

	if err := fs.Remove(StorageKey); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("credential file still exists after removing last key")
	}
	if err := fs.Remove(StorageKey); err != nil {
		t.Errorf("Remove of missing key: %v", err)
	}
}

func TestFileStorage_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	fs := mustFileStorage(t, path)
	if _, _, err := fs.Get(StorageKey); err == nil {
		t.Error("Get on corrupt file: expected error")
	}

	// The store swallows the error and starts empty.
	s := New(fs, nil)
	if s.IsSet() {
		t.Error("IsSet() = true for corrupt storage")
	}
}

func TestFileStorage_ReplacesFileWithoutLeftovers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.json")
	fs := mustFileStorage(t, path)

	for _, v := range []string{"sk-one", "sk-two", "sk-three"} {
		if err := fs.Set(StorageKey, v); err != nil {
			t.Fatalf("Set(%q): %v", v, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "credentials.json" {
		t.Errorf("dir entries = %v, want only credentials.json", entries)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file mode = %o, want 0600", perm)
	}
	if v, ok, err := fs.Get(StorageKey); err != nil || !ok || v != "sk-three" {
		t.Errorf("Get() = %q, %v, %v", v, ok, err)
	}
}

func TestWriteFileAtomic_FailureRemovesTemp(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "credentials.json")
	// A non-empty directory in place of the file makes the rename fail.
	if err := os.MkdirAll(filepath.Join(target, "occupied"), 0700); err != nil {
		t.Fatal(err)
	}

	if err := writeFileAtomic(target, []byte(`{"k":"v"}`)); err == nil {
		t.Fatal("writeFileAtomic over a directory: expected error")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "credentials.json" {
		t.Errorf("dir entries = %v, temp file left behind", entries)
	}
}

func mustFileStorage(t *testing.T, path string) *FileStorage {
	t.Helper()
	fs, err := NewFileStorage(path)
	if err != nil {
		t.Fatalf("NewFileStorage: %v", err)
	}
	return fs
}
