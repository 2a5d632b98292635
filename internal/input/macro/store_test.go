package macro

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func testStores(t *testing.T) map[string]func() Store {
	dir := t.TempDir()
	return map[string]func() Store{
		"memory": func() Store { return NewMemoryStore() },
		"file": func() Store {
			s, err := NewFileStore(filepath.Join(dir, "macros.json"))
			if err != nil {
				t.Fatalf("NewFileStore() error = %v", err)
			}
			return s
		},
		"sqlite": func() Store {
			s, err := NewSQLiteStore(filepath.Join(dir, "macros.db"))
			if err != nil {
				t.Fatalf("NewSQLiteStore() error = %v", err)
			}
			return s
		},
	}
}

func TestStores(t *testing.T) {
	stamp := time.Date(2024, 3, 1, 12, 30, 0, 500, time.UTC)

	for name, open := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			s := open()
			defer s.Close()

			if _, ok, err := s.Get("a"); err != nil || ok {
				t.Fatalf("Get(a) on empty store = %v, %v", ok, err)
			}

			for _, slot := range []Slot{
				{Name: "b", Keys: "x<Esc>", Recorded: stamp},
				{Name: "a", Keys: "2dw", Recorded: stamp},
				{Name: "1", Keys: "<C-w>j", Recorded: stamp},
			} {
				if err := s.Put(slot); err != nil {
					t.Fatalf("Put(%s) error = %v", slot.Name, err)
				}
			}

			got, ok, err := s.Get("a")
			if err != nil || !ok {
				t.Fatalf("Get(a) = %v, %v", ok, err)
			}
			if got.Keys != "2dw" || !got.Recorded.Equal(stamp) {
				t.Errorf("Get(a) = %+v, want keys 2dw at %v", got, stamp)
			}

			if err := s.Put(Slot{Name: "a", Keys: "dd", Recorded: stamp}); err != nil {
				t.Fatalf("Put(a) replace error = %v", err)
			}
			if got, _, _ := s.Get("a"); got.Keys != "dd" {
				t.Errorf("replaced keys = %q, want dd", got.Keys)
			}

			list, err := s.List()
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			var names []string
			for _, slot := range list {
				names = append(names, slot.Name)
			}
			if want := []string{"1", "a", "b"}; !slices.Equal(names, want) {
				t.Errorf("List() names = %v, want %v", names, want)
			}

			if err := s.Delete("b"); err != nil {
				t.Fatalf("Delete(b) error = %v", err)
			}
			if err := s.Delete("missing"); err != nil {
				t.Errorf("Delete(missing) error = %v", err)
			}
			if _, ok, _ := s.Get("b"); ok {
				t.Error("b still present after Delete")
			}
		})
	}
}

func TestFileStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "macros.json")
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put(Slot{Name: "q", Keys: "<lt>a>", Recorded: time.Now()}); err != nil {
		t.Fatal(err)
	}

	again, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	got, ok, err := again.Get("q")
	if err != nil || !ok || got.Keys != "<lt>a>" {
		t.Errorf("Get(q) after reopen = %+v, %v, %v", got, ok, err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind: %v", err)
	}
}

func TestFileStoreRejectsBadInput(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(bad); err == nil {
		t.Error("NewFileStore(invalid JSON) succeeded")
	}

	future := filepath.Join(dir, "future.json")
	if err := os.WriteFile(future, []byte(`{"version":99,"macros":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(future); err == nil {
		t.Error("NewFileStore(version 99) succeeded")
	}
}

func TestOpen(t *testing.T) {
	if s, err := Open("memory", ""); err != nil {
		t.Errorf("Open(memory) error = %v", err)
	} else if _, ok := s.(*MemoryStore); !ok {
		t.Errorf("Open(memory) = %T", s)
	}
	if _, err := Open("redis", ""); err == nil {
		t.Error("Open(redis) succeeded")
	}
}

