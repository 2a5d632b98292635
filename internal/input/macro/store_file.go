package macro

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const fileVersion = 1

const emptyDocument = `{"version":1,"macros":[]}`

// FileStore keeps slots in a JSON document of the form
//
//	{"version":1,"macros":[{"name":"a","keys":"2dw","recorded":"..."}]}
//
// Every change rewrites the file atomically.
type FileStore struct {
	mu   sync.Mutex
	path string
	doc  []byte
}

// NewFileStore opens the document at path, creating it on first write.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, doc: []byte(emptyDocument)}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read macros file: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("macros file %s is not valid JSON", path)
	}
	if v := gjson.GetBytes(data, "version").Int(); v > fileVersion {
		return nil, fmt.Errorf("unsupported macros file version: %d (max supported: %d)", v, fileVersion)
	}
	if !gjson.GetBytes(data, "macros").IsArray() {
		data, err = sjson.SetRawBytes(data, "macros", []byte("[]"))
		if err != nil {
			return nil, fmt.Errorf("failed to prepare macros file: %w", err)
		}
	}
	s.doc = data
	return s, nil
}

// Path returns the document path.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Get(name string) (Slot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, slot, ok := s.find(name)
	return slot, ok, nil
}

func (s *FileStore) Put(slot Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.doc
	var err error
	if i, _, ok := s.find(slot.Name); ok {
		doc, err = sjson.DeleteBytes(doc, "macros."+strconv.Itoa(i))
		if err != nil {
			return fmt.Errorf("failed to replace macro %s: %w", slot.Name, err)
		}
	}
	entry := map[string]string{
		"name":     slot.Name,
		"keys":     slot.Keys,
		"recorded": slot.Recorded.UTC().Format(time.RFC3339Nano),
	}
	doc, err = sjson.SetBytes(doc, "macros.-1", entry)
	if err != nil {
		return fmt.Errorf("failed to store macro %s: %w", slot.Name, err)
	}
	return s.write(doc)
}

func (s *FileStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, _, ok := s.find(name)
	if !ok {
		return nil
	}
	doc, err := sjson.DeleteBytes(s.doc, "macros."+strconv.Itoa(i))
	if err != nil {
		return fmt.Errorf("failed to delete macro %s: %w", name, err)
	}
	return s.write(doc)
}

func (s *FileStore) List() ([]Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Slot
	gjson.GetBytes(s.doc, "macros").ForEach(func(_, v gjson.Result) bool {
		out = append(out, slotFromJSON(v))
		return true
	})
	sortSlots(out)
	return out, nil
}

func (s *FileStore) Close() error { return nil }

// find returns the array index of the named slot.
func (s *FileStore) find(name string) (int, Slot, bool) {
	idx := -1
	var slot Slot
	i := 0
	gjson.GetBytes(s.doc, "macros").ForEach(func(_, v gjson.Result) bool {
		if v.Get("name").String() == name {
			idx = i
			slot = slotFromJSON(v)
			return false
		}
		i++
		return true
	})
	return idx, slot, idx >= 0
}

func slotFromJSON(v gjson.Result) Slot {
	slot := Slot{Name: v.Get("name").String(), Keys: v.Get("keys").String()}
	if t, err := time.Parse(time.RFC3339Nano, v.Get("recorded").String()); err == nil {
		slot.Recorded = t
	}
	return slot
}

// write replaces the file using a temporary file and rename.
func (s *FileStore) write(doc []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, doc, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	s.doc = doc
	return nil
}
