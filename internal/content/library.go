package content

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var (
	ErrNotLoaded    = errors.New("content not loaded")
	ErrWordNotFound = errors.New("word not found")
)

// Library is the live content set shared by the server and the admin editor.
// Edits are validated as a whole and written back to the file when one is set.
type Library struct {
	mu   sync.RWMutex
	path string
	data *DataSet
}

func NewLibrary(path string) *Library {
	return &Library{path: path}
}

// NewStaticLibrary wraps an in-memory data set with no backing file.
func NewStaticLibrary(data *DataSet) *Library {
	return &Library{data: data.Clone()}
}

// Load reads the backing file. A missing file leaves the library empty.
func (l *Library) Load() error {
	if l.path == "" {
		return nil
	}
	data, err := Load(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	l.mu.Lock()
	l.data = data
	l.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the current set, or nil when nothing is loaded.
func (l *Library) Snapshot() *DataSet {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.data.Clone()
}

// View calls fn with the current set under the read lock. fn must not retain it.
func (l *Library) View(fn func(data *DataSet)) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	fn(l.data)
}

func (l *Library) Replace(data *DataSet) error {
	if data == nil {
		return ErrNotLoaded
	}
	next := data.Clone()
	next.normalize()
	if err := next.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.write(next); err != nil {
		return err
	}
	l.data = next
	return nil
}

func (l *Library) AddWord(word Word) error {
	return l.edit(func(data *DataSet) error {
		data.Words = append(data.Words, word.normalized())
		return nil
	})
}

func (l *Library) UpdateWord(index int, word Word) error {
	return l.edit(func(data *DataSet) error {
		if index < 0 || index >= len(data.Words) {
			return ErrWordNotFound
		}
		data.Words[index] = word.normalized()
		return nil
	})
}

func (l *Library) RemoveWord(index int) error {
	return l.edit(func(data *DataSet) error {
		if index < 0 || index >= len(data.Words) {
			return ErrWordNotFound
		}
		data.Words = append(data.Words[:index], data.Words[index+1:]...)
		return nil
	})
}

func (l *Library) edit(fn func(data *DataSet) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.data == nil {
		return ErrNotLoaded
	}
	next := l.data.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	if err := l.write(next); err != nil {
		return err
	}
	l.data = next
	return nil
}

// write replaces the backing file through a temp file so readers never see a partial document.
func (l *Library) write(data *DataSet) error {
	if l.path == "" {
		return nil
	}
	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".content-*.json")
	if err != nil {
		return fmt.Errorf("write content: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := data.Encode(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write content: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write content: %w", err)
	}
	return os.Rename(tmp.Name(), l.path)
}
