package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/nao1215/sitecrawl/internal/model"
)

// IndexFileName is the name of the index written by FileStore.Close.
const IndexFileName = "index.tsv"

// FileStore saves page bodies as numbered files.
// It is safe for concurrent use.
type FileStore struct {
	dir  string
	next atomic.Int64

	mu    sync.Mutex
	index map[string]string // file name -> URL
}

// NewFileStore creates dir if needed and returns a store writing into it.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("output directory is empty")
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &FileStore{dir: dir, index: make(map[string]string)}, nil
}

// Dir returns the output directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Store writes page.Raw to the next page<N>.html file. Numbering starts
// at 1.
func (s *FileStore) Store(_ context.Context, page *model.Page) error {
	name := fmt.Sprintf("page%d.html", s.next.Add(1))
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, page.Raw, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	s.mu.Lock()
	s.index[name] = page.URL
	s.mu.Unlock()
	return nil
}

// Count returns how many pages have been stored.
func (s *FileStore) Count() int {
	return int(s.next.Load())
}

// Close writes the index file. Stores after Close still work but are not
// indexed unless Close is called again.
func (s *FileStore) Close() error {
	s.mu.Lock()
	names := make([]string, 0, len(s.index))
	for name := range s.index {
		names = append(names, name)
	}
	slices.SortFunc(names, comparePageNames)

	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(name)
		sb.WriteString("\t")
		sb.WriteString(s.index[name])
		sb.WriteString("\n")
	}
	s.mu.Unlock()

	if err := os.WriteFile(filepath.Join(s.dir, IndexFileName), []byte(sb.String()), 0600); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	return nil
}

// comparePageNames orders page2.html before page10.html.
func comparePageNames(a, b string) int {
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	return strings.Compare(a, b)
}
