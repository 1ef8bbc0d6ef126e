package generate

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// ErrExists is returned by DirWriter for a document that is already on disk
// when overwriting is off.
var ErrExists = errors.New("document already exists")

// DirWriter writes documents below a root directory, creating directories
// as needed.
type DirWriter struct {
	Root      string
	Overwrite bool
}

func (d *DirWriter) Write(p string, data []byte) error {
	if p == "" || path.IsAbs(p) || strings.HasPrefix(path.Clean(p), "..") {
		return errors.Errorf("invalid document path %q", p)
	}
	target := filepath.Join(d.Root, filepath.FromSlash(p))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Wrap(err, "create directory")
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !d.Overwrite {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(target, flags, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return errors.Wrapf(ErrExists, "%s (use --overwrite to replace it)", target)
	}
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// StreamWriter concatenates documents onto one stream, each preceded by an
// HTML comment naming its path.
type StreamWriter struct {
	W io.Writer

	mu sync.Mutex
	n  int
}

func (s *StreamWriter) Write(p string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.n > 0 {
		if _, err := io.WriteString(s.W, "\n"); err != nil {
			return err
		}
	}
	s.n++
	if _, err := fmt.Fprintf(s.W, "<!-- %s -->\n\n", p); err != nil {
		return err
	}
	_, err := s.W.Write(data)
	return err
}

// MemWriter keeps documents in memory.
type MemWriter struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func (m *MemWriter) Write(p string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.docs == nil {
		m.docs = make(map[string][]byte)
	}
	m.docs[p] = append([]byte(nil), data...)
	return nil
}

// Get returns the document written at p.
func (m *MemWriter) Get(p string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.docs[p]
	return string(data), ok
}

// Paths lists the written paths in lexical order.
func (m *MemWriter) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.docs))
	for p := range m.docs {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
