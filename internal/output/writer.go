package output

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

const DefaultPrefix = "supabase_migration"

// FileName returns <prefix>_<kind>_<unix millis>.sql.
func FileName(prefix, kind string, at time.Time) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return fmt.Sprintf("%s_%s_%d.sql", prefix, kind, at.UnixMilli())
}

// FileSink writes migration documents into a directory.
type FileSink struct {
	fs     afero.Fs
	dir    string
	prefix string
	now    func() time.Time
}

func NewFileSink(fs afero.Fs, dir, prefix string) *FileSink {
	if dir == "" {
		dir = "."
	}
	return &FileSink{fs: fs, dir: dir, prefix: prefix, now: time.Now}
}

// WithClock returns a copy of s that names files with now().
func (s *FileSink) WithClock(now func() time.Time) *FileSink {
	c := *s
	c.now = now
	return &c
}

// Save writes sql under a generated name and returns the file path.
func (s *FileSink) Save(kind, sql string) (string, error) {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", s.dir, err)
	}
	path := filepath.Join(s.dir, FileName(s.prefix, kind, s.now()))
	if err := afero.WriteFile(s.fs, path, []byte(sql), 0o644); err != nil {
		return "", fmt.Errorf("failed to write migration file %s: %w", path, err)
	}
	return path, nil
}
