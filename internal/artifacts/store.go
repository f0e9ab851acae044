// Package artifacts owns the shared static directory every generated
// file is written to and served from.
package artifacts

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// URLPrefix is the route the artifact directory is mounted under.
const URLPrefix = "/static"

// Store hands out unique artifact names inside a single directory.
// Writers never collide because every name carries a random suffix, so
// no locking is needed around writes.
type Store struct {
	dir    string
	logger *logrus.Logger
}

func NewStore(dir string, logger *logrus.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the artifact directory path.
func (s *Store) Dir() string {
	return s.dir
}

// NewName generates an artifact filename as {prefix}_{8 hex}.{ext}.
// Collisions are not checked; the probability is treated as negligible.
func (s *Store) NewName(prefix, ext string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	if ext == "" {
		return fmt.Sprintf("%s_%s", prefix, suffix)
	}
	return fmt.Sprintf("%s_%s.%s", prefix, suffix, strings.TrimPrefix(ext, "."))
}

// Path resolves an artifact name to its on-disk path.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// URL resolves an artifact name to the path clients fetch it from. The
// file is fetchable as soon as the write that produced it returns.
func (s *Store) URL(name string) string {
	return URLPrefix + "/" + name
}

// Save streams content into a freshly named artifact and returns the
// artifact name.
func (s *Store) Save(prefix, ext string, r io.Reader) (string, error) {
	name := s.NewName(prefix, ext)
	f, err := os.Create(s.Path(name))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return name, nil
}

// SaveBytes writes a byte slice as a new artifact.
func (s *Store) SaveBytes(prefix, ext string, data []byte) (string, error) {
	return s.Save(prefix, ext, bytes.NewReader(data))
}

// Remove deletes an artifact, typically a consumed staging upload.
// Best effort; a missing file is not an error worth surfacing.
func (s *Store) Remove(name string) {
	if err := os.Remove(s.Path(name)); err != nil && !os.IsNotExist(err) {
		s.logger.WithError(err).WithField("artifact", name).Warn("failed to remove artifact")
	}
}
