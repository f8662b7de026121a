package metadata

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// DefaultFile is the metadata file name relative to the project root.
const DefaultFile = "package.json"

// PathEnv overrides the resolved metadata path when set.
const PathEnv = "RELFLOW_METADATA_PATH"

// ErrMetadataIO marks every failure to read, decode, encode or write the metadata file.
var ErrMetadataIO = errors.New("metadata I/O error")

// ResolvePath returns the metadata file location.
//
// Resolution order:
//  1. RELFLOW_METADATA_PATH environment variable (used as-is if set)
//  2. file, if it is absolute
//  3. file joined to root ([DefaultFile] when file is empty)
//
// Both reads and writes go through the same resolved path.
func ResolvePath(root, file string) string {
	if envPath := os.Getenv(PathEnv); envPath != "" {
		return envPath
	}
	if file == "" {
		file = DefaultFile
	}
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(root, file)
}

// Store reads and rewrites a metadata file.
//
// Writes replace the whole document atomically: the new content goes to a
// temporary file next to the target which is then renamed over it.
type Store struct {
	fs   afero.Fs
	path string
}

// NewStore creates a [Store] for the metadata file under root on fs.
func NewStore(fs afero.Fs, root, file string) *Store {
	return &Store{
		fs:   fs,
		path: ResolvePath(root, file),
	}
}

// NewOSStore creates a [Store] on the operating system filesystem.
func NewOSStore(root, file string) *Store {
	return NewStore(afero.NewOsFs(), root, file)
}

// Path returns the resolved metadata file path.
func (s *Store) Path() string {
	return s.path
}

// Read loads and parses the metadata file.
func (s *Store) Read() (*Metadata, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %w", ErrMetadataIO, s.path, err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %w", ErrMetadataIO, s.path, err)
	}
	return m, nil
}

// Write replaces the metadata file with m.
func (s *Store) Write(m *Metadata) error {
	data, err := m.Encode()
	if err != nil {
		return fmt.Errorf("%w: failed to encode %s: %w", ErrMetadataIO, s.path, err)
	}

	perm := os.FileMode(0644)
	if info, err := s.fs.Stat(s.path); err == nil {
		perm = info.Mode().Perm()
	}

	tmpPath := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmpPath, data, perm); err != nil {
		return fmt.Errorf("%w: failed to write %s: %w", ErrMetadataIO, s.path, err)
	}

	if err := s.fs.Rename(tmpPath, s.path); err != nil {
		s.fs.Remove(tmpPath)
		return fmt.Errorf("%w: failed to write %s: %w", ErrMetadataIO, s.path, err)
	}

	return nil
}
