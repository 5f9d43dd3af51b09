package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Store persists one configuration scope as a YAML file.
type Store[T any] struct {
	Path string
}

// NewStore returns a store backed by the file at path.
func NewStore[T any](path string) *Store[T] {
	return &Store[T]{Path: path}
}

// Exists reports whether the backing file is present.
func (s *Store[T]) Exists() bool {
	_, err := os.Stat(s.Path)
	return err == nil
}

// Read parses the backing file. It returns nil, nil when the file does not
// exist.
func (s *Store[T]) Read() (*T, error) {
	data, err := os.ReadFile(s.Path) // #nosec G304 - config file path from caller
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.Path, err)
	}

	var v T
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.Path, err)
	}
	return &v, nil
}

// Write replaces the backing file with v, creating parent directories.
// The file is only readable by the owner since it may hold tokens.
func (s *Store[T]) Write(v *T) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf strings.Builder
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", s.Path, err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to close encoder: %w", err)
	}

	if err := os.WriteFile(s.Path, []byte(buf.String()), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.Path, err)
	}
	return nil
}
