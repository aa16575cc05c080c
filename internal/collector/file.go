package collector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileLoader reads a local xlsx or csv file.
type FileLoader struct {
	Path string
}

// NewFileLoader creates a loader for a local workbook or csv file.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{Path: path}
}

func (l *FileLoader) Name() string { return "file:" + filepath.Base(l.Path) }

func (l *FileLoader) Load(_ context.Context) (*Table, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return ParseSource(filepath.Base(l.Path), data)
}
