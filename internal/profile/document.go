package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Document is the raw CV handed to the Analyze stage. The content is opaque
// to the orchestrator; only the extractor interprets it.
type Document struct {
	Path    string
	Content []byte
}

// LoadDocument reads the CV file from disk.
func LoadDocument(path string) (*Document, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("cv file path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading cv file %q: %w", path, err)
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("cv file %q is empty", path)
	}

	return &Document{Path: filepath.Clean(path), Content: data}, nil
}
