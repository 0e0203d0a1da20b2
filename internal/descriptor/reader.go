package descriptor

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/wpm-labs/wpm/internal/branding"
	"github.com/wpm-labs/wpm/internal/errs"
)

// FileName returns the descriptor file name expected at a package root.
func FileName() string {
	return branding.DescriptorFile()
}

// Path returns the descriptor path for the package rooted at dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName())
}

// Read loads and validates the descriptor of the package rooted at dir.
// A missing, unparsable, or schema-invalid descriptor is a data error.
func Read(dir string) (*Descriptor, error) {
	return ReadFile(Path(dir))
}

// ReadFile loads and validates the descriptor at path.
func ReadFile(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errs.Data("read descriptor", "no descriptor found at %s", path)
	}
	if err != nil {
		return nil, errs.IO("read descriptor", "reading %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse validates data against the descriptor schema and decodes it. source
// is used in error messages only.
func Parse(data []byte, source string) (*Descriptor, error) {
	result, err := Validate(data)
	if err != nil {
		return nil, errs.Data("read descriptor", "%s: %w", source, err)
	}
	if !result.Valid {
		return nil, errs.Data("read descriptor", "%s is invalid: %s", source, result.Summary())
	}

	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, errs.Data("read descriptor", "decoding %s: %w", source, err)
	}
	return &d, nil
}

// Summary joins the issues into one line.
func (r *ValidationResult) Summary() string {
	parts := make([]string, 0, len(r.Issues))
	for _, issue := range r.Issues {
		if issue.Path == "" {
			parts = append(parts, issue.Message)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Path, issue.Message))
	}
	return strings.Join(parts, "; ")
}
