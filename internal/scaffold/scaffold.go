package scaffold

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/template"
	"time"

	"github.com/wpm-labs/wpm/internal/descriptor"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// DefaultModule is the module created when none is requested.
const DefaultModule = "main"

// Data holds all template variables available to scaffold templates.
type Data struct {
	ID          string   // package id, also the install directory name
	Name        string   // human-readable name
	Description string   // one-line summary
	Version     string   // semver, e.g. "0.1.0"
	Modules     []string // registered as enabled plugins
	Starters    []string // subset of Modules that autostart
	Year        int
}

// Result holds the outcome of a scaffold generation.
type Result struct {
	OutputDir string
	Files     []string
	Warnings  []string
}

// NewData returns Data for package id with derived fields populated.
func NewData(id string, modules []string) *Data {
	if len(modules) == 0 {
		modules = []string{DefaultModule}
	}
	return &Data{
		ID:          id,
		Name:        id,
		Description: fmt.Sprintf("Plugin package %s", id),
		Version:     "0.1.0",
		Modules:     modules,
		Starters:    []string{},
		Year:        time.Now().Year(),
	}
}

var funcs = template.FuncMap{
	"json": func(v any) (string, error) {
		if s, ok := v.([]string); ok && s == nil {
			v = []string{}
		}
		b, err := json.Marshal(v)
		return string(b), err
	},
}

// Generate writes a package skeleton into outputDir, which must be empty or
// absent. The generated descriptor is validated; problems are returned as
// warnings.
func Generate(data *Data, outputDir string) (*Result, error) {
	for _, s := range data.Starters {
		if !slices.Contains(data.Modules, s) {
			return nil, fmt.Errorf("starter %q is not one of the modules", s)
		}
	}

	entries, err := fs.ReadDir(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("reading templates: %w", err)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	// Check for existing files to prevent accidental overwrites.
	existing, err := os.ReadDir(outputDir)
	if err == nil && len(existing) > 0 {
		return nil, fmt.Errorf("output directory %s is not empty; remove existing files first", outputDir)
	}

	result := &Result{OutputDir: outputDir}

	for _, entry := range entries {
		tmplPath := "templates/" + entry.Name()
		tmplBytes, err := fs.ReadFile(templateFS, tmplPath)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", tmplPath, err)
		}

		tmpl, err := template.New(entry.Name()).Funcs(funcs).Parse(string(tmplBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", entry.Name(), err)
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("executing template %s: %w", entry.Name(), err)
		}

		outName := strings.TrimSuffix(entry.Name(), ".tmpl")
		outPath := filepath.Join(outputDir, outName)
		if err := os.WriteFile(outPath, buf.Bytes(), 0644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", outPath, err)
		}
		result.Files = append(result.Files, outName)
	}

	for _, m := range data.Modules {
		keep := filepath.Join(m, ".gitkeep")
		path := filepath.Join(outputDir, filepath.FromSlash(keep))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating module directory %s: %w", m, err)
		}
		if err := os.WriteFile(path, nil, 0644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", path, err)
		}
		result.Files = append(result.Files, filepath.ToSlash(keep))
	}

	valResult, valErr := descriptor.ValidateFile(descriptor.Path(outputDir))
	if valErr != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Could not validate descriptor: %v", valErr))
	} else if !valResult.Valid {
		for _, issue := range valResult.Issues {
			msg := issue.Message
			if issue.Path != "" {
				msg = issue.Path + ": " + msg
			}
			result.Warnings = append(result.Warnings, msg)
		}
	}

	return result, nil
}
