// Package interchange exports and imports the client's local data as a
// single JSON or YAML document.
package interchange

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"honquedoro/internal/localstore"
)

const Version = "1.0"

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

// Document is the export file layout.
type Document struct {
	Version    string                     `json:"version" yaml:"version"`
	ExportedAt time.Time                  `json:"exportedAt" yaml:"exportedAt"`
	Tasks      []localstore.Task          `json:"tasks" yaml:"tasks"`
	Sessions   []localstore.SessionRecord `json:"sessions" yaml:"sessions"`
	Settings   *localstore.AppSettings    `json:"settings,omitempty" yaml:"settings,omitempty"`
}

// ValidationError lists every problem found in an import document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid import document: " + strings.Join(e.Problems, "; ")
}

// FormatFor picks the format from the file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// Snapshot builds an export document from the store.
func Snapshot(store *localstore.Store, now time.Time) Document {
	doc := Document{
		Version:    Version,
		ExportedAt: now.UTC(),
		Tasks:      store.Tasks(),
		Sessions:   store.Sessions(),
	}
	if settings, ok := store.Settings(); ok {
		doc.Settings = &settings
	}
	return doc
}

// Export writes the store's data to path.
func Export(store *localstore.Store, path string, now time.Time) (Document, error) {
	format, err := FormatFor(path)
	if err != nil {
		return Document{}, err
	}
	doc := Snapshot(store, now)
	data, err := Encode(doc, format)
	if err != nil {
		return Document{}, err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Document{}, fmt.Errorf("create export directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return Document{}, fmt.Errorf("write export file: %w", err)
	}
	return doc, nil
}

// Import reads path, validates it, and replaces the store's tasks and
// sessions. Settings are replaced only when the document carries them.
func Import(store *localstore.Store, path string) (Document, error) {
	format, err := FormatFor(path)
	if err != nil {
		return Document{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read import file: %w", err)
	}
	doc, err := Decode(data, format)
	if err != nil {
		return Document{}, err
	}
	if err := doc.Validate(); err != nil {
		return Document{}, err
	}

	if err := store.SaveTasks(doc.Tasks); err != nil {
		return Document{}, err
	}
	if err := store.SaveSessions(doc.Sessions); err != nil {
		return Document{}, err
	}
	if doc.Settings != nil {
		if err := store.SaveSettings(*doc.Settings); err != nil {
			return Document{}, err
		}
	}
	return doc, nil
}

func Encode(doc Document, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal export json: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		data, err := yaml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("marshal export yaml: %w", err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

func Decode(data []byte, format Format) (Document, error) {
	var doc Document
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return Document{}, &ValidationError{Problems: []string{"parse json: " + err.Error()}}
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return Document{}, &ValidationError{Problems: []string{"parse yaml: " + err.Error()}}
		}
	default:
		return Document{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return doc, nil
}

// Validate checks the whole document and reports every problem at once.
func (d Document) Validate() error {
	var problems []string
	if d.Version == "" {
		problems = append(problems, "version is required")
	} else if major, _, _ := strings.Cut(d.Version, "."); major != "1" {
		problems = append(problems, fmt.Sprintf("unsupported version %q", d.Version))
	}

	seen := make(map[string]struct{}, len(d.Tasks))
	for i, task := range d.Tasks {
		if err := task.Validate(); err != nil {
			problems = append(problems, fmt.Sprintf("tasks[%d]: %v", i, err))
			continue
		}
		if _, dup := seen[task.ID]; dup {
			problems = append(problems, fmt.Sprintf("tasks[%d]: duplicate id %s", i, task.ID))
		}
		seen[task.ID] = struct{}{}
	}
	for i, session := range d.Sessions {
		if err := session.Validate(); err != nil {
			problems = append(problems, fmt.Sprintf("sessions[%d]: %v", i, err))
		}
	}
	if d.Settings != nil {
		if err := d.Settings.Validate(); err != nil {
			problems = append(problems, fmt.Sprintf("settings: %v", err))
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
