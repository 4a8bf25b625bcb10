// Package file keeps the template editor's content in two files: the exported
// HTML and the editor's design document.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

type Editor struct {
	HTMLPath   string
	DesignPath string
}

func New(htmlPath, designPath string) Editor {
	return Editor{HTMLPath: htmlPath, DesignPath: designPath}
}

// ExportContent reads both files. The design file must hold valid JSON; an
// empty or missing design exports as an empty object.
func (e Editor) ExportContent(_ context.Context) (string, json.RawMessage, error) {
	if e.HTMLPath == "" {
		return "", nil, errors.New("html path is required")
	}

	html, err := os.ReadFile(e.HTMLPath)
	if err != nil {
		return "", nil, fmt.Errorf("read template html: %w", err)
	}

	design := json.RawMessage("{}")
	if e.DesignPath != "" {
		raw, err := os.ReadFile(e.DesignPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return "", nil, fmt.Errorf("read template design: %w", err)
		case len(raw) > 0:
			if !json.Valid(raw) {
				return "", nil, fmt.Errorf("template design %s is not valid json", e.DesignPath)
			}
			design = json.RawMessage(raw)
		}
	}

	return string(html), design, nil
}

// LoadContent writes the design document, replacing the file atomically.
func (e Editor) LoadContent(_ context.Context, design json.RawMessage) error {
	if e.DesignPath == "" {
		return errors.New("design path is required")
	}
	if len(design) == 0 {
		design = json.RawMessage("null")
	}

	dir := filepath.Dir(e.DesignPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create design dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".design-*.json")
	if err != nil {
		return fmt.Errorf("create temp design: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(design); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp design: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp design: %w", err)
	}
	if err := os.Rename(tmpPath, e.DesignPath); err != nil {
		return fmt.Errorf("replace design: %w", err)
	}
	cleanup = false
	return nil
}
