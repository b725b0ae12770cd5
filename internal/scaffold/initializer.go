// Package scaffold writes a starter veil.yml.
package scaffold

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/dyluth/veil/internal/config"
)

//go:embed templates/*
var templatesFS embed.FS

// Params fill in the veil.yml template.
type Params struct {
	Session  string
	RedisURL string
}

// Initialize writes a starter config to path. If force is true an existing
// file is overwritten.
func Initialize(path string, params Params, force bool) error {
	if !force {
		if err := CheckExisting(path); err != nil {
			return err
		}
	}

	content, err := Render(params)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	// Validate what we wrote
	if _, err := config.Load(path); err != nil {
		return fmt.Errorf("created %s is invalid: %w", path, err)
	}

	return nil
}

// Render produces veil.yml content for params.
func Render(params Params) ([]byte, error) {
	if params.Session == "" {
		params.Session = config.Default().Session
	}

	raw, err := templatesFS.ReadFile("templates/veil.yml.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read veil.yml template: %w", err)
	}

	tmpl, err := template.New("veil.yml").Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse veil.yml template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, params); err != nil {
		return nil, fmt.Errorf("failed to render veil.yml: %w", err)
	}
	return buf.Bytes(), nil
}
