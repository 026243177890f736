package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadTemplate reads the workspace request template. Files ending in
// .yaml or .yml are decoded as YAML, anything else as JSON.
func (c *Config) LoadTemplate() (map[string]any, error) {
	path := c.Resolve(c.Workspace.Template)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workspace template: %w", err)
	}

	var doc map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse workspace template %s: %w", path, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("workspace template %s is empty", path)
	}
	return doc, nil
}
