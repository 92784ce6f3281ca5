package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	yaml "gopkg.in/yaml.v3"
)

// LoadOverridesFile reads a scenario file in YAML or JSON into Overrides.
// The format follows the file extension; unknown extensions try YAML then JSON.
func LoadOverridesFile(path string) (Overrides, error) {
	var ov Overrides
	b, err := os.ReadFile(path)
	if err != nil {
		return ov, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &ov); err != nil {
			return ov, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &ov); err != nil {
			return ov, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &ov); err != nil {
			if jerr := json.Unmarshal(b, &ov); jerr != nil {
				return ov, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return ov, nil
}
