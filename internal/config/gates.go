package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// EndpointGate declares one per-route gate in the gates file. Declarations
// are read once at startup; the gates they produce are immutable.
type EndpointGate struct {
	Path          string `yaml:"path" validate:"required,startswith=/"`
	MaxRequests   int    `yaml:"max_requests" validate:"required,gt=0"`
	WindowSeconds int    `yaml:"window_seconds" validate:"required,gt=0"`
}

// GatesFile is the YAML document declaring endpoint gates, e.g.:
//
//	endpoints:
//	  - path: /api/v1/sensitive
//	    max_requests: 1
//	    window_seconds: 10
type GatesFile struct {
	Endpoints []EndpointGate `yaml:"endpoints" validate:"dive"`
}

// LoadGates parses and validates the endpoint gates file. A missing path
// returns no gates; an invalid declaration is fatal.
func LoadGates(path string) ([]EndpointGate, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gates file: %w", err)
	}
	var file GatesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse gates file: %w", err)
	}
	if err := validate.Struct(&file); err != nil {
		return nil, fmt.Errorf("invalid gates file %s: %w", path, err)
	}
	seen := make(map[string]struct{}, len(file.Endpoints))
	for _, g := range file.Endpoints {
		if _, dup := seen[g.Path]; dup {
			return nil, fmt.Errorf("invalid gates file %s: duplicate path %s", path, g.Path)
		}
		seen[g.Path] = struct{}{}
	}
	return file.Endpoints, nil
}
