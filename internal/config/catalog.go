package config

import (
	"fmt"
	"os"

	"github.com/dandantas/laundromat/internal/model"
	"gopkg.in/yaml.v3"
)

// catalogFile is the YAML shape of a machine catalog:
//
//	machines:
//	  - id: washer1
//	    kind: washer
//	    default_duration_minutes: 30
type catalogFile struct {
	Machines []model.MachineDescriptor `yaml:"machines"`
}

// LoadCatalog reads the machine catalog from a YAML file. An empty path
// returns the built-in reference catalog.
func LoadCatalog(path string) (*model.Catalog, error) {
	if path == "" {
		return model.DefaultCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	catalog, err := model.NewCatalog(file.Machines)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog in %s: %w", path, err)
	}

	return catalog, nil
}
