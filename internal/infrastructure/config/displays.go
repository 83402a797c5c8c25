package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// DisplaySeed describes one display to create at boot. Bounds are in
// raw pixels; density is dots-per-inch.
type DisplaySeed struct {
	ID                 int    `yaml:"id"`
	Name               string `yaml:"name"`
	Width              int    `yaml:"width"`
	Height             int    `yaml:"height"`
	Density            int    `yaml:"density"`
	InsetTop           int    `yaml:"inset_top"`
	InsetBottom        int    `yaml:"inset_bottom"`
	FreeformCapable    bool   `yaml:"freeform_capable"`
	SingleTaskInstance bool   `yaml:"single_task_instance"`
}

type seedFile struct {
	Displays []DisplaySeed `yaml:"displays"`
}

// DefaultDisplaySeeds returns the single default display used when no
// seed file is configured.
func DefaultDisplaySeeds() []DisplaySeed {
	return []DisplaySeed{{
		ID:              0,
		Name:            "builtin",
		Width:           1080,
		Height:          1920,
		Density:         160,
		FreeformCapable: true,
	}}
}

// LoadDisplaySeeds reads display definitions from a YAML file, falling
// back to the default single display when the path is empty.
func LoadDisplaySeeds(path string) ([]DisplaySeed, error) {
	if path == "" {
		return DefaultDisplaySeeds(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read display seed file: %w", err)
	}

	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse display seed file: %w", err)
	}
	if len(f.Displays) == 0 {
		return nil, fmt.Errorf("display seed file %q defines no displays", path)
	}

	seen := make(map[int]bool, len(f.Displays))
	for _, d := range f.Displays {
		if d.Width <= 0 || d.Height <= 0 {
			return nil, fmt.Errorf("display %d has invalid size %dx%d", d.ID, d.Width, d.Height)
		}
		if seen[d.ID] {
			return nil, fmt.Errorf("duplicate display id %d", d.ID)
		}
		seen[d.ID] = true
	}
	return f.Displays, nil
}
