package skill

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk layout of a skill file:
//
//	skills:
//	  - name: attendance.summary
//	    module: attendance
//	    type: read
//	    ...
type catalogFile struct {
	Skills []Definition `yaml:"skills" toml:"skills"`
}

// LoadFile reads skill definitions from a YAML (.yaml, .yml) or TOML (.toml)
// file. Every definition is validated; the first invalid one fails the load.
func LoadFile(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading skill file: %w", err)
	}

	var f catalogFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &f); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported skill file extension %q", ext)
	}

	for i, def := range f.Skills {
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("%s: skill #%d: %w", path, i+1, err)
		}
	}
	return f.Skills, nil
}

// LoadFiles registers the skills of every file into c, in order.
func LoadFiles(c *Catalog, paths []string) error {
	for _, p := range paths {
		defs, err := LoadFile(p)
		if err != nil {
			return err
		}
		if err := c.RegisterAll(defs); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		c.log.Info().Str("file", p).Int("skills", len(defs)).Msg("loaded skill file")
	}
	return nil
}
