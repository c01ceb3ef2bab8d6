package config

import (
	"fmt"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// PyprojectFile is the standard Python project metadata file.
const PyprojectFile = "pyproject.toml"

// Pyproject holds the parts of pyproject.toml pysemver reads.
type Pyproject struct {
	// Name is [project].name, the distribution name.
	Name string
	// Tool is the raw [tool.pysemver] table, nil when absent.
	Tool map[string]interface{}
}

type pyprojectFile struct {
	Project struct {
		Name string `toml:"name"`
	} `toml:"project"`
	Tool struct {
		Pysemver map[string]interface{} `toml:"pysemver"`
	} `toml:"tool"`
}

// ReadPyproject parses the pyproject.toml at path. A missing file returns nil.
func ReadPyproject(path string) (*Pyproject, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var f pyprojectFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, &ConfigError{Field: PyprojectFile, Message: err.Error()}
	}
	return &Pyproject{Name: f.Project.Name, Tool: f.Tool.Pysemver}, nil
}

// ImportName guesses the top-level import package from the distribution name: lowercase,
// with '-' and '.' replaced by '_'.
func (p *Pyproject) ImportName() string {
	return strings.NewReplacer("-", "_", ".", "_").Replace(strings.ToLower(p.Name))
}
