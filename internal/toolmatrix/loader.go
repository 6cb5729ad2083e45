package toolmatrix

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ShayCichocki/taskweave/pkg/models"
)

// fileTable is the on-disk YAML shape of a tool table.
type fileTable struct {
	Tools  []fileTool         `yaml:"tools"`
	Matrix map[string][]Entry `yaml:"matrix"`
}

type fileTool struct {
	Name         string              `yaml:"name"`
	Category     string              `yaml:"category"`
	Capabilities []models.Capability `yaml:"capabilities"`
	Cost         int                 `yaml:"cost"`
	Destructive  bool                `yaml:"destructive"`
	Requires     Requirements        `yaml:"requires"`
}

// LoadFile reads a YAML tool table from path.
func LoadFile(path string, env LookupEnv, opts ...Option) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tool table: %w", err)
	}
	defer f.Close()

	m, err := Load(f, env, opts...)
	if err != nil {
		return nil, fmt.Errorf("load tool table %s: %w", path, err)
	}
	return m, nil
}

// Load reads a YAML tool table from r.
func Load(r io.Reader, env LookupEnv, opts ...Option) (*Matrix, error) {
	var table fileTable
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&table); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	tools := make([]models.ToolDescriptor, 0, len(table.Tools))
	for _, ft := range table.Tools {
		tools = append(tools, models.ToolDescriptor{
			Name:         ft.Name,
			Category:     ft.Category,
			Capabilities: ft.Capabilities,
			Cost:         ft.Cost,
			Destructive:  ft.Destructive,
			Available:    ft.Requires.Predicate(env),
		})
	}

	rows := make(map[models.OperationType][]Entry, len(table.Matrix))
	for op, entries := range table.Matrix {
		rows[models.OperationType(op)] = entries
	}

	return New(tools, rows, opts...)
}
