package source

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLSource reads a dataset from a YAML file:
//
//	thematics: [food, travel]
//	other_guests: [B, C]
//	scores:
//	  A: {food: 1.0, travel: 3.0}
//	  B: {food: 1.5, travel: 3.5}
type YAMLSource struct {
	path string
}

// NewYAMLSource creates a source reading path
func NewYAMLSource(path string) *YAMLSource {
	return &YAMLSource{path: path}
}

// Name returns the file path
func (y *YAMLSource) Name() string {
	return "yaml:" + y.path
}

// Close is a no-op
func (y *YAMLSource) Close() error {
	return nil
}

// Read parses the file into a dataset
func (y *YAMLSource) Read() (*Dataset, error) {
	data, err := os.ReadFile(y.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset file: %w", err)
	}

	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse dataset file %s: %w", y.path, err)
	}

	return &ds, nil
}

// Load reads the file and pushes it into sink
func (y *YAMLSource) Load(ctx context.Context, sink Sink) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ds, err := y.Read()
	if err != nil {
		return err
	}

	ds.Apply(sink)
	return nil
}
