package outline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

var ErrUnsupportedFormat = errors.New("outline: unsupported file format")

// Open loads an outline, choosing the reader by file extension.
func Open(path string) (*Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".leo":
		return LoadLeo(path)
	case ".db", ".sqlite":
		return LoadSQLite(path)
	case ".yaml", ".yml":
		return LoadYAML(path)
	case ".json":
		return LoadJSON(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// treeFile is the nested outline shape shared by the yaml and json readers.
type treeFile struct {
	Nodes []Entry `yaml:"nodes" json:"nodes"`
}

func LoadYAML(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("outline load failed (%s): %w", path, err)
	}
	var f treeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("outline parse failed (%s): %w", path, err)
	}
	return Build(path, f.Nodes)
}

func LoadJSON(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("outline load failed (%s): %w", path, err)
	}
	var f treeFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("outline parse failed (%s): %w", path, err)
	}
	return Build(path, f.Nodes)
}
