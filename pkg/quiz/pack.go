package quiz

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Pack is the ordered quiz sequence. A session's quiz index selects into it.
type Pack struct {
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Quizzes []Quiz `json:"quizzes" yaml:"quizzes"`
}

func (p *Pack) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Quizzes)
}

// At returns the quiz at index, or ErrNoQuiz when the index is out of range.
func (p *Pack) At(index int) (*Quiz, error) {
	if p == nil || index < 0 || index >= len(p.Quizzes) {
		return nil, fmt.Errorf("%w %d", ErrNoQuiz, index)
	}
	return &p.Quizzes[index], nil
}

// Format is the encoding of a pack file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported quiz pack extension: %s", filepath.Ext(path))
	}
}

// Parse decodes a pack. JSON packs reject unknown fields.
func Parse(data []byte, format Format) (*Pack, error) {
	var p Pack
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(strings.NewReader(string(data)))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			return nil, fmt.Errorf("failed to decode quiz pack JSON: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to decode quiz pack YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported quiz pack format: %q", format)
	}
	return &p, nil
}

// LoadFile reads and parses a pack from disk. It does not validate content.
func LoadFile(path string) (*Pack, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read quiz pack %s: %w", path, err)
	}
	p, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return p, nil
}
