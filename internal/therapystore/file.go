package therapystore

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/prime-cvd-risk/internal/domain"
)

// Format is a catalog file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath infers the encoding from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported catalog file extension: %q", filepath.Ext(path))
	}
}

// Decode reads a catalog export in the given format and validates every entry.
// A bare list of therapy classes is accepted as well as the export envelope.
func Decode(reader io.Reader, format Format) ([]domain.TherapyClass, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var export CatalogExport
	switch format {
	case FormatJSON:
		if strings.HasPrefix(strings.TrimSpace(string(data)), "[") {
			err = json.Unmarshal(data, &export.Therapies)
		} else {
			err = json.Unmarshal(data, &export)
		}
	case FormatYAML:
		var list []domain.TherapyClass
		if yaml.Unmarshal(data, &list) == nil && len(list) > 0 {
			export.Therapies = list
		} else {
			err = yaml.Unmarshal(data, &export)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format: %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s catalog: %w", format, err)
	}

	for i := range export.Therapies {
		if err := export.Therapies[i].Validate(); err != nil {
			return nil, err
		}
	}
	return export.Therapies, nil
}

// Encode writes classes as a catalog export in the given format.
func Encode(writer io.Writer, classes []domain.TherapyClass, format Format) error {
	export := NewCatalogExport(classes)

	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(export)
	case FormatYAML:
		encoder := yaml.NewEncoder(writer)
		encoder.SetIndent(2)
		if err := encoder.Encode(export); err != nil {
			return fmt.Errorf("failed to encode yaml catalog: %w", err)
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unsupported catalog format: %q", format)
	}
}

// LoadFile reads a JSON or YAML catalog file.
func LoadFile(path string) ([]domain.TherapyClass, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer f.Close()

	return Decode(f, format)
}

// WriteFile writes classes to a JSON or YAML catalog file.
func WriteFile(path string, classes []domain.TherapyClass) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create catalog file: %w", err)
	}

	if err := Encode(f, classes, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
