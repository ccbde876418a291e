package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"mcpshadow/internal/domain"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

const fileMode = 0o600

// ParseFormat accepts "json", "yaml" and "yml", case-insensitively. Empty means JSON.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(FormatJSON):
		return FormatJSON, nil
	case string(FormatYAML), "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported report format %q (want json or yaml)", value)
	}
}

// Encode renders a report. YAML output keeps the JSON field names and order.
func Encode(report domain.Report, format Format) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	if format != FormatYAML {
		return append(data, '\n'), nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("convert report to yaml: %w", err)
	}
	clearStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, fmt.Errorf("encode yaml report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml report: %w", err)
	}
	return buf.Bytes(), nil
}

// Write encodes report to out, or to path when path is non-empty.
// Files are replaced atomically.
func Write(out io.Writer, path string, report domain.Report, format Format) error {
	data, err := Encode(report, format)
	if err != nil {
		return err
	}
	if strings.TrimSpace(path) == "" {
		_, err := out.Write(data)
		return err
	}
	return writeFileAtomic(path, data)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".mcpshadow-report-*")
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write report file: %w", err)
	}
	if err := tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod report file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close report file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace report file: %w", err)
	}
	return nil
}

// clearStyle drops the flow and quoting styles inherited from the JSON source.
// The encoder still quotes strings that would otherwise read back as another type.
func clearStyle(node *yaml.Node) {
	node.Style = 0
	for _, child := range node.Content {
		clearStyle(child)
	}
}
