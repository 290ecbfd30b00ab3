package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Formatter abstracts output formatting.
type Formatter interface {
	Write(w io.Writer, payload any) error
}

// JSONFormatter writes JSON output.
type JSONFormatter struct {
	Indent bool
}

// Write writes JSON payload to a writer.
func (f JSONFormatter) Write(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	if f.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(payload)
}

// YAMLFormatter writes YAML output. Payloads go through JSON first so field
// names follow the json tags used on the wire.
type YAMLFormatter struct{}

func (f YAMLFormatter) Write(w io.Writer, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// ByName resolves "json" or "yaml".
func ByName(name string) (Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return JSONFormatter{}, nil
	case "yaml", "yml":
		return YAMLFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format: %s", name)
	}
}
