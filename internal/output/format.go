package output

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is an output format.
type Format string

const (
	FormatHuman Format = "human"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat maps a flag value to a Format. The empty string selects human output.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatHuman:
		return FormatHuman, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown format %q (want human, json or yaml)", s)
}

// Write renders v in format. Human output is available for *Report and *GraphDump; opts
// apply to reports only.
func Write(w io.Writer, format Format, v interface{}, opts HumanOptions) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, v)
	case FormatYAML:
		return WriteYAML(w, v)
	}
	switch x := v.(type) {
	case *Report:
		return WriteHuman(w, x, opts)
	case *GraphDump:
		return WriteGraphHuman(w, x)
	}
	return fmt.Errorf("human output is not available for %T", v)
}

// WriteJSON writes v as deterministic, two-space indented JSON.
func WriteJSON(w io.Writer, v interface{}) error {
	data, err := DeterministicEncodeIndented(v, "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteYAML writes v as YAML. Struct fields keep declaration order.
func WriteYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
