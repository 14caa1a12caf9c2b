package main

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// checkFormat rejects unknown --format values before any work is done.
func checkFormat(format string) error {
	switch format {
	case "", formatTable, formatJSON, formatYAML:
		return nil
	default:
		return eris.Errorf("output: unknown format %q (valid: table, json, yaml)", format)
	}
}

// isTable reports whether format renders through the table writer.
func isTable(format string) bool {
	return format == "" || format == formatTable
}

// writeOutput renders v as JSON or YAML, or calls table for the default format.
func writeOutput(out io.Writer, format string, v any, table func(io.Writer)) error {
	switch format {
	case "", formatTable:
		table(out)
		return nil
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(v), "output: encode json")
	case formatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return eris.Wrap(err, "output: encode yaml")
		}
		return eris.Wrap(enc.Close(), "output: close yaml encoder")
	default:
		return eris.Errorf("output: unknown format %q (valid: table, json, yaml)", format)
	}
}
