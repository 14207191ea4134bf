package xltpl

import (
	"encoding/json"
	"fmt"
	"os"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
)

// LoadDocument reads the extracted source document. Extractor output is not
// always clean JSON, so a repair pass runs before giving up.
func LoadDocument(path string) (any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source document %q: %w", path, err)
	}
	doc, err := ParseDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("source document %q: %w", path, err)
	}
	return doc, nil
}

// ParseDocument parses source document bytes, repairing common JSON defects
// (trailing commas, single quotes, unclosed brackets) when a strict parse
// fails.
func ParseDocument(raw []byte) (any, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err == nil {
		return doc, nil
	}

	repaired, err := jsonrepair.RepairJSON(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &doc); err != nil {
		return nil, fmt.Errorf("parse repaired document: %w", err)
	}
	return doc, nil
}
