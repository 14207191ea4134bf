package xltpl

import (
	"encoding/json"
	"fmt"
	"os"

	hjson "github.com/hjson/hjson-go/v4"
)

// DefaultJSONRoot locates the extracted record inside the source document
// when the mapping config does not say otherwise.
const DefaultJSONRoot = "structured_data[0]"

// SourceExternal marks a mapping whose value comes from outside the
// extracted document and must be entered manually.
const SourceExternal = "external"

// MappingConfig is a declarative field-mapping configuration, loaded once
// per fill run and immutable during it.
type MappingConfig struct {
	TemplateName string                    `json:"template_name"`
	JSONRoot     string                    `json:"json_root"`
	Sheets       map[string]*SheetMappings `json:"sheets"`
}

// SheetMappings configures one target sheet. When ArraySource is set the
// Mappings entries are column mappings for a repeating row block; otherwise
// they are single-cell mappings.
type SheetMappings struct {
	Mappings []*Mapping `json:"mappings"`

	// repeating row block
	ArraySource     string   `json:"array_source,omitempty"`
	RowStart        int      `json:"row_start,omitempty"`
	MaxRows         int      `json:"max_rows,omitempty"`
	AnchorColumn    string   `json:"anchor_column,omitempty"`
	CategoryField   string   `json:"category_field,omitempty"`
	ClearColumns    []string `json:"clear_columns,omitempty"`
	DeleteEmptyRows *bool    `json:"delete_empty_rows,omitempty"`
}

// deleteEmpty defaults to true when the config is silent.
func (sc *SheetMappings) deleteEmpty() bool {
	return sc.DeleteEmptyRows == nil || *sc.DeleteEmptyRows
}

// Mapping binds a target to a source path. Cell form targets a single cell;
// Column form targets one column of a repeating row block.
type Mapping struct {
	// single-cell form
	Cell              string  `json:"cell,omitempty"`
	JSONPath          string  `json:"json_path,omitempty"`
	FallbackPath      string  `json:"fallback_path,omitempty"`
	FallbackTransform string  `json:"fallback_transform,omitempty"`
	Source            string  `json:"source,omitempty"`
	JSONRootOverride  *string `json:"json_root_override,omitempty"`
	Notes             string  `json:"notes,omitempty"`

	// array-column form
	Column    string `json:"column,omitempty"`
	JSONField string `json:"json_field,omitempty"`

	Label     string `json:"label,omitempty"`
	Transform string `json:"transform,omitempty"`
}

// LoadMappingConfig reads a mapping config file. Plain JSON is tried first;
// HJSON (comments, unquoted keys) is accepted for hand-authored configs.
func LoadMappingConfig(path string) (*MappingConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping config %q: %w", path, err)
	}
	cfg, err := ParseMappingConfig(raw)
	if err != nil {
		return nil, fmt.Errorf("mapping config %q: %w", path, err)
	}
	return cfg, nil
}

// ParseMappingConfig parses mapping config bytes, JSON first, HJSON as
// fallback.
func ParseMappingConfig(raw []byte) (*MappingConfig, error) {
	var cfg MappingConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		if herr := hjson.Unmarshal(raw, &cfg); herr != nil {
			return nil, fmt.Errorf("parse: %w", err)
		}
	}
	if cfg.JSONRoot == "" {
		cfg.JSONRoot = DefaultJSONRoot
	}
	return &cfg, nil
}
