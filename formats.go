// formats.go: Properties file formats
//
// Besides classic .properties files, overlays can be written in YAML, JSON
// or HCL. Nested YAML and JSON mappings are flattened with "-" so that
//
//	consul:
//	  host: localhost
//
// sets --consul-host.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package vexil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agilira/go-errors"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	ctyconvert "github.com/zclconf/go-cty/cty/convert"
	"go.yaml.in/yaml/v3"
)

// Property is a single key/value pair read from a properties file.
type Property struct {
	Key   string
	Value string
	Line  int
}

// Format identifies the syntax of a properties file.
type Format int

const (
	FormatProperties Format = iota
	FormatYAML
	FormatJSON
	FormatHCL
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatJSON:
		return "json"
	case FormatHCL:
		return "hcl"
	default:
		return "properties"
	}
}

// DetectFormat selects a format from the file extension. Unknown
// extensions are read as .properties.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	case ".hcl", ".tf":
		return FormatHCL
	default:
		return FormatProperties
	}
}

// LoadProperties reads and parses the file at path using DetectFormat.
// A file that cannot be read yields ErrCodePropertiesFileIO; malformed
// content yields ErrCodeInvalidPropertiesFile.
func LoadProperties(path string) ([]Property, error) {
	// #nosec G304 -- reading caller supplied properties files is the purpose
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, ErrCodePropertiesFileIO,
			fmt.Sprintf("cannot read properties file %s: %v", path, err)).
			WithContext("file", path)
	}

	props, err := ParseProperties(data, DetectFormat(path), path)
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeInvalidPropertiesFile,
			fmt.Sprintf("invalid properties file %s: %v", path, err)).
			WithContext("file", path)
	}
	return props, nil
}

// ParseProperties parses data in the given format. name is only used in
// diagnostics.
func ParseProperties(data []byte, format Format, name string) ([]Property, error) {
	switch format {
	case FormatYAML:
		return parseYAMLProperties(data)
	case FormatJSON:
		if !json.Valid(data) {
			return nil, errors.New(ErrCodeInvalidPropertiesFile, "invalid JSON document")
		}
		// JSON is a subset of YAML; the YAML node tree keeps key order.
		return parseYAMLProperties(data)
	case FormatHCL:
		return parseHCLProperties(data, name)
	default:
		return parseProperties(data)
	}
}

func parseYAMLProperties(data []byte) ([]Property, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, ErrCodeInvalidPropertiesFile,
			fmt.Sprintf("invalid YAML document: %v", err))
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.New(ErrCodeInvalidPropertiesFile,
			fmt.Sprintf("line %d: top level must be a mapping", root.Line))
	}

	var props []Property
	if err := flattenMapping(root, "", &props); err != nil {
		return nil, err
	}
	return dedupeProperties(props), nil
}

func flattenMapping(node *yaml.Node, prefix string, props *[]Property) error {
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		key := k.Value
		if prefix != "" {
			key = prefix + "-" + key
		}
		if err := validatePropertyKey(key, k.Line); err != nil {
			return err
		}

		for v.Kind == yaml.AliasNode && v.Alias != nil {
			v = v.Alias
		}
		switch v.Kind {
		case yaml.MappingNode:
			if err := flattenMapping(v, key, props); err != nil {
				return err
			}
		case yaml.ScalarNode:
			value := v.Value
			if v.ShortTag() == "!!null" {
				value = ""
			}
			*props = append(*props, Property{Key: key, Value: value, Line: k.Line})
		default:
			return errors.New(ErrCodeInvalidPropertiesFile,
				fmt.Sprintf("line %d: key %s must hold a scalar or a mapping", v.Line, key))
		}
	}
	return nil
}

func parseHCLProperties(data []byte, name string) ([]Property, error) {
	file, diags := hclparse.NewParser().ParseHCL(data, name)
	if diags.HasErrors() {
		return nil, errors.New(ErrCodeInvalidPropertiesFile,
			fmt.Sprintf("invalid HCL document: %s", diags.Error()))
	}

	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, errors.New(ErrCodeInvalidPropertiesFile,
			fmt.Sprintf("invalid HCL document: %s", diags.Error()))
	}

	type positioned struct {
		prop   Property
		offset int
	}
	found := make([]positioned, 0, len(attrs))
	for key, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, errors.New(ErrCodeInvalidPropertiesFile,
				fmt.Sprintf("attribute %s: %s", key, diags.Error()))
		}

		value := ""
		if !val.IsNull() {
			str, err := ctyconvert.Convert(val, cty.String)
			if err != nil || !str.IsKnown() {
				return nil, errors.New(ErrCodeInvalidPropertiesFile,
					fmt.Sprintf("line %d: attribute %s must be a string, number or bool",
						attr.Range.Start.Line, key))
			}
			value = str.AsString()
		}
		found = append(found, positioned{
			prop:   Property{Key: key, Value: value, Line: attr.Range.Start.Line},
			offset: attr.Range.Start.Byte,
		})
	}

	sort.Slice(found, func(i, j int) bool { return found[i].offset < found[j].offset })
	props := make([]Property, len(found))
	for i, f := range found {
		props[i] = f.prop
	}
	return props, nil
}

// dedupeProperties keeps the first position and the last value of every key.
func dedupeProperties(props []Property) []Property {
	index := make(map[string]int, len(props))
	out := props[:0]
	for _, p := range props {
		if i, ok := index[p.Key]; ok {
			out[i].Value = p.Value
			continue
		}
		index[p.Key] = len(out)
		out = append(out, p)
	}
	return out
}
