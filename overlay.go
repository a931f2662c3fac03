// overlay.go: Properties file overlay
//
// Values from --properties-file are turned back into command line tokens
// and placed in front of the original arguments, so the command line keeps
// precedence and the same tokenizer handles both sources.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package vexil

import "strings"

// overlay is the merged content of one or more properties files.
type overlay struct {
	keys   []string
	values map[string]string
	origin map[string]string
}

// splitPropertiesFiles splits a --properties-file value on ';'.
func splitPropertiesFiles(value string) []string {
	var paths []string
	for _, p := range strings.Split(value, ";") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// loadOverlay reads paths in order. A key defined by several files takes
// the value of the last one.
func loadOverlay(paths []string) (*overlay, error) {
	o := &overlay{
		values: make(map[string]string),
		origin: make(map[string]string),
	}
	for _, path := range paths {
		props, err := LoadProperties(path)
		if err != nil {
			return nil, err
		}
		for _, p := range props {
			if _, ok := o.values[p.Key]; !ok {
				o.keys = append(o.keys, p.Key)
			}
			o.values[p.Key] = p.Value
			o.origin[p.Key] = path
		}
	}
	return o, nil
}

// tokens synthesizes "--key=value", or a bare "--key" for empty values, for
// every key that skip does not claim. The value stays attached to its key so
// the tokenizer can never mistake it for a non-option argument.
func (o *overlay) tokens(skip func(key string) bool) []string {
	out := make([]string, 0, len(o.keys))
	for _, key := range o.keys {
		if skip != nil && skip(key) {
			continue
		}
		if v := o.values[key]; v != "" {
			out = append(out, "--"+key+"="+v)
		} else {
			out = append(out, "--"+key)
		}
	}
	return out
}

// OverlayArgs loads the given properties files and returns the arguments
// they contribute, as they would be placed before the command line.
func OverlayArgs(paths ...string) ([]string, error) {
	o, err := loadOverlay(paths)
	if err != nil {
		return nil, err
	}
	return o.tokens(nil), nil
}
