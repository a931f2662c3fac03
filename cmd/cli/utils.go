// Utility functions for the vexil CLI
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/agilira/go-errors"
	"github.com/agilira/vexil"
)

// resolveFormat maps the --format flag to a vexil.Format. "auto" and the
// empty string detect the format from the file extension.
func resolveFormat(path, explicit string) (vexil.Format, error) {
	switch strings.ToLower(explicit) {
	case "", "auto":
		return vexil.DetectFormat(path), nil
	case "properties":
		return vexil.FormatProperties, nil
	case "yaml", "yml":
		return vexil.FormatYAML, nil
	case "json":
		return vexil.FormatJSON, nil
	case "hcl":
		return vexil.FormatHCL, nil
	default:
		return vexil.FormatProperties, errors.New(vexil.ErrCodeInvalidArgument,
			fmt.Sprintf("unknown format '%s', expected auto, properties, yaml, json or hcl", explicit))
	}
}

func readOverlay(path string) ([]byte, error) {
	// #nosec G304 -- path is the file the user asked to lint
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, vexil.ErrCodePropertiesFileIO,
			fmt.Sprintf("cannot read %s: %v", path, err)).
			WithContext("file", path)
	}
	return data, nil
}
