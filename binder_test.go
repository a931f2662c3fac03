// binder_test.go: Tests for value conversion and binding
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package vexil

import (
	"reflect"
	"strings"
	"testing"
)

type typedConfig struct {
	Name    string   `flag:"name"`
	Count   int      `flag:"count"`
	Small   int32    `flag:"small"`
	Total   int64    `flag:"total"`
	Enabled bool     `flag:"enabled"`
	Level   logLevel `flag:"level"`
	Colour  colour   `flag:"colour"`
	Mode    string   `flag:"mode" options:"fast,safe"`
	Owner   *string  `flag:"owner"`
	Retries *int     `flag:"retries"`
	Strict  *bool    `flag:"strict"`
}

// bindArgs registers instance on a fresh registry and binds args onto it.
func bindArgs(t *testing.T, instance interface{}, args ...string) ([]staged, error) {
	t.Helper()
	r := newRegistry()
	tgt, err := newInstanceTarget(instance)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.register(tgt, false); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	set, err := r.parser.parse(args)
	if err != nil {
		return nil, err
	}
	return r.bind(set)
}

func TestBind_ConvertsEveryType(t *testing.T) {
	cfg := &typedConfig{}
	_, err := bindArgs(t, cfg,
		"--name", "orders",
		"--count", "42",
		"--small=-7",
		"--total", "9000000000",
		"--enabled", "TRUE",
		"--level", "info",
		"--colour", "blue",
		"--mode", "safe",
		"--owner", "ops",
		"--retries", "3",
		"--strict",
	)
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}

	if cfg.Name != "orders" || cfg.Count != 42 || cfg.Small != -7 || cfg.Total != 9000000000 || !cfg.Enabled {
		t.Errorf("scalar values not bound: %+v", cfg)
	}
	if cfg.Level != levelInfo || cfg.Colour != "blue" || cfg.Mode != "safe" {
		t.Errorf("enum values not bound: level=%d colour=%s mode=%s", cfg.Level, cfg.Colour, cfg.Mode)
	}
	if cfg.Owner == nil || *cfg.Owner != "ops" {
		t.Errorf("owner = %v", cfg.Owner)
	}
	if cfg.Retries == nil || *cfg.Retries != 3 {
		t.Errorf("retries = %v", cfg.Retries)
	}
	if cfg.Strict == nil || !*cfg.Strict {
		t.Errorf("strict = %v", cfg.Strict)
	}
}

func TestBind_UnsuppliedFieldsKeepDefaults(t *testing.T) {
	cfg := &typedConfig{Name: "default", Count: 7}
	writes, err := bindArgs(t, cfg, "--count", "8")
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	if cfg.Name != "default" || cfg.Count != 8 || cfg.Owner != nil {
		t.Errorf("unexpected state: %+v", cfg)
	}
	if len(writes) != 1 || writes[0].entry.flag.Name != "count" || writes[0].raw != "8" {
		t.Errorf("unexpected writes: %+v", writes)
	}
}

func TestBind_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code string
	}{
		{"not_a_number", []string{"--count", "many"}, ErrCodeInvalidFlagValue},
		{"int32_overflow", []string{"--small", "3000000000"}, ErrCodeInvalidFlagValue},
		{"not_a_bool", []string{"--enabled=yes"}, ErrCodeInvalidFlagValue},
		{"bad_enum", []string{"--level", "trace"}, ErrCodeInvalidEnumValue},
		{"enum_is_case_sensitive", []string{"--colour", "RED"}, ErrCodeInvalidEnumValue},
		{"int_without_value", []string{"--count"}, ErrCodeMissingFlagValue},
		{"enum_without_value", []string{"--mode"}, ErrCodeMissingFlagValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := bindArgs(t, &typedConfig{}, tt.args...)
			assertCode(t, err, tt.code)
			if !IsUserError(err) {
				t.Errorf("%s should be a user error", ErrorCode(err))
			}
		})
	}
}

func TestBind_EnumErrorListsDomain(t *testing.T) {
	_, err := bindArgs(t, &typedConfig{}, "--level", "trace")
	assertCode(t, err, ErrCodeInvalidEnumValue)

	want := `invalid value "trace" for option --level, valid options: [debug, info, warn]`
	if !strings.Contains(err.Error(), want) {
		t.Errorf("error %q does not contain %q", err.Error(), want)
	}
}

func TestBind_StringWithoutValueIsEmpty(t *testing.T) {
	cfg := &typedConfig{Name: "default"}
	if _, err := bindArgs(t, cfg, "--name"); err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	if cfg.Name != "" {
		t.Errorf("name = %q, want empty", cfg.Name)
	}
}

func TestBind_IsAtomic(t *testing.T) {
	cfg := &typedConfig{Count: 1, Name: "before"}
	_, err := bindArgs(t, cfg, "--name", "after", "--count", "2", "--level", "trace")
	assertCode(t, err, ErrCodeInvalidEnumValue)

	if cfg.Name != "before" || cfg.Count != 1 {
		t.Errorf("fields changed despite the error: %+v", cfg)
	}
}

func TestBind_MissingRequired(t *testing.T) {
	cfg := &serverConfig{Port: 1}
	_, err := bindArgs(t, cfg, "--port", "2")
	assertCode(t, err, ErrCodeMissingRequiredFlag)

	if !strings.Contains(err.Error(), "missing required option: --service-name") {
		t.Errorf("unexpected message: %v", err)
	}
	if cfg.Port != 1 {
		t.Error("port was written although a required flag is missing")
	}
}

func TestBind_BareBooleanRawValue(t *testing.T) {
	writes, err := bindArgs(t, &typedConfig{}, "--enabled")
	if err != nil {
		t.Fatal(err)
	}
	if len(writes) != 1 || writes[0].raw != "true" {
		t.Errorf("bare boolean should be recorded as true: %+v", writes)
	}
}

func TestSetEnumOverflow(t *testing.T) {
	type tiny uint8
	out := reflect.New(reflect.TypeOf(tiny(0))).Elem()
	if err := setEnum(out, "x", 300); err == nil {
		t.Error("expected overflow error")
	}
	if err := setEnum(out, "x", 3); err != nil || out.Uint() != 3 {
		t.Errorf("setEnum = %v, value %d", err, out.Uint())
	}
}
