// help_test.go: Tests for help, version and debug output
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package vexil

import (
	"bytes"
	"strings"
	"testing"
)

// helpLine returns the help line describing --name.
func helpLine(t *testing.T, help, name string) string {
	t.Helper()
	for _, line := range strings.Split(help, "\n") {
		if strings.Contains(line, "--"+name+" ") {
			return line
		}
	}
	t.Fatalf("no help line for --%s in:\n%s", name, help)
	return ""
}

func renderHelp(t *testing.T, flags *Flags) string {
	t.Helper()
	var buf bytes.Buffer
	if err := flags.PrintHelp(&buf); err != nil {
		t.Fatalf("PrintHelp failed: %v", err)
	}
	return buf.String()
}

func TestPrintHelp_Lines(t *testing.T) {
	flags := New(Config{})
	if err := flags.RegisterInstance(&serverConfig{Port: 8080}); err != nil {
		t.Fatal(err)
	}
	help := renderHelp(t, flags)

	group := "github.com/agilira/vexil.serverConfig"
	if !strings.HasPrefix(help, "\n\n"+group+"\n"+helpRule+"\n") {
		t.Errorf("help should open with the group header:\n%q", help)
	}

	port := helpLine(t, help, "port")
	if !strings.HasPrefix(port, "    --port <INTEGER> default: 8080  . ") {
		t.Errorf("unexpected port line: %q", port)
	}
	if idx := strings.Index(port, "| "); idx != 2+helpColumn {
		t.Errorf("description column at %d, want %d: %q", idx, 2+helpColumn, port)
	}
	if !strings.HasSuffix(port, "| Listen port") {
		t.Errorf("port line should end with its description: %q", port)
	}

	name := helpLine(t, help, "service-name")
	if !strings.HasPrefix(name, "*   --service-name <STRING> default: ") {
		t.Errorf("required flag should be marked: %q", name)
	}

	verbose := helpLine(t, help, "verbose")
	if !strings.Contains(verbose, "<BOOLEAN> default: false") {
		t.Errorf("unexpected verbose line: %q", verbose)
	}
}

func TestPrintHelp_Ordering(t *testing.T) {
	var zeta, alpha, beta string

	flags := New(Config{})
	if err := flags.RegisterInstance(&serverConfig{}); err != nil {
		t.Fatal(err)
	}
	class := NewClass("aaa").
		String(&zeta, "Zeta", "").
		String(&alpha, "alpha", "").
		String(&beta, "Beta", "")
	if err := flags.RegisterClass(class); err != nil {
		t.Fatal(err)
	}
	help := renderHelp(t, flags)

	classAt := strings.Index(help, "\naaa\n")
	structAt := strings.Index(help, "\ngithub.com/agilira/vexil.serverConfig\n")
	if classAt < 0 || structAt < 0 || classAt > structAt {
		t.Errorf("groups should be sorted by name:\n%s", help)
	}

	a, b, z := strings.Index(help, "--alpha "), strings.Index(help, "--Beta "), strings.Index(help, "--Zeta ")
	if !(a < b && b < z) {
		t.Errorf("flags should be sorted case-insensitively:\n%s", help)
	}
}

func TestPrintHelp_EnumsAndPointers(t *testing.T) {
	cfg := &typedConfig{Level: levelWarn, Colour: "green", Mode: "fast"}
	flags := New(Config{})
	if err := flags.RegisterInstance(cfg); err != nil {
		t.Fatal(err)
	}
	help := renderHelp(t, flags)

	level := helpLine(t, help, "level")
	if !strings.Contains(level, "<ENUM> default: warn options: [debug, info, warn]") {
		t.Errorf("integer enum should show its label and domain: %q", level)
	}
	colourLine := helpLine(t, help, "colour")
	if !strings.Contains(colourLine, "default: green options: [red, green, blue]") {
		t.Errorf("unexpected colour line: %q", colourLine)
	}
	owner := helpLine(t, help, "owner")
	if !strings.Contains(owner, "<STRING> default: null") {
		t.Errorf("nil pointer should render as null: %q", owner)
	}
	if !strings.Contains(helpLine(t, help, "total"), "<LONG>") {
		t.Error("int64 should render as LONG")
	}
}

func TestPrintHelp_Empty(t *testing.T) {
	if help := renderHelp(t, New(Config{})); help != "" {
		t.Errorf("empty registry should render nothing, got %q", help)
	}
}

func TestPrintVersion(t *testing.T) {
	var buf bytes.Buffer
	if err := New(Config{}).PrintVersion(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != DefaultVersion+"\n" {
		t.Errorf("default version = %q", buf.String())
	}

	buf.Reset()
	if err := New(Config{Version: "1.0"}).SetVersion("2.1.0").PrintVersion(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "2.1.0\n" {
		t.Errorf("version = %q, want 2.1.0", buf.String())
	}
}

func TestDumpFlags(t *testing.T) {
	flags := New(Config{})
	if err := flags.RegisterInstance(&serverConfig{Port: 8080}); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := flags.DumpFlags(&buf); err != nil {
		t.Fatal(err)
	}
	want := "Field: serverConfig.Port int\nFlag: name:port, description:Listen port, type:INTEGER, default:8080\n"
	if !strings.Contains(buf.String(), want) {
		t.Errorf("DumpFlags output missing %q:\n%s", want, buf.String())
	}
}
