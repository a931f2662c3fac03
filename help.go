// help.go: Help, version and debug listings
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package vexil

import (
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	helpRule    = "------------------------------------------------------------------------"
	helpDotFill = "  . . . . . . . . . . . . . . . . . . . . . . . . "
	helpColumn  = 50
)

// writeHelp renders every registered flag grouped by target. Groups are
// sorted by name and flags within a group case-insensitively by name.
// Required flags are marked with '*'.
func (r *registry) writeHelp(w io.Writer) error {
	groups := make(map[string][]*entry)
	for _, name := range r.names {
		e := r.entries[name]
		groups[e.group] = append(groups[e.group], e)
	}

	groupNames := make([]string, 0, len(groups))
	for g := range groups {
		groupNames = append(groupNames, g)
	}
	sort.Strings(groupNames)

	for _, g := range groupNames {
		entries := groups[g]
		sort.SliceStable(entries, func(i, j int) bool {
			return strings.ToLower(entries[i].flag.Name) < strings.ToLower(entries[j].flag.Name)
		})

		var b strings.Builder
		b.WriteString("\n\n")
		b.WriteString(g)
		b.WriteString("\n")
		b.WriteString(helpRule)
		b.WriteString("\n")

		for _, e := range entries {
			if e.flag.Required {
				b.WriteString("* ")
			} else {
				b.WriteString("  ")
			}

			s := fmt.Sprintf("  --%s <%s> default: %s", e.flag.Name, e.vtype, e.display())
			if e.vtype == TypeEnum {
				s += " options: [" + strings.Join(e.flag.Options, ", ") + "]"
			}

			fill := helpColumn - utf8.RuneCountInString(s)
			if fill < 0 {
				fill = 0
			}
			b.WriteString(s)
			b.WriteString(helpDotFill[:fill])
			b.WriteString("| ")
			b.WriteString(e.flag.Description)
			b.WriteString("\n")
		}
		b.WriteString("\n")

		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}

// writeFlags is a debug listing of every flag with its field and type.
func (r *registry) writeFlags(w io.Writer) error {
	for _, name := range r.names {
		e := r.entries[name]
		_, err := fmt.Fprintf(w, "Field: %s %s\nFlag: name:%s, description:%s, type:%s, default:%s\n",
			e.binding.field, e.binding.value.Type(), e.flag.Name, e.flag.Description, e.vtype, e.display())
		if err != nil {
			return err
		}
	}
	return nil
}

// display renders the current value of the bound field. Integer enums
// show their label.
func (e *entry) display() string {
	v := e.binding.current()
	if v == nil {
		return "null"
	}
	if e.vtype == TypeEnum {
		rv := reflect.ValueOf(v)
		var idx int64 = -1
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			idx = rv.Int()
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			idx = int64(rv.Uint())
		case reflect.String:
			return rv.String()
		}
		if idx >= 0 && idx < int64(len(e.flag.Options)) {
			return e.flag.Options[idx]
		}
	}
	return fmt.Sprint(v)
}
