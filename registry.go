// registry.go: Flag registry and type resolution
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package vexil

import (
	"fmt"

	"github.com/agilira/go-errors"
)

// Reserved option names, declared by every engine.
const (
	HelpFlag           = "help"
	VersionFlag        = "version"
	PropertiesFileFlag = "properties-file"
)

// entry is a registered flag.
type entry struct {
	flag    Flag
	vtype   ValueType
	pointer bool
	binding fieldBinding
	group   string
	enumID  string
}

// registry holds flags by name, the enum domains they reference and the
// hooks of every registered target. Names stay unique for the registry's
// lifetime.
type registry struct {
	entries map[string]*entry
	names   []string
	enums   map[string][]string
	parser  *optionParser

	instanceHooks [][]hook
	classHooks    [][]hook
}

func newRegistry() *registry {
	r := &registry{
		entries: make(map[string]*entry),
		enums:   make(map[string][]string),
		parser:  newOptionParser(),
	}
	r.parser.accepts(HelpFlag, argNone)
	r.parser.accepts(VersionFlag, argNone)
	r.parser.accepts(PropertiesFileFlag, argRequired)
	return r
}

// register adds every declaration of t. Nothing is kept when any
// declaration is rejected.
func (r *registry) register(t target, isClass bool) error {
	if r.parser.frozen {
		return errors.New(ErrCodeAlreadyParsed,
			fmt.Sprintf("cannot register %s: flags were already parsed", t.group()))
	}

	decls, err := t.declarations()
	if err != nil {
		return err
	}
	hooks, err := t.postConstruct()
	if err != nil {
		return err
	}

	pending := make([]*entry, 0, len(decls))
	pendingNames := make(map[string]bool, len(decls))
	pendingEnums := make(map[string][]string)

	for _, d := range decls {
		e, err := r.resolve(t.group(), d, pendingEnums)
		if err != nil {
			return err
		}

		name := e.flag.Name
		if r.reserved(name) || r.entries[name] != nil || pendingNames[name] {
			return errors.New(ErrCodeDuplicateFlag,
				fmt.Sprintf("flag %s is already registered (declared by %s)", name, d.binding.field)).
				WithContext("flag", name)
		}
		pendingNames[name] = true
		pending = append(pending, e)
	}

	for id, labels := range pendingEnums {
		r.enums[id] = labels
	}
	for _, e := range pending {
		r.entries[e.flag.Name] = e
		r.names = append(r.names, e.flag.Name)
		r.parser.accepts(e.flag.Name, e.argKind())
	}
	if isClass {
		r.classHooks = append(r.classHooks, hooks)
	} else {
		r.instanceHooks = append(r.instanceHooks, hooks)
	}
	return nil
}

// resolve determines the value type of a declaration and, for enums, its
// domain. New domains are recorded in pendingEnums.
func (r *registry) resolve(group string, d declaration, pendingEnums map[string][]string) (*entry, error) {
	ft := d.binding.value.Type()
	vtype, pointer := resolveType(ft, d.flag.Options)
	if vtype == TypeUnsupported {
		return nil, errors.New(ErrCodeUnsupportedFieldType,
			fmt.Sprintf("flag %s: field %s has unsupported type %s", d.flag.Name, d.binding.field, ft)).
			WithContext("flag", d.flag.Name)
	}

	e := &entry{
		flag:    d.flag,
		vtype:   vtype,
		pointer: pointer,
		binding: d.binding,
		group:   group,
	}
	if vtype != TypeEnum {
		e.flag.Options = nil
		return e, nil
	}

	var labels []string
	if ft.Implements(enumInterface) || (pointer && ft.Elem().Implements(enumInterface)) {
		e.enumID, labels = enumDomain(ft)
	} else {
		e.enumID, labels = d.binding.field, d.flag.Options
	}

	if known, ok := r.enums[e.enumID]; ok {
		labels = known
	} else if known, ok := pendingEnums[e.enumID]; ok {
		labels = known
	} else {
		labels = dedupe(labels)
		if len(labels) == 0 {
			return nil, errors.New(ErrCodeInvalidArgument,
				fmt.Sprintf("flag %s: enum domain of %s is empty", d.flag.Name, d.binding.field)).
				WithContext("flag", d.flag.Name)
		}
		pendingEnums[e.enumID] = labels
	}
	e.flag.Options = append([]string(nil), labels...)
	return e, nil
}

func (r *registry) reserved(name string) bool {
	return name == HelpFlag || name == VersionFlag || name == PropertiesFileFlag
}

// flags returns the registered declarations in registration order.
func (r *registry) flags() []Flag {
	out := make([]Flag, 0, len(r.names))
	for _, name := range r.names {
		f := r.entries[name].flag
		if f.Options != nil {
			f.Options = append([]string(nil), f.Options...)
		}
		out = append(out, f)
	}
	return out
}

// argKind is how the parser treats the option's value.
func (e *entry) argKind() argKind {
	switch {
	case e.vtype == TypeBoolean:
		return argBoolean
	case e.flag.Required:
		return argRequired
	default:
		return argOptional
	}
}

func dedupe(labels []string) []string {
	seen := make(map[string]bool, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}
