// flag.go: Flag declarations and value types
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package vexil

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/agilira/go-errors"
)

// Struct tag keys read by RegisterInstance.
//
//	type ConsulConfig struct {
//	    Host     string `flag:"consul-host" description:"Consul host[:port]"`
//	    Interval int64  `flag:"consul-health-check-interval" description:"Seconds between checks"`
//	    Mode     string `flag:"consul-mode" options:"agent,server"`
//	    Token    string `flag:"consul-token" required:"true"`
//	}
const (
	tagFlag        = "flag"
	tagDescription = "description"
	tagRequired    = "required"
	tagOptions     = "options"
	tagHooks       = "hooks"
)

// Flag describes a single configuration flag. A Flag is immutable once it
// has been registered.
type Flag struct {
	// Name is the option name without the leading "--". Unique per engine.
	Name string

	// Description is shown by PrintHelp.
	Description string

	// Required flags must be supplied on the command line, by a properties
	// file or by a secret resolver.
	Required bool

	// Options is the enum domain in declaration order. It is only set for
	// enumerated flags.
	Options []string
}

// FlagOption adjusts a Flag declared through the Class builder.
type FlagOption func(*Flag)

// Required marks a flag as mandatory.
func Required() FlagOption {
	return func(f *Flag) { f.Required = true }
}

// OneOf restricts a string flag to the given labels, turning it into an
// enumerated flag.
func OneOf(labels ...string) FlagOption {
	return func(f *Flag) {
		f.Options = append([]string{}, labels...)
	}
}

// Enum is implemented by named string or integer types that form a closed
// domain of values. Options must be callable on the zero value.
//
// String-kind enums are bound to the label itself; integer-kind enums are
// bound to the label's index, which matches constants declared with iota in
// the same order.
type Enum interface {
	Options() []string
}

var enumInterface = reflect.TypeOf((*Enum)(nil)).Elem()

// ValueType is the semantic type of a flag's field.
type ValueType uint8

const (
	TypeUnsupported ValueType = iota
	TypeString
	TypeInteger
	TypeLong
	TypeBoolean
	TypeEnum
)

// String returns the label used in help output.
func (t ValueType) String() string {
	switch t {
	case TypeString:
		return "STRING"
	case TypeInteger:
		return "INTEGER"
	case TypeLong:
		return "LONG"
	case TypeBoolean:
		return "BOOLEAN"
	case TypeEnum:
		return "ENUM"
	default:
		return "UNSUPPORTED"
	}
}

var (
	stringType = reflect.TypeOf("")
	intType    = reflect.TypeOf(int(0))
	int32Type  = reflect.TypeOf(int32(0))
	int64Type  = reflect.TypeOf(int64(0))
	boolType   = reflect.TypeOf(false)
)

// resolveType maps a field type to its ValueType. Pointers to supported
// scalars are accepted and reported through the second result. options is
// the domain declared in the flag metadata, if any.
func resolveType(t reflect.Type, options []string) (ValueType, bool) {
	pointer := false
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
		pointer = true
	}

	if t.Implements(enumInterface) && isEnumKind(t.Kind()) {
		return TypeEnum, pointer
	}

	switch t {
	case stringType:
		if options != nil {
			return TypeEnum, pointer
		}
		return TypeString, pointer
	case intType, int32Type:
		if options == nil {
			return TypeInteger, pointer
		}
	case int64Type:
		if options == nil {
			return TypeLong, pointer
		}
	case boolType:
		if options == nil {
			return TypeBoolean, pointer
		}
	}
	return TypeUnsupported, pointer
}

func isEnumKind(k reflect.Kind) bool {
	switch k {
	case reflect.String, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

// enumDomain returns the labels of an Enum type and its identity in the
// enum table.
func enumDomain(t reflect.Type) (string, []string) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	labels := reflect.Zero(t).Interface().(Enum).Options()
	return qualifiedName(t), labels
}

// qualifiedName returns "pkgpath.Name" for named types.
func qualifiedName(t reflect.Type) string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// flagFromTag builds a Flag from a struct field's tags.
func flagFromTag(owner string, field reflect.StructField) (Flag, error) {
	f := Flag{
		Name:        field.Tag.Get(tagFlag),
		Description: field.Tag.Get(tagDescription),
	}
	if f.Name == "" {
		return Flag{}, errors.New(ErrCodeInvalidArgument,
			fmt.Sprintf("field %s.%s has an empty flag name", owner, field.Name))
	}

	if raw, ok := field.Tag.Lookup(tagRequired); ok {
		required, err := strconv.ParseBool(raw)
		if err != nil {
			return Flag{}, errors.Wrap(err, ErrCodeInvalidArgument,
				fmt.Sprintf("field %s.%s has an invalid required tag %q", owner, field.Name, raw))
		}
		f.Required = required
	}

	if raw, ok := field.Tag.Lookup(tagOptions); ok {
		f.Options = splitLabels(raw)
	}
	return f, nil
}

// splitLabels splits a comma separated label list. The result is non-nil
// even when raw holds no labels so an empty domain can be reported.
func splitLabels(raw string) []string {
	labels := []string{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			labels = append(labels, part)
		}
	}
	return labels
}
