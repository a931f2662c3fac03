// binder.go: Binding parsed options onto registered fields
//
// Binding runs in two phases. Every supplied value is converted and every
// required flag is checked first; fields are written only when the whole
// set is valid, so a bad argument leaves the configuration untouched.
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

// staged is a converted value waiting to be written.
type staged struct {
	entry *entry
	value reflect.Value
	raw   string
}

// bind converts and writes every supplied flag. It returns the flags that
// were written, in registration order.
func (r *registry) bind(set *optionSet) ([]staged, error) {
	writes := make([]staged, 0, len(r.names))

	for _, name := range r.names {
		e := r.entries[name]
		occ, ok := set.last(name)
		if !ok {
			if e.flag.Required {
				return nil, errors.New(ErrCodeMissingRequiredFlag,
					fmt.Sprintf("missing required option: --%s", name)).
					WithContext("flag", name)
			}
			continue
		}

		v, err := convert(e, occ)
		if err != nil {
			return nil, err
		}
		writes = append(writes, staged{entry: e, value: v, raw: rawValue(e, occ)})
	}

	for _, w := range writes {
		if err := w.entry.binding.set(w.value); err != nil {
			return nil, err
		}
	}
	return writes, nil
}

// convert turns an occurrence into a value assignable to the entry's field.
func convert(e *entry, occ occurrence) (reflect.Value, error) {
	ft := e.binding.value.Type()
	base := ft
	if e.pointer {
		base = ft.Elem()
	}

	out := reflect.New(base).Elem()
	switch e.vtype {
	case TypeBoolean:
		b := true
		if occ.hasValue {
			switch {
			case strings.EqualFold(occ.value, "true"):
			case strings.EqualFold(occ.value, "false"):
				b = false
			default:
				return reflect.Value{}, invalidValue(e, occ.value, "expected true or false")
			}
		}
		out.SetBool(b)

	case TypeString:
		out.SetString(occ.value)

	case TypeInteger, TypeLong:
		if !occ.hasValue {
			return reflect.Value{}, missingValue(e)
		}
		n, err := strconv.ParseInt(strings.TrimSpace(occ.value), 10, base.Bits())
		if err != nil {
			return reflect.Value{}, invalidValue(e, occ.value,
				fmt.Sprintf("expected a %d-bit integer", base.Bits()))
		}
		out.SetInt(n)

	case TypeEnum:
		if !occ.hasValue {
			return reflect.Value{}, missingValue(e)
		}
		idx := indexOf(e.flag.Options, occ.value)
		if idx < 0 {
			return reflect.Value{}, errors.New(ErrCodeInvalidEnumValue,
				fmt.Sprintf("invalid value %q for option --%s, valid options: [%s]",
					occ.value, e.flag.Name, strings.Join(e.flag.Options, ", "))).
				WithContext("flag", e.flag.Name)
		}
		if err := setEnum(out, occ.value, idx); err != nil {
			return reflect.Value{}, invalidValue(e, occ.value, err.Error())
		}

	default:
		return reflect.Value{}, errors.New(ErrCodeUnsupportedFieldType,
			fmt.Sprintf("option --%s has unsupported type %s", e.flag.Name, ft))
	}

	if e.pointer {
		p := reflect.New(base)
		p.Elem().Set(out)
		return p, nil
	}
	return out, nil
}

// setEnum stores a label: string kinds take the label, integer kinds take
// its index in the domain.
func setEnum(out reflect.Value, label string, idx int) error {
	switch out.Kind() {
	case reflect.String:
		out.SetString(label)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if out.OverflowInt(int64(idx)) {
			return fmt.Errorf("index %d overflows %s", idx, out.Type())
		}
		out.SetInt(int64(idx))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if out.OverflowUint(uint64(idx)) {
			return fmt.Errorf("index %d overflows %s", idx, out.Type())
		}
		out.SetUint(uint64(idx))
	default:
		return fmt.Errorf("cannot store enum in %s", out.Type())
	}
	return nil
}

func invalidValue(e *entry, value, reason string) error {
	return errors.New(ErrCodeInvalidFlagValue,
		fmt.Sprintf("invalid value %q for option --%s: %s", value, e.flag.Name, reason)).
		WithContext("flag", e.flag.Name)
}

func missingValue(e *entry) error {
	return errors.New(ErrCodeMissingFlagValue,
		fmt.Sprintf("option --%s requires a value", e.flag.Name)).
		WithContext("flag", e.flag.Name)
}

// rawValue is the textual value that was bound, as logged and audited.
func rawValue(e *entry, occ occurrence) string {
	if e.vtype == TypeBoolean && !occ.hasValue {
		return "true"
	}
	return occ.value
}

func indexOf(labels []string, label string) int {
	for i, l := range labels {
		if l == label {
			return i
		}
	}
	return -1
}
