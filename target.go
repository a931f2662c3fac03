// target.go: Binding targets and field bindings
//
// A target owns the storage that flags are bound to. Struct instances are
// scanned through their tags; classes (groups of package-level variables)
// are declared through the Class builder in class.go. The registry only
// ever sees the declarations a target produces.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package vexil

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/agilira/go-errors"
)

// PostConstruct marks a struct whose exported methods should run after a
// successful bind. The methods are listed, in call order, in the hooks tag:
//
//	type Server struct {
//	    vexil.PostConstruct `hooks:"Validate,Start"`
//
//	    Port int `flag:"port" description:"Listen port"`
//	}
//
// Each method must have the signature func() or func() error. Only exported
// methods can be hooks: reflection cannot call unexported ones, so naming one
// fails registration with ErrCodeInvalidHookSignature.
type PostConstruct struct{}

var postConstructType = reflect.TypeOf(PostConstruct{})

// target is implemented by instanceTarget and classTarget.
type target interface {
	// group is the name flags are grouped under in help output.
	group() string

	// declarations returns every flag the target declares, each with
	// a settable value.
	declarations() ([]declaration, error)

	// postConstruct returns the target's hooks in call order.
	postConstruct() ([]hook, error)
}

// declaration is a flag paired with the storage it binds to.
type declaration struct {
	flag    Flag
	binding fieldBinding
}

// fieldBinding is the write capability for exactly one field or variable.
type fieldBinding struct {
	field string
	value reflect.Value
}

// set writes v into the bound storage. Assignment failures are reported
// instead of panicking.
func (b fieldBinding) set(v reflect.Value) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(ErrCodeReflectionAccess,
				fmt.Sprintf("cannot assign %s: %v", b.field, r)).
				WithContext("field", b.field)
		}
	}()
	b.value.Set(v)
	return nil
}

// current returns the value presently stored, dereferencing pointers.
// A nil pointer yields nil.
func (b fieldBinding) current() interface{} {
	v := b.value
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	return v.Interface()
}

// instanceTarget binds the tagged fields of a struct reached through a
// pointer.
type instanceTarget struct {
	ptr reflect.Value
	typ reflect.Type
}

func newInstanceTarget(instance interface{}) (*instanceTarget, error) {
	if instance == nil {
		return nil, errors.New(ErrCodeInvalidArgument, "instance cannot be nil")
	}
	v := reflect.ValueOf(instance)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return nil, errors.New(ErrCodeInvalidArgument,
			fmt.Sprintf("instance must be a non-nil pointer to a struct, got %T", instance))
	}
	return &instanceTarget{ptr: v, typ: v.Elem().Type()}, nil
}

func (t *instanceTarget) group() string {
	return qualifiedName(t.typ)
}

// declarations scans the fields declared directly on the struct. Fields of
// embedded structs are not promoted. Unexported fields are reached through
// their address.
func (t *instanceTarget) declarations() ([]declaration, error) {
	elem := t.ptr.Elem()
	var decls []declaration

	for i := 0; i < t.typ.NumField(); i++ {
		sf := t.typ.Field(i)
		if _, ok := sf.Tag.Lookup(tagFlag); !ok {
			continue
		}

		f, err := flagFromTag(t.typ.Name(), sf)
		if err != nil {
			return nil, err
		}

		fv := elem.Field(i)
		if !fv.CanSet() {
			// #nosec G103 -- fv is addressable, it is a field of *instance
			fv = reflect.NewAt(sf.Type, unsafe.Pointer(fv.UnsafeAddr())).Elem()
		}

		decls = append(decls, declaration{
			flag:    f,
			binding: fieldBinding{field: t.typ.Name() + "." + sf.Name, value: fv},
		})
	}
	return decls, nil
}

// postConstruct reads the hooks tag of the struct's own PostConstruct
// marker. Markers inside embedded structs are ignored.
func (t *instanceTarget) postConstruct() ([]hook, error) {
	var hooks []hook
	for i := 0; i < t.typ.NumField(); i++ {
		sf := t.typ.Field(i)
		if sf.Type != postConstructType {
			continue
		}
		for _, name := range splitLabels(sf.Tag.Get(tagHooks)) {
			method := t.ptr.MethodByName(name)
			if !method.IsValid() {
				return nil, errors.New(ErrCodeInvalidHookSignature,
					fmt.Sprintf("%s has no exported method %s", t.group(), name)).
					WithContext("hook", name)
			}
			h, err := newHook(t.typ.Name()+"."+name, method)
			if err != nil {
				return nil, err
			}
			hooks = append(hooks, h)
		}
	}
	return hooks, nil
}
