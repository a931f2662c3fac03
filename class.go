// class.go: Class builder for package-level flag variables
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package vexil

import (
	"fmt"
	"reflect"
	"runtime"

	"github.com/agilira/go-errors"
)

// classVar is one variable declared on a Class.
type classVar struct {
	ptr  interface{}
	flag Flag
}

// Class groups package-level variables under a common name. Flags declared
// on a Class bind to the variables' own storage, so the variables must be
// passed by address:
//
//	var (
//	    host = "localhost"
//	    port = 8080
//	)
//
//	flags.RegisterClass(vexil.NewClass("server").
//	    String(&host, "host", "Bind address").
//	    Int(&port, "port", "Listen port", vexil.Required()))
//
// The builder never fails on its own; problems are reported by
// RegisterClass.
type Class struct {
	name  string
	vars  []classVar
	hooks []interface{}
}

// NewClass creates an empty Class named name.
func NewClass(name string) *Class {
	return &Class{name: name}
}

// Name returns the class name used to group its flags in help output.
func (c *Class) Name() string {
	return c.name
}

// String declares a string flag bound to p.
func (c *Class) String(p *string, name, description string, opts ...FlagOption) *Class {
	return c.add(p, name, description, opts)
}

// Int declares an integer flag bound to p.
func (c *Class) Int(p *int, name, description string, opts ...FlagOption) *Class {
	return c.add(p, name, description, opts)
}

// Int64 declares a long flag bound to p.
func (c *Class) Int64(p *int64, name, description string, opts ...FlagOption) *Class {
	return c.add(p, name, description, opts)
}

// Bool declares a boolean flag bound to p.
func (c *Class) Bool(p *bool, name, description string, opts ...FlagOption) *Class {
	return c.add(p, name, description, opts)
}

// Enum declares an enumerated flag. p must point to a type implementing
// Enum, or to a string when OneOf is among opts.
func (c *Class) Enum(p interface{}, name, description string, opts ...FlagOption) *Class {
	return c.add(p, name, description, opts)
}

// Var declares a flag from a complete Flag value. p may point to any
// supported type.
func (c *Class) Var(p interface{}, f Flag) *Class {
	c.vars = append(c.vars, classVar{ptr: p, flag: f})
	return c
}

// Hook adds a function to run after a successful bind. fn must be func()
// or func() error. Hooks run in the order they were added.
func (c *Class) Hook(fn interface{}) *Class {
	c.hooks = append(c.hooks, fn)
	return c
}

func (c *Class) add(p interface{}, name, description string, opts []FlagOption) *Class {
	f := Flag{Name: name, Description: description}
	for _, opt := range opts {
		opt(&f)
	}
	return c.Var(p, f)
}

// classTarget adapts a Class to the target interface.
type classTarget struct {
	class *Class
}

func (t classTarget) group() string {
	return t.class.name
}

// declarations resolves every variable to its storage. A value that is not
// a non-nil pointer cannot be written through and is rejected.
func (t classTarget) declarations() ([]declaration, error) {
	decls := make([]declaration, 0, len(t.class.vars))
	for _, cv := range t.class.vars {
		if cv.flag.Name == "" {
			return nil, errors.New(ErrCodeInvalidArgument,
				fmt.Sprintf("class %s declares a flag with an empty name", t.class.name))
		}

		v := reflect.ValueOf(cv.ptr)
		if !v.IsValid() || v.Kind() != reflect.Ptr || v.IsNil() {
			return nil, errors.New(ErrCodeNonStaticField,
				fmt.Sprintf("flag %s of class %s must be bound to a variable's address, got %T",
					cv.flag.Name, t.class.name, cv.ptr)).
				WithContext("flag", cv.flag.Name)
		}

		decls = append(decls, declaration{
			flag:    cv.flag,
			binding: fieldBinding{field: t.class.name + "." + cv.flag.Name, value: v.Elem()},
		})
	}
	return decls, nil
}

func (t classTarget) postConstruct() ([]hook, error) {
	hooks := make([]hook, 0, len(t.class.hooks))
	for i, fn := range t.class.hooks {
		v := reflect.ValueOf(fn)
		h, err := newHook(hookName(t.class.name, i, v), v)
		if err != nil {
			return nil, err
		}
		hooks = append(hooks, h)
	}
	return hooks, nil
}

// hookName prefers the function's symbol name and falls back to its
// position on the class.
func hookName(class string, index int, fn reflect.Value) string {
	if fn.IsValid() && fn.Kind() == reflect.Func && !fn.IsNil() {
		if rf := runtime.FuncForPC(fn.Pointer()); rf != nil {
			return rf.Name()
		}
	}
	return fmt.Sprintf("%s#%d", class, index)
}
