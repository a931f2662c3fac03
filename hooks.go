// hooks.go: Post-bind lifecycle hooks
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package vexil

import (
	"fmt"
	"reflect"

	"github.com/agilira/go-errors"
	"go.uber.org/zap"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// hook is a validated zero-argument callable.
type hook struct {
	name string
	fn   reflect.Value
}

// newHook checks that fn is func() or func() error.
func newHook(name string, fn reflect.Value) (hook, error) {
	if !fn.IsValid() || fn.Kind() != reflect.Func || fn.IsNil() {
		return hook{}, errors.New(ErrCodeInvalidHookSignature,
			fmt.Sprintf("hook %s is not a function", name)).
			WithContext("hook", name)
	}

	ft := fn.Type()
	switch {
	case ft.NumIn() != 0:
		return hook{}, errors.New(ErrCodeInvalidHookSignature,
			fmt.Sprintf("hook %s must take no arguments, has %d", name, ft.NumIn())).
			WithContext("hook", name)
	case ft.NumOut() > 1, ft.NumOut() == 1 && ft.Out(0) != errorType:
		return hook{}, errors.New(ErrCodeInvalidHookSignature,
			fmt.Sprintf("hook %s must return nothing or error, has %s", name, ft)).
			WithContext("hook", name)
	}
	return hook{name: name, fn: fn}, nil
}

// call invokes the hook. Returned errors and panics both become
// ErrCodePostConstruct errors.
func (h hook) call() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(ErrCodePostConstruct,
				fmt.Sprintf("hook %s panicked: %v", h.name, r)).
				WithContext("hook", h.name)
		}
	}()

	out := h.fn.Call(nil)
	if len(out) == 1 && !out[0].IsNil() {
		cause := out[0].Interface().(error)
		return errors.Wrap(cause, ErrCodePostConstruct,
			fmt.Sprintf("hook %s failed: %v", h.name, cause)).
			WithContext("hook", h.name)
	}
	return nil
}

// runHooks calls instance hooks first, then class hooks, each group in
// registration order. The first failure stops the run.
func runHooks(logger *zap.Logger, instances, classes [][]hook) error {
	for _, group := range [][][]hook{instances, classes} {
		for _, hooks := range group {
			for _, h := range hooks {
				logger.Debug("running post-construct hook", zap.String("hook", h.name))
				if err := h.call(); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
