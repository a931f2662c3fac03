// config_test.go: Tests for engine configuration and error helpers
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package vexil

import (
	"context"
	"fmt"
	"testing"

	"github.com/agilira/go-errors"
)

func TestConfigWithDefaults(t *testing.T) {
	resolvers := []SecretResolver{SecretResolverFunc(func(_ context.Context, a []string) ([]string, error) {
		return a, nil
	})}
	original := Config{SecretResolvers: resolvers}

	cfg := original.WithDefaults()
	if cfg.Version != DefaultVersion {
		t.Errorf("Version = %q, want %q", cfg.Version, DefaultVersion)
	}
	if cfg.Logger == nil {
		t.Error("Logger should default to a no-op logger")
	}
	if original.Logger != nil || original.Version != "" {
		t.Error("WithDefaults modified the receiver")
	}

	resolvers[0] = nil
	if cfg.SecretResolvers[0] == nil {
		t.Error("SecretResolvers should be copied")
	}
}

func TestErrorHelpers(t *testing.T) {
	coded := errors.New(ErrCodeUnknownFlag, "unrecognized option: --x")
	if ErrorCode(coded) != ErrCodeUnknownFlag {
		t.Errorf("ErrorCode = %q", ErrorCode(coded))
	}
	if !HasCode(coded, ErrCodeUnknownFlag) || HasCode(coded, ErrCodeAudit) {
		t.Error("HasCode mismatch")
	}
	if !IsUserError(coded) {
		t.Error("unknown flags are user errors")
	}

	plain := fmt.Errorf("plain")
	if ErrorCode(plain) != "" || HasCode(plain, ErrCodeUnknownFlag) || IsUserError(plain) {
		t.Error("plain errors carry no code")
	}
	if ErrorCode(nil) != "" {
		t.Error("nil has no code")
	}

	if IsUserError(errors.New(ErrCodeDuplicateFlag, "dup")) {
		t.Error("registration errors are not user errors")
	}
}
