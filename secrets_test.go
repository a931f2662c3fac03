// secrets_test.go: Tests for secret resolution
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package vexil

import (
	"context"
	goerrors "errors"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func envLookup(vars map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

// flakyProvider fails until it has been called failures+1 times.
type flakyProvider struct {
	scheme   string
	failures int
	err      error
	calls    int
}

func (p *flakyProvider) Scheme() string { return p.scheme }

func (p *flakyProvider) Fetch(_ context.Context, ref string) (string, error) {
	p.calls++
	if p.calls <= p.failures {
		return "", p.err
	}
	return "value-of-" + ref, nil
}

func fastOptions() *ReferenceResolverOptions {
	return &ReferenceResolverOptions{
		Timeout:       time.Second,
		RetryAttempts: 3,
		RetryDelay:    time.Millisecond,
	}
}

func TestEnvProvider(t *testing.T) {
	p := EnvProvider{Lookup: envLookup(map[string]string{"DB_PASSWORD": "hunter2"})}

	if p.Scheme() != "env" {
		t.Errorf("Scheme() = %s", p.Scheme())
	}
	got, err := p.Fetch(context.Background(), "DB_PASSWORD")
	if err != nil || got != "hunter2" {
		t.Errorf("Fetch = %q, %v", got, err)
	}

	_, err = p.Fetch(context.Background(), "MISSING")
	if !goerrors.Is(err, ErrSecretNotFound) {
		t.Errorf("expected ErrSecretNotFound, got %v", err)
	}
}

func TestFileProvider(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "token", "s3cret\r\n")

	p := FileProvider{}
	if p.Scheme() != "file" {
		t.Errorf("Scheme() = %s", p.Scheme())
	}
	got, err := p.Fetch(context.Background(), path)
	if err != nil || got != "s3cret" {
		t.Errorf("Fetch = %q, %v", got, err)
	}

	_, err = p.Fetch(context.Background(), filepath.Join(dir, "missing"))
	if !goerrors.Is(err, ErrSecretNotFound) {
		t.Errorf("expected ErrSecretNotFound, got %v", err)
	}
}

func TestReferenceResolver_Resolve(t *testing.T) {
	r := NewReferenceResolver(fastOptions())
	if err := r.Register(&flakyProvider{scheme: "vault"}); err != nil {
		t.Fatal(err)
	}

	args := []string{
		"--password=secret:env:PW",
		"--token", "secret:vault:api/token",
		"--name=plain",
		"--", "secret:env:PW",
	}
	// Replace the built-in env provider with one backed by a fixed map.
	r.providers[0] = EnvProvider{Lookup: envLookup(map[string]string{"PW": "pw-value"})}

	got, err := r.Resolve(context.Background(), args)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	want := []string{
		"--password=pw-value",
		"--token", "value-of-api/token",
		"--name=plain",
		"--", "secret:env:PW",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve = %v, want %v", got, want)
	}
}

func TestReferenceResolver_Errors(t *testing.T) {
	r := NewReferenceResolver(fastOptions())

	tests := map[string]string{
		"unknown_scheme": "secret:vault:x",
		"malformed":      "secret:env",
		"empty_ref":      "secret:env:",
		"missing_env":    "secret:env:VEXIL_TEST_SURELY_UNSET_VARIABLE",
	}
	for name, ref := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := r.Resolve(context.Background(), []string{"--x=" + ref})
			assertCode(t, err, ErrCodeSecretResolution)
		})
	}
}

func TestReferenceResolver_Register(t *testing.T) {
	r := NewReferenceResolver(nil)

	assertCode(t, r.Register(nil), ErrCodeInvalidArgument)
	assertCode(t, r.Register(&flakyProvider{scheme: ""}), ErrCodeInvalidArgument)
	assertCode(t, r.Register(EnvProvider{}), ErrCodeInvalidArgument)

	if err := r.Register(&flakyProvider{scheme: "vault"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	want := []string{"env", "file", "vault"}
	if got := r.Schemes(); !reflect.DeepEqual(got, want) {
		t.Errorf("Schemes = %v, want %v", got, want)
	}
	if p, err := r.Provider("vault"); err != nil || p.Scheme() != "vault" {
		t.Errorf("Provider(vault) = %v, %v", p, err)
	}
}

func TestReferenceResolver_Retries(t *testing.T) {
	t.Run("recovers_from_transient_errors", func(t *testing.T) {
		p := &flakyProvider{scheme: "vault", failures: 2, err: fmt.Errorf("connection reset")}
		got, err := fetchWithRetries(context.Background(), p, "k", fastOptions(), nil)
		if err != nil || got != "value-of-k" {
			t.Fatalf("fetchWithRetries = %q, %v", got, err)
		}
		if p.calls != 3 {
			t.Errorf("calls = %d, want 3", p.calls)
		}
	})

	t.Run("gives_up_after_attempts", func(t *testing.T) {
		p := &flakyProvider{scheme: "vault", failures: 100, err: fmt.Errorf("connection reset")}
		_, err := fetchWithRetries(context.Background(), p, "k", fastOptions(), nil)
		assertCode(t, err, ErrCodeSecretResolution)
		if p.calls != 4 {
			t.Errorf("calls = %d, want 4", p.calls)
		}
	})

	t.Run("not_found_is_final", func(t *testing.T) {
		p := &flakyProvider{scheme: "vault", failures: 100, err: ErrSecretNotFound}
		_, err := fetchWithRetries(context.Background(), p, "k", fastOptions(), nil)
		assertCode(t, err, ErrCodeSecretResolution)
		if p.calls != 1 {
			t.Errorf("calls = %d, want 1", p.calls)
		}
	})

	t.Run("canceled_context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		p := &flakyProvider{scheme: "vault", failures: 100, err: fmt.Errorf("connection reset")}
		opts := fastOptions()
		opts.RetryDelay = time.Hour
		_, err := fetchWithRetries(ctx, p, "k", opts, nil)
		assertCode(t, err, ErrCodeSecretResolution)
		if p.calls != 1 {
			t.Errorf("calls = %d, want 1", p.calls)
		}
	})
}

func TestResolveSecrets_ChainsCopies(t *testing.T) {
	var seen [][]string
	rename := SecretResolverFunc(func(_ context.Context, args []string) ([]string, error) {
		seen = append(seen, append([]string(nil), args...))
		args[0] = "--name=first"
		return args, nil
	})
	suffix := SecretResolverFunc(func(_ context.Context, args []string) ([]string, error) {
		seen = append(seen, append([]string(nil), args...))
		return append(args, "extra"), nil
	})

	original := []string{"--name=orig"}
	got, err := resolveSecrets(context.Background(), []SecretResolver{rename, suffix}, original)
	if err != nil {
		t.Fatalf("resolveSecrets failed: %v", err)
	}

	if original[0] != "--name=orig" {
		t.Errorf("caller's slice was modified: %v", original)
	}
	if !reflect.DeepEqual(seen[1], []string{"--name=first"}) {
		t.Errorf("second resolver saw %v", seen[1])
	}
	if !reflect.DeepEqual(got, []string{"--name=first", "extra"}) {
		t.Errorf("result = %v", got)
	}
}

func TestResolveSecrets_WrapsErrors(t *testing.T) {
	failing := SecretResolverFunc(func(context.Context, []string) ([]string, error) {
		return nil, fmt.Errorf("vault sealed")
	})
	_, err := resolveSecrets(context.Background(), []SecretResolver{failing}, nil)
	assertCode(t, err, ErrCodeSecretResolution)
	if !IsUserError(err) {
		t.Error("secret resolution failures are user errors")
	}
}

func TestReferenceResolver_FetchRate(t *testing.T) {
	opts := fastOptions()
	opts.FetchRate = 1
	opts.FetchBurst = 1
	r := NewReferenceResolver(opts)
	if r.limiter == nil {
		t.Fatal("FetchRate should install a limiter")
	}
	p := &flakyProvider{scheme: "vault"}
	if err := r.Register(p); err != nil {
		t.Fatal(err)
	}

	if _, err := r.Resolve(context.Background(), []string{"--a=secret:vault:one"}); err != nil {
		t.Fatalf("first fetch should use the burst: %v", err)
	}

	// The next token is a second away; a 10ms deadline cannot wait for it.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := r.Resolve(ctx, []string{"--b=secret:vault:two"})
	assertCode(t, err, ErrCodeSecretResolution)
	if p.calls != 1 {
		t.Errorf("throttled fetch reached the provider: %d calls", p.calls)
	}

	if NewReferenceResolver(fastOptions()).limiter != nil {
		t.Error("no limiter without FetchRate")
	}
}
