// secrets.go: Secret resolution pipeline
//
// Resolvers rewrite the argument list before it is tokenized for binding.
// They run in configuration order and each one receives a copy of the list
// produced by the previous one.
//
// ReferenceResolver is the built-in resolver: it replaces references of
// the form secret:<scheme>:<ref>, either as a whole token or as the value
// of --name=value, with the value fetched from the provider registered for
// <scheme>.
//
//	--db-password=secret:env:DB_PASSWORD
//	--api-token secret:file:/run/secrets/api-token
//	--signing-key=secret:redis:keys/signing
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package vexil

import (
	"context"
	goerrors "errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/agilira/go-errors"
	"golang.org/x/time/rate"
)

// SecretPrefix starts every secret reference.
const SecretPrefix = "secret:"

// ErrSecretNotFound is returned by providers when a reference does not
// exist. It is not retried.
var ErrSecretNotFound = goerrors.New("secret not found")

// SecretResolver rewrites the argument list, typically replacing secret
// references with their values.
type SecretResolver interface {
	Resolve(ctx context.Context, args []string) ([]string, error)
}

// SecretResolverFunc adapts a function to SecretResolver.
type SecretResolverFunc func(ctx context.Context, args []string) ([]string, error)

// Resolve calls f.
func (f SecretResolverFunc) Resolve(ctx context.Context, args []string) ([]string, error) {
	return f(ctx, args)
}

// resolveSecrets runs every resolver in order.
func resolveSecrets(ctx context.Context, resolvers []SecretResolver, args []string) ([]string, error) {
	current := args
	for i, r := range resolvers {
		in := make([]string, len(current))
		copy(in, current)

		out, err := r.Resolve(ctx, in)
		if err != nil {
			return nil, errors.Wrap(err, ErrCodeSecretResolution,
				fmt.Sprintf("secret resolver %d failed: %v", i, err)).
				WithContext("resolver", i)
		}
		current = out
	}
	return current, nil
}

// SecretProvider fetches secrets for one reference scheme.
type SecretProvider interface {
	// Scheme is the <scheme> part of secret:<scheme>:<ref>.
	Scheme() string

	// Fetch returns the secret named by ref.
	Fetch(ctx context.Context, ref string) (string, error)
}

// ReferenceResolverOptions controls provider calls.
type ReferenceResolverOptions struct {
	// Timeout bounds each reference, retries included.
	Timeout time.Duration

	// RetryAttempts after the first failed fetch.
	RetryAttempts int

	// RetryDelay between attempts.
	RetryDelay time.Duration

	// FetchRate limits provider calls per second, retries included. Zero
	// disables the limit.
	FetchRate float64

	// FetchBurst is the number of calls allowed at once when FetchRate is
	// set. Values below 1 mean 1.
	FetchBurst int
}

// DefaultReferenceResolverOptions returns a 30 second timeout with three
// retries one second apart.
func DefaultReferenceResolverOptions() *ReferenceResolverOptions {
	return &ReferenceResolverOptions{
		Timeout:       30 * time.Second,
		RetryAttempts: 3,
		RetryDelay:    1 * time.Second,
	}
}

// ReferenceResolver resolves secret:<scheme>:<ref> references through
// registered providers. The env and file providers are registered by
// NewReferenceResolver.
type ReferenceResolver struct {
	providers []SecretProvider
	options   *ReferenceResolverOptions
	limiter   *rate.Limiter
}

// NewReferenceResolver creates a resolver with the built-in providers. A
// nil opts uses DefaultReferenceResolverOptions.
func NewReferenceResolver(opts *ReferenceResolverOptions) *ReferenceResolver {
	if opts == nil {
		opts = DefaultReferenceResolverOptions()
	}
	r := &ReferenceResolver{options: opts}
	if opts.FetchRate > 0 {
		burst := opts.FetchBurst
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(opts.FetchRate), burst)
	}
	r.providers = append(r.providers, EnvProvider{}, FileProvider{})
	return r
}

// Register adds a provider. Duplicate schemes are rejected.
func (r *ReferenceResolver) Register(p SecretProvider) error {
	if p == nil {
		return errors.New(ErrCodeInvalidArgument, "secret provider cannot be nil")
	}
	scheme := p.Scheme()
	if scheme == "" {
		return errors.New(ErrCodeInvalidArgument, "secret provider scheme cannot be empty")
	}
	for _, existing := range r.providers {
		if existing.Scheme() == scheme {
			return errors.New(ErrCodeInvalidArgument,
				fmt.Sprintf("secret provider for scheme '%s' already registered", scheme))
		}
	}
	r.providers = append(r.providers, p)
	return nil
}

// Provider returns the provider registered for scheme.
func (r *ReferenceResolver) Provider(scheme string) (SecretProvider, error) {
	for _, p := range r.providers {
		if p.Scheme() == scheme {
			return p, nil
		}
	}
	return nil, errors.New(ErrCodeSecretResolution,
		fmt.Sprintf("no secret provider registered for scheme '%s'", scheme))
}

// Schemes lists the registered schemes in registration order.
func (r *ReferenceResolver) Schemes() []string {
	out := make([]string, len(r.providers))
	for i, p := range r.providers {
		out[i] = p.Scheme()
	}
	return out
}

// Resolve implements SecretResolver. Tokens after a lone "--" are left
// alone.
func (r *ReferenceResolver) Resolve(ctx context.Context, args []string) ([]string, error) {
	for i, arg := range args {
		if arg == "--" {
			break
		}

		if strings.HasPrefix(arg, SecretPrefix) {
			v, err := r.lookup(ctx, arg)
			if err != nil {
				return nil, err
			}
			args[i] = v
			continue
		}

		if name, value, ok := strings.Cut(arg, "="); ok &&
			strings.HasPrefix(name, "--") && strings.HasPrefix(value, SecretPrefix) {
			v, err := r.lookup(ctx, value)
			if err != nil {
				return nil, err
			}
			args[i] = name + "=" + v
		}
	}
	return args, nil
}

// lookup resolves one secret:<scheme>:<ref> reference.
func (r *ReferenceResolver) lookup(ctx context.Context, reference string) (string, error) {
	scheme, ref, ok := strings.Cut(strings.TrimPrefix(reference, SecretPrefix), ":")
	if !ok || scheme == "" || ref == "" {
		return "", errors.New(ErrCodeSecretResolution,
			fmt.Sprintf("malformed secret reference %q, expected secret:<scheme>:<ref>", reference))
	}

	p, err := r.Provider(scheme)
	if err != nil {
		return "", err
	}
	return fetchWithRetries(ctx, p, ref, r.options, r.limiter)
}

func fetchWithRetries(ctx context.Context, p SecretProvider, ref string, opts *ReferenceResolverOptions, limiter *rate.Limiter) (string, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	var lastErr error
	for attempt := 0; attempt <= opts.RetryAttempts; attempt++ {
		if attempt > 0 {
			if err := waitForRetry(ctx, opts.RetryDelay); err != nil {
				return "", err
			}
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return "", errors.Wrap(err, ErrCodeSecretResolution,
					fmt.Sprintf("secret fetch for %s:%s throttled: %v", p.Scheme(), ref, err))
			}
		}

		value, err := p.Fetch(ctx, ref)
		if err == nil {
			return value, nil
		}
		lastErr = err
		if shouldStopRetrying(err) {
			break
		}
	}

	return "", errors.Wrap(lastErr, ErrCodeSecretResolution,
		fmt.Sprintf("cannot resolve secret %s:%s: %v", p.Scheme(), ref, lastErr)).
		WithContext("scheme", p.Scheme())
}

func waitForRetry(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), ErrCodeSecretResolution,
			fmt.Sprintf("canceled while waiting to retry: %v", ctx.Err()))
	}
}

func shouldStopRetrying(err error) bool {
	return goerrors.Is(err, ErrSecretNotFound) || HasCode(err, ErrCodeSecretResolution) ||
		goerrors.Is(err, context.Canceled) ||
		goerrors.Is(err, context.DeadlineExceeded)
}

// EnvProvider resolves secret:env:<NAME> from the process environment.
type EnvProvider struct {
	// Lookup replaces os.LookupEnv when set.
	Lookup func(string) (string, bool)
}

// Scheme returns "env".
func (EnvProvider) Scheme() string { return "env" }

// Fetch returns the variable's value.
func (p EnvProvider) Fetch(_ context.Context, name string) (string, error) {
	lookup := p.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	v, ok := lookup(name)
	if !ok {
		return "", fmt.Errorf("environment variable %s: %w", name, ErrSecretNotFound)
	}
	return v, nil
}

// FileProvider resolves secret:file:<path> to the file's content without
// its trailing line break.
type FileProvider struct{}

// Scheme returns "file".
func (FileProvider) Scheme() string { return "file" }

// Fetch reads the file at path.
func (FileProvider) Fetch(_ context.Context, path string) (string, error) {
	// #nosec G304 -- the path comes from an explicit secret reference
	data, err := os.ReadFile(path)
	if err != nil {
		if goerrors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("file %s: %w", path, ErrSecretNotFound)
		}
		return "", err
	}
	s := strings.TrimSuffix(string(data), "\n")
	return strings.TrimSuffix(s, "\r"), nil
}
