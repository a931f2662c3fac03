// Package redis resolves secret:redis:<key> references from Redis.
//
// USAGE:
//
//	resolver := vexil.NewReferenceResolver(nil)
//	provider, err := redis.New("redis://:password@localhost:6379/0")
//	if err != nil {
//		return err
//	}
//	defer provider.Close()
//	if err := resolver.Register(provider); err != nil {
//		return err
//	}
//
//	flags := vexil.New(vexil.Config{SecretResolvers: []vexil.SecretResolver{resolver}})
//
// With that in place --db-password=secret:redis:prod:db:password binds the
// string stored at key "prod:db:password".
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package redis

import (
	"context"
	goerrors "errors"
	"fmt"

	"github.com/agilira/go-errors"
	"github.com/agilira/vexil"
	goredis "github.com/redis/go-redis/v9"
)

// Scheme is the reference scheme handled by Provider.
const Scheme = "redis"

// Getter is the subset of the go-redis client used by Provider.
type Getter interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
}

// Provider implements vexil.SecretProvider for Redis string keys.
type Provider struct {
	client Getter
	prefix string
}

// Option configures a Provider.
type Option func(*Provider)

// WithKeyPrefix prepends prefix to every referenced key.
func WithKeyPrefix(prefix string) Option {
	return func(p *Provider) { p.prefix = prefix }
}

// New connects to the Redis server described by url, in the form
// redis://[user:password@]host:port/db.
func New(url string, opts ...Option) (*Provider, error) {
	options, err := goredis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, vexil.ErrCodeInvalidArgument,
			fmt.Sprintf("invalid redis URL: %v", err))
	}
	return NewWithClient(goredis.NewClient(options), opts...), nil
}

// NewWithClient uses an existing client.
func NewWithClient(client Getter, opts ...Option) *Provider {
	p := &Provider{client: client}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Scheme returns "redis".
func (p *Provider) Scheme() string { return Scheme }

// Fetch returns the string stored at key.
func (p *Provider) Fetch(ctx context.Context, key string) (string, error) {
	val, err := p.client.Get(ctx, p.prefix+key).Result()
	if err != nil {
		if goerrors.Is(err, goredis.Nil) {
			return "", fmt.Errorf("redis key %s: %w", p.prefix+key, vexil.ErrSecretNotFound)
		}
		return "", err
	}
	return val, nil
}

// Close closes the underlying client when it supports closing.
func (p *Provider) Close() error {
	if c, ok := p.client.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
