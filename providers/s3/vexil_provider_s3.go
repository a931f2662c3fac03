// Package s3 resolves secret:s3:<ref> references from S3 objects.
//
// References name an object key in the provider's bucket. A provider built
// without a bucket expects <bucket>/<key> instead.
//
//	provider, err := s3.New(ctx, "acme-secrets")
//	if err != nil {
//		return err
//	}
//	if err := resolver.Register(provider); err != nil {
//		return err
//	}
//
//	// --tls-key=secret:s3:prod/tls.key
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package s3

import (
	"context"
	goerrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/agilira/go-errors"
	"github.com/agilira/vexil"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Scheme is the reference scheme handled by Provider.
const Scheme = "s3"

// MaxSecretSize caps the bytes read from one object.
const MaxSecretSize = 1 << 20

// ObjectGetter is the subset of the S3 client used by Provider.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
}

// Provider implements vexil.SecretProvider for S3 objects.
type Provider struct {
	client ObjectGetter
	bucket string
}

// New loads the default AWS configuration (environment, shared files,
// instance role) and creates a provider for bucket.
func New(ctx context.Context, bucket string, optFns ...func(*config.LoadOptions) error) (*Provider, error) {
	cfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, errors.Wrap(err, vexil.ErrCodeInvalidArgument,
			fmt.Sprintf("cannot load AWS configuration: %v", err))
	}
	return NewWithClient(awss3.NewFromConfig(cfg), bucket), nil
}

// NewWithClient uses an existing client.
func NewWithClient(client ObjectGetter, bucket string) *Provider {
	return &Provider{client: client, bucket: bucket}
}

// Scheme returns "s3".
func (p *Provider) Scheme() string { return Scheme }

// Fetch returns the object content without its trailing line break.
func (p *Provider) Fetch(ctx context.Context, ref string) (string, error) {
	bucket, key, err := p.locate(ref)
	if err != nil {
		return "", err
	}

	out, err := p.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		var notFound *types.NotFound
		if goerrors.As(err, &nsk) || goerrors.As(err, &notFound) {
			return "", fmt.Errorf("s3 object %s/%s: %w", bucket, key, vexil.ErrSecretNotFound)
		}
		return "", err
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(out.Body, MaxSecretSize+1))
	if err != nil {
		return "", err
	}
	if len(data) > MaxSecretSize {
		return "", fmt.Errorf("s3 object %s/%s exceeds %d bytes", bucket, key, MaxSecretSize)
	}

	s := strings.TrimSuffix(string(data), "\n")
	return strings.TrimSuffix(s, "\r"), nil
}

func (p *Provider) locate(ref string) (string, string, error) {
	if p.bucket != "" {
		return p.bucket, strings.TrimPrefix(ref, "/"), nil
	}
	bucket, key, ok := strings.Cut(ref, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", errors.New(vexil.ErrCodeSecretResolution,
			fmt.Sprintf("s3 reference %q must be <bucket>/<key>", ref))
	}
	return bucket, key, nil
}
