// Package s3cache stores serialized cache entries as S3 objects, one
// object per storage key under a configurable prefix. S3 offers neither
// CAS tokens nor batched reads, so this backend is plain get/put/delete
// and Update runs under the engine's per-key lock group; concurrent
// processes sharing a bucket can still clobber each other's updates,
// which is the documented limitation for non-CAS remote stores.
package s3cache

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type Cache struct {
	client *s3.Client
	bucket string
	prefix string
}

// New wraps an existing S3 client. prefix is prepended to every object
// key, e.g. "http-cache/".
func New(client *s3.Client, bucket, prefix string) *Cache {
	return &Cache{client: client, bucket: bucket, prefix: prefix}
}

// Open builds a client from the ambient AWS configuration (environment,
// shared config files, instance role).
func Open(ctx context.Context, bucket, prefix string) (*Cache, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return New(s3.NewFromConfig(cfg), bucket, prefix), nil
}

func (c *Cache) objectKey(key string) string {
	return c.prefix + key
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.objectKey(key)),
	})
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer out.Body.Close()
	b, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (c *Cache) Put(ctx context.Context, key string, b []byte) error {
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.objectKey(key)),
		Body:   bytes.NewReader(b),
	})
	return err
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	// S3 deletes are idempotent; deleting a missing object succeeds
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.objectKey(key)),
	})
	return err
}
