// Package s3 archives rendered briefings to an S3 bucket
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Config locates the bucket; empty keys fall back to the default AWS chain
type Config struct {
	Region    string
	Bucket    string
	Prefix    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

type putter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archive writes objects under a key prefix
type Archive struct {
	client putter
	bucket string
	prefix string
	now    func() time.Time
	newID  func() uuid.UUID
}

// New loads AWS config and builds the client
func New(ctx context.Context, cfg Config) (*Archive, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3: empty bucket")
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newArchive(client, cfg), nil
}

func newArchive(c putter, cfg Config) *Archive {
	return &Archive{
		client: c,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		now:    time.Now,
		newID:  uuid.New,
	}
}

// Key builds the object key for a briefing on matterID
func (a *Archive) Key(matterID string) string {
	t := a.now().UTC()
	return path.Join(a.prefix, "briefings", matterID, t.Format("2006/01/02"), a.newID().String()+".md")
}

// Put stores body for matterID and returns the object key
func (a *Archive) Put(ctx context.Context, matterID string, body []byte, meta map[string]string) (string, error) {
	key := a.Key(matterID)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("text/markdown; charset=utf-8"),
		Metadata:    meta,
	})
	if err != nil {
		return "", fmt.Errorf("s3: put %s: %w", key, err)
	}
	return key, nil
}
