// Package artifacts implements the run output sink (§6): every CSV, JSON
// and PNG a pipeline run produces is written through the Store
// contract, either to local disk or to S3-compatible object storage.
package artifacts

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/andreypavlenko/offertrack/internal/config"
	"github.com/andreypavlenko/offertrack/internal/platform/runerr"
)

// Store writes a named artifact and reports back where it landed. Key is a
// relative path such as "2026-08-01T12-00-00Z/ai_result_summary.json".
type Store interface {
	Put(ctx context.Context, key string, contentType string, data []byte) (location string, err error)
}

// LocalStore writes artifacts under a base directory on disk.
type LocalStore struct {
	BaseDir string
}

// NewLocalStore creates a directory-backed store, creating BaseDir if needed.
func NewLocalStore(baseDir string) (*LocalStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, runerr.New(runerr.KindArtifactWrite, err, "create artifacts dir")
	}
	return &LocalStore{BaseDir: baseDir}, nil
}

func (s *LocalStore) Put(_ context.Context, key string, _ string, data []byte) (string, error) {
	fullPath := filepath.Join(s.BaseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", runerr.New(runerr.KindArtifactWrite, err, "mkdir "+filepath.Dir(fullPath))
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", runerr.New(runerr.KindArtifactWrite, err, "write "+fullPath)
	}
	return fullPath, nil
}

// S3Store writes artifacts to an S3-compatible bucket, adapted from the
// teacher's presigned-URL client into a direct PutObject sink.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Store builds an S3-backed store from config.
func NewS3Store(cfg config.S3Config) (*S3Store, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("S3 configuration is incomplete")
	}

	customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if service == s3.ServiceID {
			return aws.Endpoint{
				URL:               cfg.Endpoint,
				SigningRegion:     cfg.Region,
				HostnameImmutable: true,
			}, nil
		}
		return aws.Endpoint{}, fmt.Errorf("unknown endpoint requested")
	})

	awsConfig := aws.Config{
		Region:                      cfg.Region,
		Credentials:                 credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		EndpointResolverWithOptions: customResolver,
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return &S3Store{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *S3Store) Put(ctx context.Context, key string, contentType string, data []byte) (string, error) {
	fullKey := key
	if s.prefix != "" {
		fullKey = s.prefix + "/" + key
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(fullKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", runerr.New(runerr.KindArtifactWrite, err, "put s3 object "+fullKey)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, fullKey), nil
}
