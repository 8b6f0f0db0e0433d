package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	DefaultRegion        = "us-east-1"
	DefaultMaxObjectSize = 10 << 20 // 10MB
	DefaultCacheTTL      = 10 * time.Minute
)

// Config holds the S3 settings for template assets.
type Config struct {
	Bucket    string `env:"S3_BUCKET"`
	AccessKey string `env:"S3_ACCESS_KEY"`
	SecretKey string `env:"S3_SECRET_KEY"`

	// Endpoint is set for MinIO and other S3-compatible services.
	Endpoint string `env:"S3_ENDPOINT"`
	Region   string `env:"S3_REGION" envDefault:"us-east-1"`

	// Prefix is prepended to every key, e.g. "mail-assets/".
	Prefix string `env:"S3_PREFIX"`

	MaxObjectSize int64         `env:"S3_MAX_OBJECT_SIZE" envDefault:"10485760"`
	CacheTTL      time.Duration `env:"S3_CACHE_TTL" envDefault:"10m"`

	// PathStyle is required by MinIO.
	PathStyle bool `env:"S3_PATH_STYLE" envDefault:"false"`
}

func (c *Config) applyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.MaxObjectSize == 0 {
		c.MaxObjectSize = DefaultMaxObjectSize
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = DefaultCacheTTL
	}
}

func (c *Config) validate() error {
	switch {
	case c.Bucket == "":
		return fmt.Errorf("%w: bucket is required", ErrInvalidConfig)
	case c.AccessKey == "" || c.SecretKey == "":
		return fmt.Errorf("%w: access key and secret key are required", ErrInvalidConfig)
	}
	return nil
}

// NewClient builds an S3 client with static credentials from cfg.
func NewClient(cfg Config) (*s3.Client, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	opts := []func(*s3.Options){
		func(o *s3.Options) {
			o.Region = cfg.Region
			o.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		},
	}
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.PathStyle
		})
	}

	return s3.New(s3.Options{}, opts...), nil
}

// ObjectGetter is the part of *s3.Client that S3Source needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var _ ObjectGetter = (*s3.Client)(nil)
