package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrymomot/mailkit/pkg/cache"
	"github.com/dmitrymomot/mailkit/pkg/logger"
	"github.com/dmitrymomot/mailkit/pkg/resource"
)

// Object is the cacheable form of a downloaded object.
type Object struct {
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// Resource converts the object into a resource named after the key's base name.
func (o Object) Resource() resource.Resource {
	return resource.New(path.Base(o.Key), o.ContentType, o.Data)
}

// Option configures an S3Source.
type Option func(*S3Source)

// WithCache caches downloaded objects by key.
func WithCache(c cache.Cache[Object]) Option {
	return func(s *S3Source) {
		if c != nil {
			s.cache = cache.NewLoader(c)
		}
	}
}

// WithLogger sets the logger. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(s *S3Source) {
		if l != nil {
			s.logger = l
		}
	}
}

// S3Source reads template resources from one bucket.
type S3Source struct {
	client ObjectGetter
	cache  *cache.Loader[Object]
	logger *slog.Logger
	cfg    Config
}

// NewS3Source creates a source reading from cfg.Bucket through client.
func NewS3Source(client ObjectGetter, cfg Config, opts ...Option) *S3Source {
	cfg.applyDefaults()
	s := &S3Source{
		client: client,
		cfg:    cfg,
		logger: logger.NewNope(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open implements resource.Source.
func (s *S3Source) Open(ctx context.Context, key string) (resource.Resource, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return resource.Resource{}, fmt.Errorf("%w: empty key", ErrNotFound)
	}

	if s.cache == nil {
		obj, err := s.fetch(ctx, key)
		if err != nil {
			return resource.Resource{}, err
		}
		return obj.Resource(), nil
	}

	obj, err := s.cache.GetOrSet(ctx, key, func(ctx context.Context) (Object, time.Duration, error) {
		obj, err := s.fetch(ctx, key)
		return obj, s.cfg.CacheTTL, err
	})
	if err != nil {
		return resource.Resource{}, err
	}
	return obj.Resource(), nil
}

func (s *S3Source) fetch(ctx context.Context, key string) (Object, error) {
	full := s.cfg.Prefix + key

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(full),
	})
	if err != nil {
		return Object{}, wrapS3Error(err)
	}
	defer out.Body.Close()

	if n := aws.ToInt64(out.ContentLength); n > s.cfg.MaxObjectSize {
		return Object{}, fmt.Errorf("%w: %s is %d bytes", ErrObjectTooLarge, full, n)
	}

	data, err := io.ReadAll(io.LimitReader(out.Body, s.cfg.MaxObjectSize+1))
	if err != nil {
		return Object{}, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	if int64(len(data)) > s.cfg.MaxObjectSize {
		return Object{}, fmt.Errorf("%w: %s", ErrObjectTooLarge, full)
	}

	contentType := aws.ToString(out.ContentType)
	if contentType == "" || contentType == resource.MediaTypeOctetStream {
		contentType = resource.DetectMediaType(key, data)
	}

	s.logger.DebugContext(ctx, "template asset downloaded",
		slog.String("bucket", s.cfg.Bucket),
		slog.String("key", full),
		slog.Int("size", len(data)),
	)

	return Object{Key: key, ContentType: contentType, Data: data}, nil
}

var _ resource.Source = (*S3Source)(nil)
