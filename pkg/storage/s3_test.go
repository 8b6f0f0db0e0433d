package storage_test

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailkit/pkg/cache"
	"github.com/dmitrymomot/mailkit/pkg/resource"
	"github.com/dmitrymomot/mailkit/pkg/storage"
)

type fakeObject struct {
	contentType string
	data        []byte
}

type fakeS3 struct {
	objects map[string]fakeObject
	err     error
	keys    []string
	mu      sync.Mutex
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := aws.ToString(in.Key)
	f.keys = append(f.keys, key)
	if f.err != nil {
		return nil, f.err
	}
	obj, ok := f.objects[key]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("missing")}
	}
	out := &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(obj.data)),
		ContentLength: aws.Int64(int64(len(obj.data))),
	}
	if obj.contentType != "" {
		out.ContentType = aws.String(obj.contentType)
	}
	return out, nil
}

func (f *fakeS3) requested() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.keys...)
}

func testConfig() storage.Config {
	return storage.Config{Bucket: "assets", AccessKey: "ak", SecretKey: "sk", Prefix: "mail/"}
}

func TestS3Source_Open(t *testing.T) {
	t.Parallel()

	client := &fakeS3{objects: map[string]fakeObject{
		"mail/brand/logo.png": {contentType: "image/png", data: []byte("png")},
		"mail/terms.txt":      {data: []byte("terms")},
	}}
	src := storage.NewS3Source(client, testConfig())

	res, err := src.Open(context.Background(), "brand/logo.png")
	require.NoError(t, err)
	require.Equal(t, "logo.png", res.Name())
	require.Equal(t, "image/png", res.MediaType())
	require.Equal(t, "png", res.String())

	res, err = src.Open(context.Background(), "/terms.txt")
	require.NoError(t, err)
	require.Equal(t, "text/plain; charset=utf-8", res.MediaType())

	require.Equal(t, []string{"mail/brand/logo.png", "mail/terms.txt"}, client.requested())
}

func TestS3Source_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		key     string
		wantErr error
	}{
		{name: "typed not found", key: "missing.png", wantErr: storage.ErrNotFound},
		{
			name:    "api not found",
			key:     "x",
			err:     &smithy.GenericAPIError{Code: "NotFound"},
			wantErr: resource.ErrNotFound,
		},
		{
			name:    "access denied",
			key:     "x",
			err:     &smithy.GenericAPIError{Code: "AccessDenied"},
			wantErr: storage.ErrAccessDenied,
		},
		{
			name:    "other",
			key:     "x",
			err:     &smithy.GenericAPIError{Code: "SlowDown"},
			wantErr: storage.ErrDownloadFailed,
		},
		{name: "empty key", key: "", wantErr: storage.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := storage.NewS3Source(&fakeS3{err: tt.err}, testConfig())
			_, err := src.Open(context.Background(), tt.key)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestS3Source_SizeLimit(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.MaxObjectSize = 4
	client := &fakeS3{objects: map[string]fakeObject{"mail/big.bin": {data: []byte("too large")}}}

	_, err := storage.NewS3Source(client, cfg).Open(context.Background(), "big.bin")
	require.ErrorIs(t, err, storage.ErrObjectTooLarge)
}

func TestS3Source_Cache(t *testing.T) {
	t.Parallel()

	client := &fakeS3{objects: map[string]fakeObject{
		"mail/logo.png": {contentType: "image/png", data: []byte("png")},
	}}
	objects := cache.NewMemory[storage.Object]()
	src := storage.NewS3Source(client, testConfig(), storage.WithCache(objects))

	for range 3 {
		res, err := src.Open(context.Background(), "logo.png")
		require.NoError(t, err)
		require.Equal(t, "png", res.String())
	}
	require.Len(t, client.requested(), 1)

	obj, err := objects.Get(context.Background(), "logo.png")
	require.NoError(t, err)
	require.Equal(t, "image/png", obj.ContentType)

	// misses are not cached
	_, err = src.Open(context.Background(), "missing.png")
	require.ErrorIs(t, err, storage.ErrNotFound)
	_, err = src.Open(context.Background(), "missing.png")
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.Len(t, client.requested(), 3)
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	client, err := storage.NewClient(storage.Config{
		Bucket:    "assets",
		AccessKey: "ak",
		SecretKey: "sk",
		Endpoint:  "http://localhost:9000",
		PathStyle: true,
	})
	require.NoError(t, err)
	require.NotNil(t, client)

	_, err = storage.NewClient(storage.Config{Bucket: "assets"})
	require.ErrorIs(t, err, storage.ErrInvalidConfig)

	_, err = storage.NewClient(storage.Config{})
	require.ErrorIs(t, err, storage.ErrInvalidConfig)
}
