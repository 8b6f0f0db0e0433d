package storage

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/dmitrymomot/mailkit/pkg/resource"
)

var (
	ErrInvalidConfig = errors.New("storage: invalid configuration")

	ErrNotFound       = fmt.Errorf("storage: object not found: %w", resource.ErrNotFound)
	ErrAccessDenied   = errors.New("storage: access denied")
	ErrDownloadFailed = errors.New("storage: download failed")
	ErrObjectTooLarge = errors.New("storage: object exceeds size limit")
)

// wrapS3Error maps S3 failures to the package sentinels. The AWS error is
// formatted with %v so callers match on sentinels only.
func wrapS3Error(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case "AccessDenied", "Forbidden":
			return fmt.Errorf("%w: %v", ErrAccessDenied, err)
		}
	}

	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
}
