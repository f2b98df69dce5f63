package minio

import (
	"context"
	"errors"
	"net/http"

	"github.com/koustreak/s3gate/internal/errs"
	minioErr "github.com/minio/minio-go/v7"
)

// mapError translates a minio-go error into a *errs.Error. Missing keys and
// buckets become ErrKindNotFound; every other failure (network, credentials,
// malformed request, throttling) becomes ErrKindGateway with the SDK error
// kept as the cause.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindGateway, msg+": request cancelled", err)
	}

	// minio-go exposes a typed ErrorResponse for S3-protocol errors
	var resp minioErr.ErrorResponse
	if errors.As(err, &resp) {
		switch resp.Code {
		case "NoSuchBucket", "NoSuchKey", "NoSuchUpload", "NotFound":
			return errs.Wrap(errs.ErrKindNotFound, msg, err)
		}
		if resp.StatusCode == http.StatusNotFound {
			return errs.Wrap(errs.ErrKindNotFound, msg, err)
		}
	}

	return errs.Wrap(errs.ErrKindGateway, msg, err)
}
