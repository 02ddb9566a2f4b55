package storage

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"syscall"

	"github.com/minio/minio-go/v7"

	"darkwave/pkg/store"
)

// Classify maps an object store error to the same classes the table store uses.
func Classify(err error) store.ErrorClass {
	if err == nil {
		return store.ClassNone
	}
	switch {
	case errors.Is(err, ErrUnavailable), errors.Is(err, context.DeadlineExceeded), errors.Is(err, syscall.ECONNREFUSED):
		return store.ClassUnreachable
	case errors.Is(err, ErrBucketMissing):
		return store.ClassMissing
	case errors.Is(err, fs.ErrPermission):
		return store.ClassPermission
	case errors.Is(err, fs.ErrNotExist):
		return store.ClassNotFound
	}
	var resp minio.ErrorResponse
	if errors.As(err, &resp) && resp.Code != "" {
		switch resp.Code {
		case "NoSuchBucket":
			return store.ClassMissing
		case "NoSuchKey":
			return store.ClassNotFound
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return store.ClassPermission
		}
		return store.ClassOther
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return store.ClassUnreachable
	}
	return store.ClassOther
}
