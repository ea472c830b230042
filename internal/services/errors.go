package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"

	"github.com/minio/minio-go/v7"
)

// Kind classifies failures by what the user can do about them
type Kind int

const (
	// KindNetwork is a transient transport failure, retried by refreshing
	KindNetwork Kind = iota
	// KindAuth means the credentials were rejected; the open container is unusable
	KindAuth
	// KindNotFound means the container or key vanished between listing and access
	KindNotFound
	// KindTimeout means a listing or metadata call exceeded its bounded wait
	KindTimeout
	// KindLocalIO means the destination could not be created or written
	KindLocalIO
	// KindPartialBatch means some files of a batch failed
	KindPartialBatch
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth failure"
	case KindNotFound:
		return "not found"
	case KindTimeout:
		return "timeout"
	case KindLocalIO:
		return "local i/o failure"
	case KindPartialBatch:
		return "partial failure"
	default:
		return "network failure"
	}
}

// Error is a classified storage or filesystem failure
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap classifies err and attaches the operation name. Nil stays nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return &Error{Kind: classified.Kind, Op: op, Err: err}
	}
	return &Error{Kind: classify(err), Op: op, Err: err}
}

type kinder interface {
	Kind() Kind
}

// KindOf returns the Kind of err, classifying unwrapped errors on the fly
func KindOf(err error) Kind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	var k kinder
	if errors.As(err, &k) {
		return k.Kind()
	}
	return classify(err)
}

func classify(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) || errors.Is(err, fs.ErrPermission) || errors.Is(err, fs.ErrExist) {
		return KindLocalIO
	}

	var resp minio.ErrorResponse
	if !errors.As(err, &resp) {
		return KindNetwork
	}
	switch resp.Code {
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch",
		"ExpiredToken", "InvalidToken", "AccountProblem", "InvalidSecurity":
		return KindAuth
	case "NoSuchBucket", "NoSuchKey", "NotFound", "NoSuchVersion":
		return KindNotFound
	case "RequestTimeout":
		return KindTimeout
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return KindTimeout
	}
	return KindNetwork
}
