package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrResourceNotFound  = errors.New("resource not found")
	ErrTemplateNotFound  = errors.New("template not found")
	ErrGenerationTimeout = errors.New("ai generation timed out")
)

// NetworkError is a transport failure: the request never produced an HTTP
// response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// HTTPError is a non-2xx response. Its message is the response body.
type HTTPError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if body := strings.TrimSpace(e.Body); body != "" {
		return body
	}
	return fmt.Sprintf("status %d", e.StatusCode)
}

type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: decode payload: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
