/*
 * // Copyright 2020 Insolar Network Ltd.
 * // All rights reserved.
 * // This material is licensed under the Insolar License version 1.0,
 * // available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.
 */

package uploadbot

import (
	"errors"
	"fmt"
)

var (
	ErrFileMissing    = errors.New("upload file missing")
	errMissingJSONKey = "response has no %q key"
	errUnitPanic      = "unit of work panicked: %v"
	errUnknownClient  = "unknown client: %s"
	errNoPayload      = errors.New("please provide upload payload")
)

// TransportError request never got a response: connection refused, dns, timeout
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPStatusError response was received but status is not 200
type HTTPStatusError struct {
	StatusCode int
	Reason     string
}

func (e *HTTPStatusError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("http status %d: %s", e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("http status %d", e.StatusCode)
}

// FileMissingError upload file could not be read at attempt time
type FileMissingError struct {
	Path string
	Err  error
}

func (e *FileMissingError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrFileMissing, e.Path, e.Err)
}

func (e *FileMissingError) Unwrap() error {
	return e.Err
}

func (e *FileMissingError) Is(target error) bool {
	return target == ErrFileMissing
}

// Retryable transport errors and missing files are retried, status errors are not
func Retryable(err error) bool {
	var te *TransportError
	return errors.As(err, &te) || errors.Is(err, ErrFileMissing)
}
