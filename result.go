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
	"time"
)

// Outcome of a single attempt
type Outcome string

const (
	OutcomeSuccess        Outcome = "success"
	OutcomeHTTPError      Outcome = "http-error"
	OutcomeTransportError Outcome = "transport-error"
	OutcomeFileMissing    Outcome = "file-missing"
)

// Kind of request
type Kind string

const (
	KindGet  Kind = "GET"
	KindPost Kind = "POST"
)

// AttemptResult outcome and timings of one request, used only for reporting
type AttemptResult struct {
	Kind       Kind
	Worker     int
	Workers    int
	Iteration  int
	Attempt    int
	Outcome    Outcome
	StatusCode int
	// Error message, empty on success
	Error      string
	Begin, End time.Time
	Elapsed    time.Duration
	// BytesOut request body size
	BytesOut int64
}

func (a AttemptResult) Success() bool {
	return a.Outcome == OutcomeSuccess
}

func (a AttemptResult) String() string {
	s := fmt.Sprintf(
		"worker %d/%d iteration %d %s attempt %d: %s",
		a.Worker,
		a.Workers,
		a.Iteration+1,
		a.Kind,
		a.Attempt,
		a.Outcome,
	)
	switch a.Outcome {
	case OutcomeHTTPError:
		s += fmt.Sprintf(" [%d]", a.StatusCode)
	case OutcomeTransportError, OutcomeFileMissing:
		s += fmt.Sprintf(" [%s]", a.Error)
	}
	return s + fmt.Sprintf(", elapsed: %.2fs", a.Elapsed.Seconds())
}

// classify maps a request error to an outcome
func classify(err error) (Outcome, string) {
	if err == nil {
		return OutcomeSuccess, ""
	}
	var se *HTTPStatusError
	switch {
	case errors.Is(err, ErrFileMissing):
		return OutcomeFileMissing, err.Error()
	case errors.As(err, &se):
		return OutcomeHTTPError, err.Error()
	default:
		return OutcomeTransportError, err.Error()
	}
}
