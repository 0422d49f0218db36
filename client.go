/*
 * // Copyright 2020 Insolar Network Ltd.
 * // All rights reserved.
 * // This material is licensed under the Insolar License version 1.0,
 * // available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.
 */

package uploadbot

import (
	"context"
)

// Response status and body of a completed request
type Response struct {
	StatusCode int
	Body       []byte
}

// Client sends requests to a target, any returned error is a *TransportError
type Client interface {
	Get(ctx context.Context, url string) (Response, error)
	Post(ctx context.Context, url string, contentType string, body []byte) (Response, error)
}

// ClientFactory creates client for a config, called once per runner
type ClientFactory func(cfg *RunConfig) Client
