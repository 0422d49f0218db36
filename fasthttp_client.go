/*
 * // Copyright 2020 Insolar Network Ltd.
 * // All rights reserved.
 * // This material is licensed under the Insolar License version 1.0,
 * // available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.
 */

package uploadbot

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
)

type FastHTTPClient struct {
	dump    bool
	timeout time.Duration
	fasthttp.Client
}

// NewLoggingFastHTTPClient creates new client with debug http
func NewLoggingFastHTTPClient(debug bool, timeout time.Duration) *FastHTTPClient {
	return &FastHTTPClient{
		debug,
		timeout,
		fasthttp.Client{
			MaxConnsPerHost:     65535,
			MaxIdleConnDuration: 90 * time.Second,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			// retries are decided by the runner
			MaxIdemponentCallAttempts: 1,
		},
	}
}

func (m *FastHTTPClient) Get(ctx context.Context, url string) (Response, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	return m.do(ctx, req)
}

func (m *FastHTTPClient) Post(ctx context.Context, url string, contentType string, body []byte) (Response, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType(contentType)
	req.SetBody(body)
	return m.do(ctx, req)
}

func (m *FastHTTPClient) do(ctx context.Context, req *fasthttp.Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, &TransportError{Err: err}
	}
	timeout := m.timeout
	if dl, ok := ctx.Deadline(); ok {
		if untilDeadline := time.Until(dl); timeout == 0 || untilDeadline < timeout {
			timeout = untilDeadline
		}
	}
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)
	if m.dump {
		log.Printf(RequestHeader, req.Header.String())
	}
	var err error
	if timeout > 0 {
		err = m.Client.DoTimeout(req, resp, timeout)
	} else {
		err = m.Client.Do(req, resp)
	}
	if err != nil {
		return Response{}, &TransportError{Err: err}
	}
	if m.dump {
		log.Printf(ResponseHeader, resp.String())
	}
	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return Response{StatusCode: resp.StatusCode(), Body: body}, nil
}
