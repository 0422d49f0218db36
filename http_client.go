/*
 * // Copyright 2020 Insolar Network Ltd.
 * // All rights reserved.
 * // This material is licensed under the Insolar License version 1.0,
 * // available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.
 */

package uploadbot

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"log"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httputil"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// HTTPClient net/http client
type HTTPClient struct {
	*http.Client
}

// NewHTTPClient creates new client, dumps requests and responses if debug is set
func NewHTTPClient(debug bool, timeout time.Duration) *HTTPClient {
	return &HTTPClient{NewLoggingHTTPClient(debug, timeout)}
}

// NewLoggingHTTPClient creates new client with debug http
func NewLoggingHTTPClient(debug bool, timeout time.Duration) *http.Client {
	var transport http.RoundTripper = &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxConnsPerHost:       65535,
		MaxIdleConns:          65535,
		MaxIdleConnsPerHost:   65535,
		IdleConnTimeout:       90 * time.Second,
		DisableCompression:    true,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if debug {
		transport = &DumpTransport{transport}
	}
	cookieJar, _ := cookiejar.New(nil)
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
		Jar:       cookieJar,
	}
}

func (c *HTTPClient) Get(ctx context.Context, url string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{}, &TransportError{Err: err}
	}
	return c.do(req)
}

func (c *HTTPClient) Post(ctx context.Context, url string, contentType string, body []byte) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Response{}, &TransportError{Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	return c.do(req)
}

func (c *HTTPClient) do(req *http.Request) (Response, error) {
	res, err := c.Client.Do(req)
	if err != nil {
		return Response{}, &TransportError{Err: err}
	}
	defer res.Body.Close()
	body, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return Response{}, &TransportError{Err: err}
	}
	return Response{StatusCode: res.StatusCode, Body: body}, nil
}

const (
	RequestHeader      = "========== REQUEST ==========\n%s\n"
	RequestHeaderBody  = "========== REQUEST ==========\n%s\n%s\n"
	ResponseHeaderBody = "========== RESPONSE ==========\n%s\n%s\n"
	ResponseHeader     = "========== RESPONSE ==========\n%s\n"
	HTTPBodyDelimiter  = "\r\n\r\n"
)

// DumpTransport log http request/responses, pprint bodies
type DumpTransport struct {
	r http.RoundTripper
}

func (d *DumpTransport) RoundTrip(h *http.Request) (*http.Response, error) {
	// multipart bodies carry whole images, dump headers only
	dump, _ := httputil.DumpRequestOut(h, !isMultipart(h.Header))
	if bodyIsJson(h.Header) {
		req, pprintBody := prettyPrintJsonBody(dump)
		fmt.Printf(RequestHeaderBody, req, pprintBody)
	} else {
		fmt.Printf(RequestHeader, dump)
	}
	resp, err := d.r.RoundTrip(h)
	if err != nil {
		return nil, err
	}
	dump, _ = httputil.DumpResponse(resp, true)
	if bodyIsJson(resp.Header) {
		respString, pprintBody := prettyPrintJsonBody(dump)
		fmt.Printf(ResponseHeaderBody, respString, pprintBody)
		return resp, nil
	}
	fmt.Printf(ResponseHeader, dump)
	return resp, nil
}

// prettyPrintJsonBody returns http format request and pretty printed json body
func prettyPrintJsonBody(b []byte) (string, string) {
	sp := strings.SplitN(string(b), HTTPBodyDelimiter, 2)
	if len(sp) != 2 {
		return sp[0], ""
	}
	var body interface{}
	if err := jsoniter.Unmarshal([]byte(sp[1]), &body); err != nil {
		log.Printf("dump: malformed json body: %v", err)
		return sp[0], sp[1]
	}
	pprintBody, err := jsoniter.MarshalIndent(body, "", "    ")
	if err != nil {
		return sp[0], sp[1]
	}
	return sp[0], string(pprintBody)
}

func bodyIsJson(h http.Header) bool {
	return strings.Contains(h.Get("content-type"), "application/json")
}

func isMultipart(h http.Header) bool {
	return strings.HasPrefix(h.Get("content-type"), "multipart/")
}

// hasJSONKey checks that body is a JSON object with a key
func hasJSONKey(body []byte, key string) bool {
	var obj map[string]jsoniter.RawMessage
	if err := jsoniter.Unmarshal(body, &obj); err != nil {
		return false
	}
	_, ok := obj[key]
	return ok
}
