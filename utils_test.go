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
	"io/ioutil"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// writeTestImage writes fake jpeg bytes into a temp dir
func writeTestImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test-2kb.jpg")
	img := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, bytes.Repeat([]byte("jpeg"), 512)...)
	require.NoError(t, ioutil.WriteFile(path, img, 0644))
	return path
}

func testPayload(t *testing.T) UploadPayload {
	return UploadPayload{
		FilePath: writeTestImage(t),
		Width:    1920,
		Height:   1080,
		Format:   FormatJPEG,
	}
}

func DefaultRunCfg() *RunConfig {
	return &RunConfig{
		Name:           "test_runner",
		Concurrency:    1,
		Iterations:     1,
		RequestTimeout: 2 * time.Second,
		MaxRetries:     1,
		RetryBackoff:   10 * time.Millisecond,
		LogLevel:       "error",
	}
}

// runDummyService starts dummy service on a random port
func runDummyService(t *testing.T) (*DummyService, RequestTarget) {
	t.Helper()
	s := NewDummyService()
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return s, RequestTarget{BaseURL: srv.URL + "/", ResultSuffix: DefaultResultSuffix}
}

// closedTarget target which refuses connections
func closedTarget() RequestTarget {
	srv := httptest.NewServer(NewDummyService().Handler())
	srv.Close()
	return RequestTarget{BaseURL: srv.URL + "/", ResultSuffix: DefaultResultSuffix}
}

func newTestRunner(t *testing.T, cfg *RunConfig, target RequestTarget, payloads ...UploadPayload) (*Runner, *bytes.Buffer) {
	t.Helper()
	r, err := NewRunner(cfg, target, payloads...)
	require.NoError(t, err)
	out := &bytes.Buffer{}
	r.SetOutput(out)
	// attempts may be called directly, without Run
	r.sink = NewSink(out, nil, nil)
	return r, out
}

// scriptedClient replies with scripted results, then with 200
type scriptedClient struct {
	mu     sync.Mutex
	script []func() (Response, error)
	gets   int64
	posts  int64
}

func (c *scriptedClient) next() (Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.script) == 0 {
		return Response{StatusCode: 200, Body: []byte(`{"result": {}}`)}, nil
	}
	f := c.script[0]
	c.script = c.script[1:]
	return f()
}

func (c *scriptedClient) Get(_ context.Context, _ string) (Response, error) {
	atomic.AddInt64(&c.gets, 1)
	return c.next()
}

func (c *scriptedClient) Post(_ context.Context, _ string, _ string, _ []byte) (Response, error) {
	atomic.AddInt64(&c.posts, 1)
	return c.next()
}

func replyStatus(code int) func() (Response, error) {
	return func() (Response, error) {
		return Response{StatusCode: code}, nil
	}
}

func replyTransportError() func() (Response, error) {
	return func() (Response, error) {
		return Response{}, &TransportError{Err: context.DeadlineExceeded}
	}
}

// overlapWriter fails the test if two writes overlap
type overlapWriter struct {
	t      *testing.T
	active int32
	mu     sync.Mutex
	buf    bytes.Buffer
}

func (w *overlapWriter) Write(p []byte) (int, error) {
	if !atomic.CompareAndSwapInt32(&w.active, 0, 1) {
		w.t.Errorf("concurrent write detected")
	}
	defer atomic.StoreInt32(&w.active, 0)
	// widen the window for a racing writer
	time.Sleep(50 * time.Microsecond)
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}
