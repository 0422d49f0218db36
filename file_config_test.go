/*
 * // Copyright 2020 Insolar Network Ltd.
 * // All rights reserved.
 * // This material is licensed under the Insolar License version 1.0,
 * // available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.
 */

package uploadbot

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testConfigYAML = `
run:
  name: upload_pool
  concurrency: 4
  max_threads: 2
  iterations: 10
  delay: 500ms
  timeout: 30s
  max_retries: 3
  retry_backoff: 2s
  mode: pool
  client: fasthttp
  report:
    csv: true
    dir: reports
target:
  result_suffix: result
  sequence: post
  expect_json_key: presigned
payloads:
  - file: images/test-2kb.jpg
    width: 1920
    height: 1080
    format: jpeg
  - file: images/test-5mb.png
    field_name: file
    width: 640
    height: 480
    format: png
`

func TestParseConfig(t *testing.T) {
	fc, err := ParseConfig([]byte(testConfigYAML))
	require.NoError(t, err)
	require.Equal(t, "upload_pool", fc.Run.Name)
	require.Equal(t, 4, fc.Run.Concurrency)
	require.Equal(t, 2, fc.Run.MaxThreads)
	require.Equal(t, 500*time.Millisecond, fc.Run.Delay)
	require.Equal(t, 30*time.Second, fc.Run.RequestTimeout)
	require.Equal(t, 3, fc.Run.MaxRetries)
	require.Equal(t, PoolMode, fc.Run.Mode)
	require.Equal(t, "fasthttp", fc.Run.Client)
	require.True(t, fc.Run.ReportOptions.CSV)
	require.Equal(t, "reports", fc.Run.ReportOptions.Dir)
	require.Equal(t, PostOnly, fc.Target.Sequence)
	require.Equal(t, "presigned", fc.Target.ExpectJSONKey)
	require.Len(t, fc.Payloads, 2)
	require.Equal(t, "file", fc.Payloads[1].FieldName)
	require.Equal(t, FormatPNG, fc.Payloads[1].Format)
	require.Empty(t, fc.Run.Validate())
}

func TestParseConfigRetriesDefault(t *testing.T) {
	fc, err := ParseConfig([]byte("run:\n  concurrency: 1\n"))
	require.NoError(t, err)
	require.Equal(t, DefaultMaxRetries, fc.Run.MaxRetries)

	fc, err = ParseConfig([]byte("run:\n  concurrency: 1\n  max_retries: 0\n"))
	require.NoError(t, err)
	require.Equal(t, 0, fc.Run.MaxRetries)
}

func TestParseConfigUnknownKey(t *testing.T) {
	_, err := ParseConfig([]byte("run:\n  threads: 4\n"))
	require.Error(t, err)
}

func TestLoadConfigRunsAgainstEnvURL(t *testing.T) {
	s, target := runDummyService(t)
	img := writeTestImage(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := "run:\n  concurrency: 2\n  iterations: 2\n  log_level: error\ntarget:\n  result_suffix: result\npayloads:\n  - file: " + img + "\n    width: 10\n    height: 10\n    format: jpg\n"
	require.NoError(t, ioutil.WriteFile(path, []byte(cfg), 0644))

	fc, err := LoadConfig(path)
	require.NoError(t, err)
	_, err = fc.NewRunner()
	require.Error(t, err)

	require.NoError(t, os.Setenv(RequestURLEnv, target.BaseURL))
	defer os.Unsetenv(RequestURLEnv)
	fc.ApplyEnv()
	r, err := fc.NewRunner()
	require.NoError(t, err)
	r.SetOutput(ioutil.Discard)
	summary := r.Run(context.Background())
	require.Equal(t, uint64(4), summary.Post.Requests)
	require.Equal(t, int64(4), s.Posts())
	require.Equal(t, int64(4), s.Gets())
}
