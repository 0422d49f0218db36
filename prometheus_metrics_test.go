/*
 * // Copyright 2020 Insolar Network Ltd.
 * // All rights reserved.
 * // This material is licensed under the Insolar License version 1.0,
 * // available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.
 */

package uploadbot

import (
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPromReporter(t *testing.T) {
	m := &PromReporter{}
	before := testutil.ToFloat64(promAttemptsTotal.WithLabelValues("POST", "file-missing"))
	bytesBefore := testutil.ToFloat64(promUploadBytes)
	m.reportAttempt(AttemptResult{Kind: KindPost, Outcome: OutcomeFileMissing, Elapsed: time.Millisecond})
	m.reportAttempt(AttemptResult{Kind: KindPost, Outcome: OutcomeFileMissing, Elapsed: time.Millisecond, BytesOut: 10})
	require.Equal(t, before+2, testutil.ToFloat64(promAttemptsTotal.WithLabelValues("POST", "file-missing")))
	require.Equal(t, bytesBefore+10, testutil.ToFloat64(promUploadBytes))

	m.workerStarted()
	require.Equal(t, float64(1), testutil.ToFloat64(promActiveWorkers))
	m.workerDone()
	require.Equal(t, float64(0), testutil.ToFloat64(promActiveWorkers))
}

func TestMetricsHandler(t *testing.T) {
	(&PromReporter{}).reportAttempt(AttemptResult{Kind: KindGet, Outcome: OutcomeSuccess})
	srv := httptest.NewServer(MetricsHandler())
	defer srv.Close()
	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := ioutil.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `uploadbot_attempts_total{kind="GET",outcome="success"}`)
	require.Contains(t, string(body), "uploadbot_attempt_duration_seconds")
}
