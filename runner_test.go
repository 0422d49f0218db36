/*
 * // Copyright 2020 Insolar Network Ltd.
 * // All rights reserved.
 * // This material is licensed under the Insolar License version 1.0,
 * // available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.
 */

package uploadbot

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestCommonRunnerAllSuccess(t *testing.T) {
	s, target := runDummyService(t)
	cfg := DefaultRunCfg()
	cfg.Concurrency = 2
	cfg.Iterations = 1
	cfg.MaxRetries = 1
	r, _ := newTestRunner(t, cfg, target, testPayload(t))
	summary := r.Run(context.TODO())
	require.Len(t, summary.Levels, 1)
	require.Equal(t, 2, summary.Levels[0].Workers)
	require.Equal(t, uint64(2), summary.Get.Requests)
	require.Equal(t, uint64(2), summary.Post.Requests)
	require.Equal(t, 2, summary.Get.Outcomes[OutcomeSuccess])
	require.Equal(t, 2, summary.Post.Outcomes[OutcomeSuccess])
	require.Equal(t, float64(1), summary.Post.Success)
	require.Equal(t, int64(2), s.Gets())
	require.Equal(t, int64(2), s.Posts())
}

func TestCommonRunnerWorkersClampedByMaxThreads(t *testing.T) {
	for _, tc := range []struct {
		concurrency, maxThreads, want int
	}{
		{5, 2, 2},
		{2, 5, 2},
		{3, 3, 3},
	} {
		s, target := runDummyService(t)
		cfg := DefaultRunCfg()
		cfg.Concurrency = tc.concurrency
		cfg.MaxThreads = tc.maxThreads
		cfg.Iterations = 2
		target.Sequence = GetOnly
		r, _ := newTestRunner(t, cfg, target)
		summary := r.Run(context.TODO())
		require.Equal(t, tc.want, summary.Levels[0].Workers)
		require.Equal(t, int64(tc.want*2), s.Gets())
		require.Equal(t, uint64(tc.want*2), summary.Get.Requests)
	}
}

func TestCommonRunnerZeroIterationsSendsNothing(t *testing.T) {
	defer goleak.VerifyNone(t,
		goleak.IgnoreCurrent(),
		goleak.IgnoreTopFunction("os/signal.signal_recv"),
	)
	c := &scriptedClient{}
	cfg := DefaultRunCfg()
	cfg.Concurrency = 4
	cfg.Iterations = 0
	r, out := newTestRunner(t, cfg, RequestTarget{BaseURL: "http://localhost:1/"}, testPayload(t))
	r.client = c
	summary := r.Run(context.TODO())
	require.Equal(t, 4, summary.Levels[0].Workers)
	require.Equal(t, uint64(0), summary.Get.Requests)
	require.Equal(t, uint64(0), summary.Post.Requests)
	require.Equal(t, int64(0), c.gets+c.posts)
	require.Empty(t, out.String())
}

func TestCommonRunnerMissingFileDoesNotStopRun(t *testing.T) {
	s, target := runDummyService(t)
	cfg := DefaultRunCfg()
	cfg.Concurrency = 1
	cfg.Iterations = 1
	cfg.MaxRetries = 2
	p := testPayload(t)
	p.FilePath = p.FilePath + ".missing"
	r, _ := newTestRunner(t, cfg, target, p)
	summary := r.Run(context.TODO())
	require.Equal(t, uint64(2), summary.Post.Requests)
	require.Equal(t, 2, summary.Post.Outcomes[OutcomeFileMissing])
	require.Equal(t, 0, summary.FailedUnits())
	require.Equal(t, int64(1), s.Gets())
}

func TestCommonRunnerStatusErrorSingleAttempt(t *testing.T) {
	s, target := runDummyService(t)
	s.SetPostStatus(500)
	cfg := DefaultRunCfg()
	cfg.MaxRetries = 3
	target.Sequence = PostOnly
	r, _ := newTestRunner(t, cfg, target, testPayload(t))
	summary := r.Run(context.TODO())
	require.Equal(t, uint64(1), summary.Post.Requests)
	require.Equal(t, 1, summary.Post.Outcomes[OutcomeHTTPError])
	require.Equal(t, 1, summary.Post.StatusCodes["500"])
	require.Equal(t, int64(1), s.Posts())
}

func TestCommonPoolRunnerReusesSlots(t *testing.T) {
	s, target := runDummyService(t)
	s.SetLatency(20 * time.Millisecond)
	cfg := DefaultRunCfg()
	cfg.Mode = PoolMode
	cfg.Concurrency = 6
	cfg.MaxThreads = 2
	cfg.Iterations = 1
	r, _ := newTestRunner(t, cfg, target, testPayload(t))
	summary := r.Run(context.TODO())
	require.Equal(t, 2, summary.Levels[0].Workers)
	require.Equal(t, 6, summary.Levels[0].Units)
	require.Equal(t, int64(6), s.Gets())
	require.Equal(t, int64(6), s.Posts())
}

func TestCommonPoolRunnerHarvestsPanickingUnit(t *testing.T) {
	s, target := runDummyService(t)
	cfg := DefaultRunCfg()
	cfg.Mode = PoolMode
	cfg.Concurrency = 3
	cfg.Iterations = 1
	r, _ := newTestRunner(t, cfg, target, testPayload(t))
	r.beforeUnit = func(worker int) {
		if worker == 2 {
			panic("broken unit")
		}
	}
	summary := r.Run(context.TODO())
	require.Equal(t, 1, summary.Levels[0].FailedUnits)
	require.Equal(t, int64(2), s.Gets())
	require.Equal(t, int64(2), s.Posts())
}

func TestCommonThreadsRunnerRecoversPanickingWorker(t *testing.T) {
	s, target := runDummyService(t)
	cfg := DefaultRunCfg()
	cfg.Concurrency = 3
	target.Sequence = GetOnly
	r, _ := newTestRunner(t, cfg, target)
	r.beforeUnit = func(worker int) {
		if worker == 1 {
			panic("broken worker")
		}
	}
	summary := r.Run(context.TODO())
	require.Equal(t, 1, summary.FailedUnits())
	require.Equal(t, int64(2), s.Gets())
}

func TestCommonRunnerRamp(t *testing.T) {
	s, target := runDummyService(t)
	cfg := DefaultRunCfg()
	cfg.Concurrency = 0
	cfg.MaxThreads = 4
	cfg.Ramp = &Ramp{From: 1, To: 5, Step: 2}
	target.Sequence = GetOnly
	r, _ := newTestRunner(t, cfg, target)
	summary := r.Run(context.TODO())
	require.Len(t, summary.Levels, 3)
	require.Equal(t, 1, summary.Levels[0].Workers)
	require.Equal(t, 3, summary.Levels[1].Workers)
	// 5 is clamped by max threads
	require.Equal(t, 5, summary.Levels[2].Concurrency)
	require.Equal(t, 4, summary.Levels[2].Workers)
	require.Equal(t, uint64(3), summary.Levels[1].Get.Requests)
	require.Equal(t, uint64(8), summary.Get.Requests)
	require.Equal(t, int64(8), s.Gets())
}

func TestCommonRunnerRPSLimit(t *testing.T) {
	s, target := runDummyService(t)
	cfg := DefaultRunCfg()
	cfg.Concurrency = 5
	cfg.Iterations = 2
	cfg.RPS = 20
	target.Sequence = GetOnly
	r, _ := newTestRunner(t, cfg, target)
	start := time.Now()
	r.Run(context.TODO())
	// 10 requests at 20 rps
	require.GreaterOrEqual(t, int64(time.Since(start)), int64(400*time.Millisecond))
	require.Equal(t, int64(10), s.Gets())
}

func TestCommonRunnerCancel(t *testing.T) {
	_, target := runDummyService(t)
	cfg := DefaultRunCfg()
	cfg.Concurrency = 2
	cfg.Iterations = 1000
	cfg.Delay = 50 * time.Millisecond
	target.Sequence = GetOnly
	r, _ := newTestRunner(t, cfg, target)
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	start := time.Now()
	summary := r.Run(ctx)
	require.Less(t, int64(time.Since(start)), int64(2*time.Second))
	require.Less(t, summary.Get.Requests, uint64(2000))
}

func TestCommonRunnerFastHTTPClient(t *testing.T) {
	s, target := runDummyService(t)
	cfg := DefaultRunCfg()
	cfg.Client = "fasthttp"
	cfg.Concurrency = 2
	cfg.Iterations = 2
	target.ExpectJSONKey = "result"
	r, _ := newTestRunner(t, cfg, target, testPayload(t))
	summary := r.Run(context.TODO())
	require.Equal(t, 4, summary.Get.Outcomes[OutcomeSuccess])
	require.Equal(t, 4, summary.Post.Outcomes[OutcomeSuccess])
	require.Equal(t, int64(4), s.Posts())
}

func TestCommonRunnerRotatesPayloads(t *testing.T) {
	_, target := runDummyService(t)
	cfg := DefaultRunCfg()
	cfg.Iterations = 4
	target.Sequence = PostOnly
	p1 := testPayload(t)
	p2 := testPayload(t)
	p2.Format = FormatPNG
	p2.FieldName = "file"
	r, _ := newTestRunner(t, cfg, target, p1, p2)
	summary := r.Run(context.TODO())
	require.Equal(t, 4, summary.Post.Outcomes[OutcomeSuccess])
	// two full rounds over two payloads
	require.Equal(t, 2, r.payloads.Index)
}

func TestCommonReportFiles(t *testing.T) {
	_, target := runDummyService(t)
	cfg := DefaultRunCfg()
	cfg.Concurrency = 2
	cfg.Iterations = 3
	cfg.ReportOptions = &ReportOptions{
		CSV:  true,
		HTML: true,
		PNG:  true,
		Dir:  t.TempDir(),
	}
	r, _ := newTestRunner(t, cfg, target, testPayload(t))
	r.Run(context.TODO())
	require.NotNil(t, r.Report)
	for _, f := range []string{r.Report.AttemptsLog(), r.Report.HTMLReport(), r.Report.PNGReport()} {
		fi, err := os.Stat(f)
		require.NoError(t, err)
		require.Greater(t, fi.Size(), int64(0))
	}
	data, err := os.ReadFile(r.Report.AttemptsLog())
	require.NoError(t, err)
	// header + 6 GET + 6 POST
	require.Equal(t, 13, strings.Count(string(data), "\n"))
}

func TestCommonRunnerOutputLines(t *testing.T) {
	_, target := runDummyService(t)
	cfg := DefaultRunCfg()
	cfg.Concurrency = 4
	cfg.Iterations = 5
	r, _ := newTestRunner(t, cfg, target, testPayload(t))
	w := &overlapWriter{t: t}
	r.SetOutput(w)
	r.Run(context.TODO())
	lines := strings.Split(strings.TrimSpace(w.buf.String()), "\n")
	// 20 iterations, 20 GET and 20 POST
	require.Len(t, lines, 60)
	for _, l := range lines {
		require.True(t, strings.HasPrefix(l, "worker "), l)
	}
}

func TestNewRunnerInvalidConfig(t *testing.T) {
	_, err := NewRunner(&RunConfig{Concurrency: 0, Iterations: -1}, RequestTarget{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "concurrency")
	require.Contains(t, err.Error(), "iterations")
	require.Contains(t, err.Error(), "target url")
	require.Contains(t, err.Error(), "payload")

	_, err = NewRunner(DefaultRunCfg(), RequestTarget{BaseURL: "http://localhost/", Sequence: GetOnly})
	require.NoError(t, err)
}
