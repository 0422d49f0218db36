/*
 * // Copyright 2020 Insolar Network Ltd.
 * // All rights reserved.
 * // This material is licensed under the Insolar License version 1.0,
 * // available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.
 */

package uploadbot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// workerLoop runs cfg.Iterations of the target sequence, every step is followed by cfg.Delay.
// Failed attempts are reported and the loop goes on.
func (r *Runner) workerLoop(ctx context.Context, cfg *RunConfig, worker, workers int) {
	l := r.L.With("worker", worker)
	for i := 0; i < cfg.Iterations; i++ {
		if ctx.Err() != nil {
			l.Infof("stopping worker")
			return
		}
		r.sink.Iteration(worker, workers, i, cfg.Iterations)
		if r.Target.doGet() {
			r.attemptGet(ctx, cfg, worker, workers, i)
			if !sleepCtx(ctx, cfg.Delay) {
				return
			}
		}
		if r.Target.doPost() && cfg.MaxRetries > 0 {
			r.attemptPostWithRetry(ctx, cfg, worker, workers, i, r.payloads.Next())
			if !sleepCtx(ctx, cfg.Delay) {
				return
			}
		}
	}
	l.Debugf("worker done")
}

// attemptGet sends one GET, never retried
func (r *Runner) attemptGet(ctx context.Context, cfg *RunConfig, worker, workers, iteration int) AttemptResult {
	r.rl.Take()
	res := newAttemptResult(KindGet, worker, workers, iteration, 1)
	rctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	resp, err := r.client.Get(rctx, r.Target.GetURL())
	cancel()
	res.End = time.Now()
	if err == nil && resp.StatusCode != http.StatusOK {
		err = &HTTPStatusError{StatusCode: resp.StatusCode}
	}
	res.finish(resp.StatusCode, err)
	r.sink.Report(res)
	return res
}

// attemptPostWithRetry sends POST up to cfg.MaxRetries times, stops on the first response.
// A zero budget sends nothing and returns a zero result.
// Only transport errors and missing files are retried, after cfg.RetryBackoff.
func (r *Runner) attemptPostWithRetry(ctx context.Context, cfg *RunConfig, worker, workers, iteration int, p UploadPayload) AttemptResult {
	var res AttemptResult
	for attempt := 1; attempt <= cfg.MaxRetries; attempt++ {
		var err error
		res, err = r.attemptPost(ctx, cfg, worker, workers, iteration, attempt, p)
		r.sink.Report(res)
		if !Retryable(err) {
			return res
		}
		if attempt < cfg.MaxRetries && !sleepCtx(ctx, cfg.RetryBackoff) {
			return res
		}
	}
	return res
}

// attemptPost reads the file again and sends it, file is never reused between attempts
func (r *Runner) attemptPost(ctx context.Context, cfg *RunConfig, worker, workers, iteration, attempt int, p UploadPayload) (AttemptResult, error) {
	r.rl.Take()
	res := newAttemptResult(KindPost, worker, workers, iteration, attempt)
	var resp Response
	contentType, body, err := p.Encode()
	switch {
	case err == nil:
		res.BytesOut = int64(len(body))
		rctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
		resp, err = r.client.Post(rctx, r.Target.PostURL(), contentType, body)
		cancel()
		if err == nil {
			err = r.checkPostResponse(resp)
		}
	case !errors.Is(err, ErrFileMissing):
		err = &TransportError{Err: err}
	}
	res.End = time.Now()
	res.finish(resp.StatusCode, err)
	return res, err
}

func (r *Runner) checkPostResponse(resp Response) error {
	if resp.StatusCode != http.StatusOK {
		return &HTTPStatusError{StatusCode: resp.StatusCode}
	}
	if key := r.Target.ExpectJSONKey; key != "" && !hasJSONKey(resp.Body, key) {
		return &HTTPStatusError{StatusCode: resp.StatusCode, Reason: fmt.Sprintf(errMissingJSONKey, key)}
	}
	return nil
}

func newAttemptResult(kind Kind, worker, workers, iteration, attempt int) AttemptResult {
	return AttemptResult{
		Kind:      kind,
		Worker:    worker,
		Workers:   workers,
		Iteration: iteration,
		Attempt:   attempt,
		Begin:     time.Now(),
	}
}

func (a *AttemptResult) finish(statusCode int, err error) {
	a.Elapsed = a.End.Sub(a.Begin)
	a.StatusCode = statusCode
	a.Outcome, a.Error = classify(err)
}
