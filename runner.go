/*
 * // Copyright 2020 Insolar Network Ltd.
 * // All rights reserved.
 * // This material is licensed under the Insolar License version 1.0,
 * // available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.
 */

package uploadbot

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/ratelimit"
)

// Runner drives a fixed amount of workers, each repeating GET and POST with upload against a target
type Runner struct {
	// Name of a runner
	Name string
	// Cfg runner config
	Cfg *RunConfig
	// Target endpoint under test
	Target RequestTarget
	// RunID uniq id of a runner, used in report file names
	RunID string
	// Report of a last run, nil if csv report is disabled
	Report       *Report
	PromReporter *PromReporter
	L            *Logger

	payloads *PayloadRing
	client   Client
	// ratelimiter shared by all workers, unlimited by default
	rl   ratelimit.Limiter
	out  io.Writer
	sink *Sink
	// beforeUnit is called at the start of every unit of work
	beforeUnit func(worker int)
}

type unitResult struct {
	worker int
	err    error
}

// NewRunner validates config, target and payloads and creates runner
func NewRunner(cfg *RunConfig, target RequestTarget, payloads ...UploadPayload) (*Runner, error) {
	problems := cfg.Validate()
	problems = append(problems, target.Validate()...)
	if target.doPost() && len(payloads) == 0 {
		problems = append(problems, errNoPayload.Error())
	}
	for i := range payloads {
		problems = append(problems, payloads[i].Validate()...)
		payloads[i].defaults()
	}
	if len(problems) > 0 {
		return nil, configError(problems)
	}
	cfg.DefaultCfgValues()
	factory := ClientFromString(cfg.Client)
	if factory == nil {
		return nil, fmt.Errorf(errUnknownClient, cfg.Client)
	}
	runID := uuid.New().String()
	r := &Runner{
		Name:     cfg.Name,
		Cfg:      cfg,
		Target:   target,
		RunID:    runID,
		L:        NewLogger(cfg).With("runner", cfg.Name, "run", runID),
		payloads: NewPayloadRing(payloads),
		client:   factory(cfg),
		rl:       ratelimit.NewUnlimited(),
		out:      os.Stdout,
	}
	if cfg.RPS > 0 {
		r.rl = ratelimit.New(cfg.RPS)
	}
	if cfg.Prometheus != nil && cfg.Prometheus.Enable {
		r.PromReporter = &PromReporter{}
	}
	return r, nil
}

// SetOutput sets writer for attempt lines, stdout by default
func (r *Runner) SetOutput(w io.Writer) {
	r.out = w
}

// Run runs every concurrency level and waits for all workers, request failures never stop the run
func (r *Runner) Run(ctx context.Context) *Summary {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	r.handleShutdownSignal(ctx, cancel)
	r.logPayloads()

	r.Report = nil
	if r.Cfg.ReportOptions.CSV {
		report, err := NewReport(r.Cfg, r.RunID, r.L)
		if err != nil {
			r.L.Errorf("csv report disabled: %v", err)
		} else {
			r.Report = report
		}
	}
	r.sink = NewSink(r.out, r.Report, r.PromReporter)
	if r.PromReporter != nil {
		stop := startMetricsServer(r.Cfg.Prometheus.Port, r.L)
		defer stop()
	}

	r.L.Infof("runner started, mode: %s, target: %s", r.Cfg.Mode, r.Target.BaseURL)
	summary := &Summary{RunID: r.RunID}
	for _, level := range r.Cfg.Levels() {
		if ctx.Err() != nil {
			break
		}
		lc, err := r.Cfg.WithConcurrency(level)
		if err != nil {
			r.L.Error(err)
			break
		}
		r.sink.nextLevel()
		ls := r.runLevel(ctx, lc)
		ls.Get, ls.Post = r.sink.levelMetrics()
		r.logLevel(ls)
		summary.Levels = append(summary.Levels, ls)
	}
	summary.Get, summary.Post = r.sink.totalMetrics()
	if r.Report != nil {
		r.Report.close()
	}
	r.L.Infof("runner exited")
	return summary
}

func (r *Runner) runLevel(ctx context.Context, cfg *RunConfig) LevelSummary {
	workers := cfg.Workers()
	r.L.Infof("running with %d concurrent workers (requested: %d)", workers, cfg.Concurrency)
	if cfg.Mode == PoolMode {
		return r.runPool(ctx, cfg, workers)
	}
	return r.runThreads(ctx, cfg, workers)
}

// runThreads starts every worker at once and joins them
func (r *Runner) runThreads(ctx context.Context, cfg *RunConfig, workers int) LevelSummary {
	ls := LevelSummary{Concurrency: cfg.Concurrency, Workers: workers, Units: workers}
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	for i := 1; i <= workers; i++ {
		wg.Add(1)
		go func(num int) {
			defer wg.Done()
			if err := r.runUnit(ctx, cfg, num, workers); err != nil {
				r.L.Errorf("worker %d failed: %v", num, err)
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	ls.FailedUnits = failed
	return ls
}

// runPool submits cfg.Concurrency units to a pool of workers goroutines and harvests every unit result
func (r *Runner) runPool(ctx context.Context, cfg *RunConfig, workers int) LevelSummary {
	units := cfg.Concurrency
	ls := LevelSummary{Concurrency: cfg.Concurrency, Workers: workers, Units: units}
	next := make(chan int)
	results := make(chan unitResult, units)
	for i := 0; i < workers; i++ {
		go func() {
			for num := range next {
				results <- unitResult{worker: num, err: r.runUnit(ctx, cfg, num, units)}
			}
		}()
	}
	go func() {
		defer close(next)
		for num := 1; num <= units; num++ {
			next <- num
		}
	}()
	for i := 0; i < units; i++ {
		res := <-results
		if res.err != nil {
			ls.FailedUnits++
			r.L.Errorf("unit %d failed: %v", res.worker, res.err)
			continue
		}
		r.L.Debugf("unit %d done", res.worker)
	}
	return ls
}

// runUnit runs one worker loop, a panic inside is returned as error
func (r *Runner) runUnit(ctx context.Context, cfg *RunConfig, worker, workers int) (err error) {
	if r.PromReporter != nil {
		r.PromReporter.workerStarted()
		defer r.PromReporter.workerDone()
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf(errUnitPanic, rec)
		}
	}()
	if r.beforeUnit != nil {
		r.beforeUnit(worker)
	}
	r.workerLoop(ctx, cfg, worker, workers)
	return nil
}

func (r *Runner) logPayloads() {
	for _, p := range r.payloads.Data {
		fi, err := os.Stat(p.FilePath)
		if err != nil {
			r.L.Warnf("upload file is not available yet: %v", err)
			continue
		}
		r.L.Infof("upload file: %s, size: %s, %dx%d %s", p.FilePath, humanize.Bytes(uint64(fi.Size())), p.Width, p.Height, p.Format)
	}
}

func (r *Runner) logLevel(ls LevelSummary) {
	for _, m := range []struct {
		kind Kind
		m    *Metrics
	}{{KindGet, ls.Get}, {KindPost, ls.Post}} {
		if m.m.Requests == 0 {
			continue
		}
		r.L.Infof(
			"concurrency: %d, %s: # attempts [%d], %% success [%.2f], mean [%v], perc: 50 [%v] 95 [%v] 99 [%v], max [%v], sent [%s]",
			ls.Workers,
			m.kind,
			m.m.Requests,
			m.m.successLogEntry(),
			m.m.Latencies.Mean,
			m.m.Latencies.P50,
			m.m.Latencies.P95,
			m.m.Latencies.P99,
			m.m.Latencies.Max,
			humanize.Bytes(uint64(m.m.BytesOut)),
		)
		for _, e := range m.m.Errors {
			r.L.Infof("%s error: %s", m.kind, e)
		}
	}
	if ls.FailedUnits > 0 {
		r.L.Warnf("failed units: %d/%d", ls.FailedUnits, ls.Units)
	}
}
