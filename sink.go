/*
 * // Copyright 2020 Insolar Network Ltd.
 * // All rights reserved.
 * // This material is licensed under the Insolar License version 1.0,
 * // available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.
 */

package uploadbot

import (
	"fmt"
	"io"
	"sync"
)

// Sink is the only state shared by workers, every write holds the lock
type Sink struct {
	mu     sync.Mutex
	out    io.Writer
	report *Report
	prom   *PromReporter
	total  map[Kind]*Metrics
	level  map[Kind]*Metrics
}

func NewSink(out io.Writer, report *Report, prom *PromReporter) *Sink {
	return &Sink{
		out:    out,
		report: report,
		prom:   prom,
		total:  map[Kind]*Metrics{KindGet: NewMetrics(), KindPost: NewMetrics()},
		level:  map[Kind]*Metrics{KindGet: NewMetrics(), KindPost: NewMetrics()},
	}
}

// Iteration reports iteration start of a worker
func (s *Sink) Iteration(worker, workers, iteration, iterations int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintf(s.out, "worker %d/%d -> iteration %d/%d\n", worker, workers, iteration+1, iterations)
}

// Report writes one line per attempt and accounts it in metrics and reports
func (s *Sink) Report(res AttemptResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintf(s.out, "%s\n", res)
	s.total[res.Kind].add(res)
	s.level[res.Kind].add(res)
	if s.report != nil {
		s.report.writeResultEntry(res)
	}
	if s.prom != nil {
		s.prom.reportAttempt(res)
	}
}

// nextLevel starts accounting of a new concurrency level
func (s *Sink) nextLevel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.level = map[Kind]*Metrics{KindGet: NewMetrics(), KindPost: NewMetrics()}
}

func (s *Sink) levelMetrics() (get, post *Metrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level[KindGet].snapshot(), s.level[KindPost].snapshot()
}

func (s *Sink) totalMetrics() (get, post *Metrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total[KindGet].snapshot(), s.total[KindPost].snapshot()
}

// LevelSummary results of one concurrency level
type LevelSummary struct {
	// Concurrency requested
	Concurrency int
	// Workers actually run in parallel
	Workers int
	// Units of work submitted, equals Workers in threads mode
	Units int
	// FailedUnits units which ended with a harvested error
	FailedUnits int
	Get         *Metrics
	Post        *Metrics
}

// Summary of a whole run
type Summary struct {
	RunID  string
	Levels []LevelSummary
	Get    *Metrics
	Post   *Metrics
}

// FailedUnits total over levels
func (s *Summary) FailedUnits() int {
	var n int
	for _, l := range s.Levels {
		n += l.FailedUnits
	}
	return n
}
