/*
 * // Copyright 2020 Insolar Network Ltd.
 * // All rights reserved.
 * // This material is licensed under the Insolar License version 1.0,
 * // available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.
 */

package uploadbot

import (
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/copier"
	"go.uber.org/zap/zapcore"
)

const (
	DefaultMaxThreads     = 100
	DefaultRequestTimeout = 60 * time.Second
	DefaultRetryBackoff   = 2 * time.Second
	DefaultMaxRetries     = 1
	DefaultClient         = "http"
	DefaultFieldName      = "image"
	DefaultResultSuffix   = "result"
	DefaultPrometheusPort = 2112
)

// RunMode selects how workers are scheduled
type RunMode string

const (
	// ThreadsMode spawns min(Concurrency, MaxThreads) workers and joins them
	ThreadsMode RunMode = "threads"
	// PoolMode submits Concurrency units of work to a pool of min(Concurrency, MaxThreads) goroutines
	PoolMode RunMode = "pool"
)

// RunConfig runner configuration
type RunConfig struct {
	// Name of a runner instance
	Name string `yaml:"name"`
	// Concurrency number of parallel workers requested
	Concurrency int `yaml:"concurrency"`
	// MaxThreads upper bound for Concurrency
	MaxThreads int `yaml:"max_threads"`
	// Iterations per worker, zero means no requests at all
	Iterations int `yaml:"iterations"`
	// Delay sleep after every step of an iteration
	Delay time.Duration `yaml:"delay"`
	// RequestTimeout per request timeout
	RequestTimeout time.Duration `yaml:"timeout"`
	// MaxRetries total POST attempts per iteration, including the first one, 0 sends no POST
	MaxRetries int `yaml:"max_retries"`
	// RetryBackoff sleep between failed POST attempts
	RetryBackoff time.Duration `yaml:"retry_backoff"`
	// Mode threads|pool
	Mode RunMode `yaml:"mode"`
	// RPS global requests per second cap across all workers, 0 is unlimited
	RPS int `yaml:"rps"`
	// Ramp runs the test once per concurrency level
	Ramp *Ramp `yaml:"ramp"`
	// Client registered client name, http|fasthttp
	Client string `yaml:"client"`
	// DumpTransport dump http requests to stdout
	DumpTransport bool `yaml:"dump_transport"`
	// GoroutinesDump dump goroutines on exit signal
	GoroutinesDump bool `yaml:"goroutines_dump"`
	// LogLevel debug|info, etc.
	LogLevel string `yaml:"log_level"`
	// LogEncoding json|console
	LogEncoding   string         `yaml:"log_encoding"`
	ReportOptions *ReportOptions `yaml:"report"`
	Prometheus    *Prometheus    `yaml:"prometheus"`
}

// Ramp concurrency levels From, From+Step, ..., To
type Ramp struct {
	From int `yaml:"from"`
	To   int `yaml:"to"`
	Step int `yaml:"step"`
}

// ReportOptions files written at the end of a run
type ReportOptions struct {
	// CSV attempts log
	CSV bool `yaml:"csv"`
	// HTML latency chart, requires CSV
	HTML bool `yaml:"html"`
	// PNG latency chart, requires CSV
	PNG bool `yaml:"png"`
	// Dir output directory, current by default
	Dir string `yaml:"dir"`
}

type Prometheus struct {
	Enable bool `yaml:"enable"`
	Port   int  `yaml:"port"`
}

// Validate checks all settings and returns a list of strings with problems.
func (c RunConfig) Validate() (list []string) {
	if c.Concurrency <= 0 && c.Ramp == nil {
		list = append(list, "please set concurrency > 0")
	}
	if c.MaxThreads < 0 {
		list = append(list, "please set max threads >= 0, 0 means default")
	}
	if c.Iterations < 0 {
		list = append(list, "please set iterations >= 0")
	}
	if c.Delay < 0 {
		list = append(list, "please set delay >= 0")
	}
	if c.RequestTimeout < 0 {
		list = append(list, "please set request timeout > 0")
	}
	if c.MaxRetries < 0 {
		list = append(list, "please set max retries >= 0")
	}
	if c.RetryBackoff < 0 {
		list = append(list, "please set retry backoff >= 0")
	}
	if c.RPS < 0 {
		list = append(list, "please set rps >= 0, 0 means no limit")
	}
	switch c.Mode {
	case "", ThreadsMode, PoolMode:
	default:
		list = append(list, fmt.Sprintf("unknown mode %q, use threads|pool", c.Mode))
	}
	if c.Client != "" && ClientFromString(c.Client) == nil {
		list = append(list, fmt.Sprintf("unknown client %q", c.Client))
	}
	if c.LogLevel != "" {
		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
			list = append(list, fmt.Sprintf("unknown log level %q", c.LogLevel))
		}
	}
	switch c.LogEncoding {
	case "", "console", "json":
	default:
		list = append(list, fmt.Sprintf("unknown log encoding %q, use console|json", c.LogEncoding))
	}
	if c.Ramp != nil {
		if c.Ramp.From <= 0 || c.Ramp.To < c.Ramp.From || c.Ramp.Step <= 0 {
			list = append(list, "please set ramp 0 < from <= to and step > 0")
		}
	}
	if c.ReportOptions != nil && !c.ReportOptions.CSV && (c.ReportOptions.HTML || c.ReportOptions.PNG) {
		list = append(list, "html and png reports are rendered from csv, please enable csv")
	}
	return
}

// DefaultCfgValues fills zero values with defaults
func (c *RunConfig) DefaultCfgValues() {
	if c.Name == "" {
		c.Name = "uploadbot"
	}
	if c.MaxThreads == 0 {
		c.MaxThreads = DefaultMaxThreads
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = DefaultRetryBackoff
	}
	if c.Mode == "" {
		c.Mode = ThreadsMode
	}
	if c.Client == "" {
		c.Client = DefaultClient
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogEncoding == "" {
		c.LogEncoding = "console"
	}
	if c.ReportOptions == nil {
		c.ReportOptions = &ReportOptions{}
	}
	if c.Prometheus != nil && c.Prometheus.Enable && c.Prometheus.Port == 0 {
		c.Prometheus.Port = DefaultPrometheusPort
	}
}

// Workers actual amount of parallel workers
func (c RunConfig) Workers() int {
	return clampWorkers(c.Concurrency, c.MaxThreads)
}

// Levels concurrency levels to run, one level when no ramp configured
func (c RunConfig) Levels() []int {
	if c.Ramp == nil {
		return []int{c.Concurrency}
	}
	levels := make([]int, 0)
	for n := c.Ramp.From; n <= c.Ramp.To; n += c.Ramp.Step {
		levels = append(levels, n)
		// next level is past To, stop before n + step can overflow
		if n > c.Ramp.To-c.Ramp.Step {
			break
		}
	}
	return levels
}

// WithConcurrency returns a copy of config for one ramp level
func (c *RunConfig) WithConcurrency(n int) (*RunConfig, error) {
	var lc RunConfig
	if err := copier.Copy(&lc, c); err != nil {
		return nil, err
	}
	lc.Concurrency = n
	lc.Ramp = nil
	return &lc, nil
}

func clampWorkers(concurrency, maxThreads int) int {
	if maxThreads > 0 && concurrency > maxThreads {
		return maxThreads
	}
	return concurrency
}

type configError []string

func (e configError) Error() string {
	return "invalid config: " + strings.Join(e, "; ")
}
