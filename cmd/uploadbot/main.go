/*
 * // Copyright 2020 Insolar Network Ltd.
 * // All rights reserved.
 * // This material is licensed under the Insolar License version 1.0,
 * // available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.
 */

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kingpin"
	"github.com/dustin/go-humanize"

	"github.com/insolar/uploadbot"
)

var (
	configFile  = kingpin.Flag("config", "YAML config file.").Short('c').ExistingFile()
	url         = kingpin.Flag("url", "Target base url, $"+uploadbot.RequestURLEnv+" if empty.").String()
	suffix      = kingpin.Flag("suffix", "Path appended to base url for POST.").String()
	sequence    = kingpin.Flag("sequence", "Steps of an iteration.").Enum(string(uploadbot.GetPost), string(uploadbot.PostOnly), string(uploadbot.GetOnly))
	expectKey   = kingpin.Flag("expect-json-key", "Key a successful POST response must contain.").String()
	concurrency = kingpin.Flag("concurrency", "Parallel workers requested.").Int()
	maxThreads  = kingpin.Flag("max-threads", "Upper bound for parallel workers.").Int()
	iterations  = kingpin.Flag("iterations", "Iterations per worker.").Int()
	delay       = kingpin.Flag("delay", "Sleep after every step.").Duration()
	timeout     = kingpin.Flag("timeout", "Per request timeout.").Duration()
	retries     = kingpin.Flag("retries", "POST attempts per iteration, 0 sends no POST.").Action(markSet(&retriesSet)).Int()
	backoff     = kingpin.Flag("backoff", "Sleep between POST attempts.").Duration()
	mode        = kingpin.Flag("mode", "Worker scheduling.").Enum(string(uploadbot.ThreadsMode), string(uploadbot.PoolMode))
	client      = kingpin.Flag("client", "HTTP client.").Enum(uploadbot.RegisteredClients()...)
	rps         = kingpin.Flag("rps", "Requests per second cap, 0 is unlimited.").Int()
	file        = kingpin.Flag("file", "Image file to upload.").String()
	width       = kingpin.Flag("width", "Image width form field.").Int()
	height      = kingpin.Flag("height", "Image height form field.").Int()
	format      = kingpin.Flag("format", "Image format form field.").Default(string(uploadbot.FormatJPEG)).String()
	field       = kingpin.Flag("field", "File part name, image|file.").String()
	csvReport   = kingpin.Flag("csv", "Write attempts csv.").Bool()
	htmlReport  = kingpin.Flag("html", "Render html latency chart.").Bool()
	pngReport   = kingpin.Flag("png", "Render png latency chart.").Bool()
	reportDir   = kingpin.Flag("report-dir", "Reports directory.").String()
	promPort    = kingpin.Flag("prometheus", "Serve /metrics on a port.").Int()
	dump        = kingpin.Flag("dump", "Dump requests and responses.").Bool()
	logLevel    = kingpin.Flag("log-level", "Log level.").String()
	logEncoding = kingpin.Flag("log-encoding", "Log encoding, console|json.").String()

	retriesSet bool
)

func main() {
	kingpin.Version("0.1.0")
	kingpin.Parse()

	fc := uploadbot.NewFileConfig()
	if *configFile != "" {
		var err error
		fc, err = uploadbot.LoadConfig(*configFile)
		kingpin.FatalIfError(err, "config %s", *configFile)
	}
	applyFlags(fc)
	fc.ApplyEnv()

	r, err := fc.NewRunner()
	kingpin.FatalIfError(err, "")
	start := time.Now()
	s := r.Run(context.Background())
	printSummary(s, time.Since(start))
	if r.Report != nil {
		fmt.Printf("attempts log: %s\n", r.Report.AttemptsLog())
	}
}

// applyFlags overrides config file values with flags set on the command line
func applyFlags(fc *uploadbot.FileConfig) {
	setString(&fc.Target.BaseURL, *url)
	setString(&fc.Target.ResultSuffix, *suffix)
	setString((*string)(&fc.Target.Sequence), *sequence)
	setString(&fc.Target.ExpectJSONKey, *expectKey)
	if fc.Target.ResultSuffix == "" && *configFile == "" {
		fc.Target.ResultSuffix = uploadbot.DefaultResultSuffix
	}

	run := &fc.Run
	setInt(&run.Concurrency, *concurrency)
	setInt(&run.MaxThreads, *maxThreads)
	setInt(&run.Iterations, *iterations)
	if retriesSet {
		run.MaxRetries = *retries
	}
	setInt(&run.RPS, *rps)
	setDuration(&run.Delay, *delay)
	setDuration(&run.RequestTimeout, *timeout)
	setDuration(&run.RetryBackoff, *backoff)
	setString((*string)(&run.Mode), *mode)
	setString(&run.Client, *client)
	setString(&run.LogLevel, *logLevel)
	setString(&run.LogEncoding, *logEncoding)
	run.DumpTransport = run.DumpTransport || *dump
	if *csvReport || *htmlReport || *pngReport || *reportDir != "" {
		if run.ReportOptions == nil {
			run.ReportOptions = &uploadbot.ReportOptions{}
		}
		run.ReportOptions.CSV = run.ReportOptions.CSV || *csvReport || *htmlReport || *pngReport
		run.ReportOptions.HTML = run.ReportOptions.HTML || *htmlReport
		run.ReportOptions.PNG = run.ReportOptions.PNG || *pngReport
		setString(&run.ReportOptions.Dir, *reportDir)
	}
	if *promPort > 0 {
		run.Prometheus = &uploadbot.Prometheus{Enable: true, Port: *promPort}
	}

	if *file != "" {
		fc.Payloads = append(fc.Payloads, uploadbot.UploadPayload{
			FilePath:  *file,
			FieldName: *field,
			Width:     *width,
			Height:    *height,
			Format:    uploadbot.ImageFormat(*format),
		})
	}
}

func printSummary(s *uploadbot.Summary, took time.Duration) {
	fmt.Printf("run %s finished in %s\n", s.RunID, took.Round(time.Millisecond))
	for _, m := range []struct {
		kind string
		m    *uploadbot.Metrics
	}{{"GET", s.Get}, {"POST", s.Post}} {
		if m.m.Requests == 0 {
			continue
		}
		fmt.Printf("%s: %s attempts, %.2f%% success, outcomes %v, p95 %s, sent %s\n",
			m.kind,
			humanize.Comma(int64(m.m.Requests)),
			m.m.Success*100,
			m.m.Outcomes,
			m.m.Latencies.P95,
			humanize.Bytes(uint64(m.m.BytesOut)),
		)
	}
	if n := s.FailedUnits(); n > 0 {
		fmt.Fprintf(os.Stderr, "%d units failed\n", n)
	}
}

// markSet records that a flag was given on the command line, zero included
func markSet(set *bool) kingpin.Action {
	return func(*kingpin.ParseContext) error {
		*set = true
		return nil
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v != 0 {
		*dst = v
	}
}
