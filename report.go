/*
 * // Copyright 2020 Insolar Network Ltd.
 * // All rights reserved.
 * // This material is licensed under the Insolar License version 1.0,
 * // available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.
 */

package uploadbot

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	AttemptsLogFile = "attempts_%s_%s_%d.csv"
	ReportHTMLFile  = "latency_%s_%s_%d.html"
	ReportPNGFile   = "latency_%s_%s_%d.png"
)

var (
	AttemptsCsvHeader = []string{"Kind", "Worker", "Iteration", "Attempt", "BeginTimeNano", "EndTimeNano", "ElapsedMs", "Outcome", "StatusCode", "Error"}
)

type Report struct {
	runId            string
	runName          string
	attemptsFilename string
	htmlFilename     string
	pngFilename      string
	attemptsFile     *os.File
	attemptsLog      *csv.Writer
	reportOptions    *ReportOptions
	L                *Logger
}

func NewReport(cfg *RunConfig, runId string, l *Logger) (*Report, error) {
	tn := time.Now().Unix()
	dir := cfg.ReportOptions.Dir
	r := &Report{
		runId:            runId,
		runName:          cfg.Name,
		attemptsFilename: filepath.Join(dir, fmt.Sprintf(AttemptsLogFile, cfg.Name, runId, tn)),
		htmlFilename:     filepath.Join(dir, fmt.Sprintf(ReportHTMLFile, cfg.Name, runId, tn)),
		pngFilename:      filepath.Join(dir, fmt.Sprintf(ReportPNGFile, cfg.Name, runId, tn)),
		reportOptions:    cfg.ReportOptions,
		L:                l.With("report", cfg.Name),
	}
	f, err := CreateFileOrReplace(r.attemptsFilename)
	if err != nil {
		return nil, err
	}
	r.attemptsFile = f
	r.attemptsLog = csv.NewWriter(f)
	_ = r.attemptsLog.Write(AttemptsCsvHeader)
	return r, nil
}

// AttemptsLog csv file path
func (r *Report) AttemptsLog() string {
	return r.attemptsFilename
}

// HTMLReport chart file path
func (r *Report) HTMLReport() string {
	return r.htmlFilename
}

// PNGReport chart file path
func (r *Report) PNGReport() string {
	return r.pngFilename
}

func (r *Report) writeResultEntry(res AttemptResult) {
	_ = r.attemptsLog.Write([]string{
		string(res.Kind),
		strconv.Itoa(res.Worker),
		strconv.Itoa(res.Iteration + 1),
		strconv.Itoa(res.Attempt),
		strconv.FormatInt(res.Begin.UnixNano(), 10),
		strconv.FormatInt(res.End.UnixNano(), 10),
		strconv.FormatInt(res.Elapsed.Milliseconds(), 10),
		string(res.Outcome),
		strconv.Itoa(res.StatusCode),
		res.Error,
	})
}

// close flushes and closes attempts log, then renders charts from it
func (r *Report) close() {
	r.attemptsLog.Flush()
	if err := r.attemptsLog.Error(); err != nil {
		r.L.Error(err)
	}
	if err := r.attemptsFile.Close(); err != nil {
		r.L.Error(err)
	}
	r.plot()
}

func (r *Report) plot() {
	if !r.reportOptions.HTML && !r.reportOptions.PNG {
		return
	}
	d, err := parseAttemptsData(r.attemptsFilename)
	if err != nil {
		r.L.Error(err)
		return
	}
	title := fmt.Sprintf("%s latency", r.runName)
	if r.reportOptions.HTML {
		r.L.Infof("reporting html chart: %s", r.htmlFilename)
		if err := RenderEChart(LatencyEChart(d, title), r.htmlFilename); err != nil {
			r.L.Error(err)
		}
	}
	if r.reportOptions.PNG {
		r.L.Infof("reporting png chart: %s", r.pngFilename)
		if err := RenderChart(LatencyChart(d, title), r.pngFilename); err != nil {
			r.L.Error(err)
		}
	}
}
