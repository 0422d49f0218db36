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
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"
)

// handleShutdownSignal cancels the run on SIGINT/SIGTERM, requests in flight end by their timeout
func (r *Runner) handleShutdownSignal(ctx context.Context, cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-ctx.Done():
			return
		case <-sigs:
			r.L.Infof("exit signal received, stopping workers")
			if r.Cfg.GoroutinesDump {
				buf := make([]byte, 1<<20)
				stacklen := runtime.Stack(buf, true)
				r.L.Infof("=== received SIGTERM ===\n*** goroutine dump...\n%s\n*** end\n", buf[:stacklen])
			}
			cancel()
		}
	}()
}

// sleepCtx sleeps for d, returns false if ctx is done before
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func CreateFileOrReplace(fname string) (*os.File, error) {
	fpath, err := filepath.Abs(fname)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(fpath), 0755); err != nil {
		return nil, err
	}
	return os.Create(fpath)
}

func maxValue(array []float64) float64 {
	if len(array) == 0 {
		return 0
	}
	var max = array[0]
	for _, value := range array {
		if max < value {
			max = value
		}
	}
	return max
}
