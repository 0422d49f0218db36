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
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func pprofHandlers(r *http.ServeMux) {
	r.HandleFunc("/debug/pprof/", pprof.Index)
	r.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	r.HandleFunc("/debug/pprof/profile", pprof.Profile)
	r.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	r.HandleFunc("/debug/pprof/trace", pprof.Trace)
}

// MetricsHandler serves /metrics and /debug/pprof
func MetricsHandler() http.Handler {
	m := http.NewServeMux()
	m.Handle("/metrics", promhttp.Handler())
	pprofHandlers(m)
	return m
}

// startMetricsServer serves metrics until returned stop func is called
func startMetricsServer(port int, l *Logger) func() {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: MetricsHandler(),
	}
	go func() {
		l.Infof("serving metrics on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Error(err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
