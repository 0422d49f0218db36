/*
 * // Copyright 2020 Insolar Network Ltd.
 * // All rights reserved.
 * // This material is licensed under the Insolar License version 1.0,
 * // available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.
 */

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin"

	"github.com/insolar/uploadbot"
)

var (
	addr       = kingpin.Flag("addr", "Listen address.").Default("0.0.0.0:9031").String()
	latency    = kingpin.Flag("latency", "Sleep before every response.").Default("0s").Duration()
	postStatus = kingpin.Flag("post-status", "Force POST status, 0 is normal behaviour.").Int()
)

func main() {
	kingpin.Parse()
	s := uploadbot.NewDummyService()
	s.SetLatency(*latency)
	s.SetPostStatus(*postStatus)
	srv := uploadbot.RunTestServer(*addr, s)
	log.Printf("dummy image service listening on %s", *addr)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Print(err)
	}
	log.Printf("served GET: %d, POST: %d", s.Gets(), s.Posts())
}
