// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command atlasd wires the ATLAS Bus, its ToV gate, and the background
// worker loops (tick, checkpoint, expiry) into a runnable daemon fronted by
// an HTTP producer surface and a Prometheus /metrics endpoint.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cp5337/sx9-atlas-bus/internal/atlas/api"
	"github.com/cp5337/sx9-atlas-bus/internal/atlas/persistence"
	"github.com/cp5337/sx9-atlas-bus/internal/atlas/telemetry"
	"github.com/cp5337/sx9-atlas-bus/internal/atlas/worker"
	"github.com/cp5337/sx9-atlas-bus/pkg/bus"
	"github.com/cp5337/sx9-atlas-bus/pkg/tov"
)

func main() {
	httpAddr := flag.String("http_addr", ":8080", "HTTP listen address for the producer surface")
	metricsAddr := flag.String("metrics_addr", "", "If non-empty, expose Prometheus /metrics on this address (e.g., :9090)")
	adapter := flag.String("persistence", "mock", "checkpoint adapter: mock, redis, kafka (postgres needs a database handle this command does not supply, so it fails at startup)")
	redisAddr := flag.String("redis_addr", "localhost:6379", "Redis address, used when -persistence=redis")
	kafkaTopic := flag.String("kafka_topic", "atlas-tov-commits", "Kafka topic, used when -persistence=kafka")
	tickInterval := flag.Duration("tick_interval", 10*time.Millisecond, "bus tick loop interval")
	checkpointInterval := flag.Duration("checkpoint_interval", time.Second, "ToV checkpoint loop interval")
	expiryInterval := flag.Duration("expiry_interval", 5*time.Second, "ToV expiry sweep interval")
	minPersistScore := flag.Float64("min_persist_score", 0.5, "persist-score threshold shown in the final stats (ToV registrations always start at ScoreThreshold 0.5)")
	maxCheckpointBatch := flag.Int64("max_checkpoint_batch", 500, "cap on entries submitted per checkpoint cycle")
	flag.Parse()

	// Capture operational thresholds for the final-metrics report.
	worker.SetMinPersistScore(*minPersistScore)
	worker.SetMaxCheckpointBatch(*maxCheckpointBatch)

	persister, err := persistence.BuildPersister(*adapter, persistence.Options{
		RedisAddr:  *redisAddr,
		KafkaTopic: *kafkaTopic,
	})
	if err != nil {
		log.Fatalf("atlasd: building persister: %v", err)
	}

	telemetry.Enable(telemetry.Config{ListenAddr: *metricsAddr, SampleEvery: 1})

	atlasBus := bus.New[json.RawMessage, json.RawMessage]()
	// Prime and trigger so the SDT gate conducts non-critical traffic from
	// the moment the daemon comes up; an operator wanting staged rollout
	// can Latch() it externally before any producers connect.
	atlasBus.Plasma().Prime()
	atlasBus.Plasma().Trigger(0)

	gate := tov.NewGate(tov.Medium)

	w := worker.NewWorker[json.RawMessage, json.RawMessage](
		atlasBus, gate, persister, nil,
		*tickInterval, *checkpointInterval, *expiryInterval,
		telemetry.Config{SampleEvery: 1},
	)
	w.Start()

	srv := api.NewServer(atlasBus)
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	httpServer := &http.Server{
		Addr:         *httpAddr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		fmt.Printf("atlasd: producer surface listening on %s (persistence=%s)\n", *httpAddr, *adapter)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("atlasd: http server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	fmt.Println("\natlasd: shutting down")
	w.Stop() // final checkpoint flush happens inside Stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("atlasd: server shutdown failed: %v", err)
	}

	snap := worker.GetThresholdSnapshot()
	stats := atlasBus.Stats()
	tovStats := gate.Stats()
	fmt.Printf("\033[33m[atlasd] final stats\033[0m dispatched=%d dropped=%d blocked=%d results_dropped=%d "+
		"tov_registered=%d tov_expired=%d min_persist_score=%.2f\n",
		stats.CommandsDispatched, stats.CommandsDropped, stats.CommandsBlocked, stats.ResultsDropped,
		tovStats.EEIsRegistered, tovStats.EEIsExpired, snap.MinPersistScore)
	fmt.Println("atlasd: stopped")
}
