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

// Package telemetry exports bus and ToV gate KPIs as Prometheus metrics and
// serves them over /metrics.
package telemetry

import (
	"context"
	"fmt"
	"hash/fnv"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config controls telemetry sampling and the metrics listener.
type Config struct {
	ListenAddr   string
	SampleEvery  int // only every Nth BusSample/TovSample call is recorded; 1 = no sampling
}

var (
	busDispatchedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "atlas_bus_commands_dispatched_total",
		Help: "Commands successfully dispatched onto the bus.",
	})
	busDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "atlas_bus_commands_dropped_total",
		Help: "Commands dropped because their lane was full.",
	})
	busBlockedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "atlas_bus_commands_blocked_total",
		Help: "Non-critical commands blocked by the plasma gate.",
	})
	busPressure = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "atlas_bus_pressure",
		Help: "Maximum pressure (len/capacity) across command lanes.",
	})
	tovActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "atlas_tov_active_eeis",
		Help: "Number of currently registered EEIs.",
	})
	tovExpiredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "atlas_tov_eeis_expired_total",
		Help: "EEIs removed by expiry sweeps.",
	})
	tovBlockedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "atlas_tov_collections_blocked_total",
		Help: "Collection attempts blocked by the IWAS gate.",
	})
)

var registerOnce = func() func() {
	done := false
	return func() {
		if done {
			return
		}
		done = true
		prometheus.MustRegister(busDispatchedTotal, busDroppedTotal, busBlockedTotal, busPressure,
			tovActive, tovExpiredTotal, tovBlockedTotal)
	}
}()

// Enable registers the collectors (idempotent) and starts the /metrics
// listener in a background goroutine. An error from that listener is
// discarded: the goroutine exits and the listener is not restarted.
func Enable(cfg Config) {
	registerOnce()
	if cfg.ListenAddr == "" {
		return
	}
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}
		_ = srv.ListenAndServe()
	}()
}

// sampleCounter is incremented on every ObserveBus and ObserveTov call made
// with Config.SampleEvery > 1; used to decide whether this call actually
// records.
var sampleCounter uint64

// lastBus and lastTov hold the most recently recorded samples, so the
// cumulative counters in each new sample are added as increments.
var (
	lastBus BusSample
	lastTov TovSample
)

func shouldSample(key string, every int) bool {
	if every <= 1 {
		return true
	}
	h := fnv.New32a()
	fmt.Fprint(h, key)
	sampleCounter++
	return (h.Sum32()+uint32(sampleCounter))%uint32(every) == 0
}

// BusSample is a point-in-time snapshot of bus counters, reported by the
// worker's tick loop.
type BusSample struct {
	Dispatched uint64
	Dropped    uint64
	Blocked    uint64
	Pressure   float32
}

// ObserveBus records a bus sample, honoring the sampling cadence.
func ObserveBus(cfg Config, key string, s BusSample) {
	if !shouldSample(key, cfg.SampleEvery) {
		return
	}
	busDispatchedTotal.Add(float64(s.Dispatched - lastBus.Dispatched))
	busDroppedTotal.Add(float64(s.Dropped - lastBus.Dropped))
	busBlockedTotal.Add(float64(s.Blocked - lastBus.Blocked))
	busPressure.Set(float64(s.Pressure))
	lastBus = s
}

// TovSample is a point-in-time snapshot of ToV gate counters.
type TovSample struct {
	Active      uint64
	Expired     uint64
	Blocked     uint64
}

// ObserveTov records a ToV sample, honoring the sampling cadence.
func ObserveTov(cfg Config, key string, s TovSample) {
	if !shouldSample(key, cfg.SampleEvery) {
		return
	}
	tovActive.Set(float64(s.Active))
	tovExpiredTotal.Add(float64(s.Expired - lastTov.Expired))
	tovBlockedTotal.Add(float64(s.Blocked - lastTov.Blocked))
	lastTov = s
}

// Shutdown is a placeholder hook for symmetry with Enable; the metrics
// listener has no graceful-drain requirement beyond the outer context's
// cancellation, handled by the caller.
func Shutdown(ctx context.Context) {
	<-ctx.Done()
}
