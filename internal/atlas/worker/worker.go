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

// Package worker runs the background loops an ATLAS daemon needs around the
// bus and ToV gate: advancing the tick clock and draining commands,
// checkpointing persistable ToV blocks, and sweeping expired ones.
package worker

import (
	"fmt"
	"sync"
	"time"

	"github.com/cp5337/sx9-atlas-bus/internal/atlas/persistence"
	"github.com/cp5337/sx9-atlas-bus/internal/atlas/telemetry"
	"github.com/cp5337/sx9-atlas-bus/pkg/bus"
	"github.com/cp5337/sx9-atlas-bus/pkg/tov"
)

// Handler processes one command popped from the bus and produces its
// result. CK/RK mirror the bus's payload type parameters.
type Handler[CK any, RK any] func(bus.Command[CK]) bus.AtlasResult[RK]

// Worker drives a tick loop, a checkpoint loop, and an expiry loop, each on
// its own ticker, the same multi-loop-per-ticker shape used throughout this
// codebase for background housekeeping.
type Worker[CK any, RK any] struct {
	b         *bus.AtlasBus[CK, RK]
	gate      *tov.Gate
	persister persistence.Persister
	handler   Handler[CK, RK]
	telemetry telemetry.Config

	tickInterval       time.Duration
	checkpointInterval time.Duration
	expiryInterval     time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewWorker constructs a Worker. handler may be nil, in which case popped
// commands are simply dropped without producing a result (useful for
// pressure/throughput testing of the bus alone).
func NewWorker[CK any, RK any](
	b *bus.AtlasBus[CK, RK],
	gate *tov.Gate,
	persister persistence.Persister,
	handler Handler[CK, RK],
	tickInterval, checkpointInterval, expiryInterval time.Duration,
	telemetryCfg telemetry.Config,
) *Worker[CK, RK] {
	return &Worker[CK, RK]{
		b:                  b,
		gate:               gate,
		persister:          persister,
		handler:            handler,
		telemetry:          telemetryCfg,
		tickInterval:       tickInterval,
		checkpointInterval: checkpointInterval,
		expiryInterval:     expiryInterval,
		stopChan:           make(chan struct{}),
	}
}

// Start launches the three background loops.
func (w *Worker[CK, RK]) Start() {
	w.wg.Add(3)
	go w.tickLoop()
	go w.checkpointLoop()
	go w.expiryLoop()
}

// Stop signals all loops to exit and waits for them to finish.
func (w *Worker[CK, RK]) Stop() {
	close(w.stopChan)
	w.wg.Wait()
}

func (w *Worker[CK, RK]) tickLoop() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.runTickCycle()
		}
	}
}

func (w *Worker[CK, RK]) runTickCycle() {
	w.b.AdvanceTick()
	for _, c := range w.b.Tick() {
		if w.handler != nil {
			w.b.Respond(w.handler(c))
		}
	}
	stats := w.b.Stats()
	telemetry.ObserveBus(w.telemetry, "bus", telemetry.BusSample{
		Dispatched: stats.CommandsDispatched,
		Dropped:    stats.CommandsDropped,
		Blocked:    stats.CommandsBlocked,
		Pressure:   w.b.Pressure(),
	})
}

func (w *Worker[CK, RK]) checkpointLoop() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.checkpointInterval)
	defer ticker.Stop()
	for {
		select {
		case <-w.stopChan:
			w.runCheckpointCycle() // final flush
			return
		case <-ticker.C:
			w.runCheckpointCycle()
		}
	}
}

func (w *Worker[CK, RK]) runCheckpointCycle() {
	if w.gate == nil || w.persister == nil {
		return
	}
	persistable := w.gate.GetPersistable()
	if len(persistable) == 0 {
		return
	}
	entries := make([]persistence.CheckpointEntry, 0, len(persistable))
	for _, b := range persistable {
		score, ok := w.gate.EffectiveScore(b.EEIID)
		if !ok {
			continue
		}
		entries = append(entries, persistence.CheckpointEntry{
			EEIID:          b.EEIID,
			UnicodeAddress: b.UnicodeAddress,
			Score:          score,
			CommitID:       b.EEIID + ":" + b.UnicodeAddress,
		})
	}
	if limit := GetThresholdSnapshot().MaxCheckpointBatch; limit > 0 && int64(len(entries)) > limit {
		entries = entries[:limit]
	}
	if err := w.persister.CommitBatch(entries); err != nil {
		fmt.Printf("ERROR: Failed to commit batch: %v\n", err)
	}
}

func (w *Worker[CK, RK]) expiryLoop() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.expiryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.runExpiryCycle()
		}
	}
}

func (w *Worker[CK, RK]) runExpiryCycle() {
	if w.gate == nil {
		return
	}
	w.gate.ExpireInvalid()
	stats := w.gate.Stats()
	telemetry.ObserveTov(w.telemetry, "tov", telemetry.TovSample{
		Active:  stats.ActiveEEIs,
		Expired: stats.EEIsExpired,
		Blocked: stats.CollectionsBlocked,
	})
}
