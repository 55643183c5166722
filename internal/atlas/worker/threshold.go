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

package worker

import (
	"sync"
	"time"
)

// Runtime-adjustable operational thresholds, settable from flags at daemon
// startup and readable for the final-metrics report. Package-level because
// they describe one process's operational posture, not per-bus state.
var (
	thresholdMu         sync.RWMutex
	minPersistScore     float64 = 0.5
	maxCheckpointBatch  int64   = 500
	expiryGracePeriod   time.Duration
)

// SetMinPersistScore records the persist-score threshold reported in the
// threshold snapshot. It does not change tov.Gate registrations, which
// always start with ScoreThreshold(0.5).
func SetMinPersistScore(v float64) {
	thresholdMu.Lock()
	defer thresholdMu.Unlock()
	minPersistScore = v
}

// SetMaxCheckpointBatch caps how many entries a single checkpoint cycle will
// submit to the persister in one CommitBatch call.
func SetMaxCheckpointBatch(n int64) {
	thresholdMu.Lock()
	defer thresholdMu.Unlock()
	maxCheckpointBatch = n
}

// SetExpiryGracePeriod records an expiry grace period reported in the
// threshold snapshot. The expiry sweep does not apply it: blocks are removed
// as soon as they pass their own actionable_until.
func SetExpiryGracePeriod(d time.Duration) {
	thresholdMu.Lock()
	defer thresholdMu.Unlock()
	expiryGracePeriod = d
}

// ThresholdSnapshot is a point-in-time read of every adjustable threshold,
// for startup logging and the daemon's final-metrics report.
type ThresholdSnapshot struct {
	MinPersistScore    float64
	MaxCheckpointBatch int64
	ExpiryGracePeriod  time.Duration
}

// GetThresholdSnapshot returns the current threshold values.
func GetThresholdSnapshot() ThresholdSnapshot {
	thresholdMu.RLock()
	defer thresholdMu.RUnlock()
	return ThresholdSnapshot{
		MinPersistScore:    minPersistScore,
		MaxCheckpointBatch: maxCheckpointBatch,
		ExpiryGracePeriod:  expiryGracePeriod,
	}
}
