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

// Package persistence checkpoints ToV blocks that have become persistable
// to an external store. Checkpointing is idempotent: replaying the same
// CommitID twice must not double-apply.
package persistence

import (
	"fmt"
)

// CheckpointEntry is one persistable EEI snapshot, as reported by a
// tov.Gate's GetPersistable sweep.
type CheckpointEntry struct {
	EEIID          string
	UnicodeAddress string
	Score          float64
	CommitID       string
	// FencingToken guards against a stale writer re-applying an old commit
	// after a newer worker has taken over; nil when the adapter doesn't need
	// one.
	FencingToken *int64
}

// Persister commits a batch of checkpoint entries. Implementations must be
// idempotent on CommitID: applying the same batch twice leaves the store in
// the same state as applying it once.
type Persister interface {
	CommitBatch(entries []CheckpointEntry) error
}

// mockPersister is the default, dependency-free adapter: it prints a
// terminal summary and keeps an in-memory ledger, for local runs and tests.
type mockPersister struct {
	applied map[string]CheckpointEntry
}

// NewMockPersister constructs a Persister with no external dependencies.
func NewMockPersister() Persister {
	return &mockPersister{applied: make(map[string]CheckpointEntry)}
}

func (p *mockPersister) CommitBatch(entries []CheckpointEntry) error {
	for _, e := range entries {
		if _, seen := p.applied[e.CommitID]; seen {
			continue // idempotent replay
		}
		p.applied[e.CommitID] = e
		fmt.Printf("\033[33m[checkpoint]\033[0m eei=%s score=%.4f commit=%s\n", e.EEIID, e.Score, e.CommitID)
	}
	return nil
}
