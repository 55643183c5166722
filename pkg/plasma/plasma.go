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

// Package plasma implements the SDT (sense-decide-transition) admission
// gate that guards non-critical traffic on the bus. The gate is a small
// atomic state machine, not a scheduler: it answers one question, "may a
// non-critical command be admitted right now", cheaply enough to call on
// every dispatch.
package plasma

import "sync/atomic"

// State is one of the four SDT gate states.
type State int32

const (
	// Off admits nothing. The initial state.
	Off State = iota
	// Primed has armed the gate but not yet begun conducting; the bus
	// already admits non-critical traffic in this state.
	Primed
	// Conducting admits non-critical traffic.
	Conducting
	// Latched has tripped (on an operator or internal fault signal) and
	// blocks all non-critical traffic until an explicit Reset.
	Latched
)

func (s State) String() string {
	switch s {
	case Off:
		return "off"
	case Primed:
		return "primed"
	case Conducting:
		return "conducting"
	case Latched:
		return "latched"
	default:
		return "unknown"
	}
}

// Gate is the SDT admission gate. The zero value is Off and ready to use.
//
// Legal transitions:
//
//	Off        -> Primed     Prime()
//	Primed     -> Conducting Trigger(deltaTheta)
//	Conducting -> Latched    Latch()
//	Conducting -> Off        Discharge()
//	Latched    -> Off        Reset()
//	(any)      -> Off        Reset()
//
// Every transition is a single CAS on one atomic word; redundant or
// out-of-order calls collapse into no-ops rather than erroring.
type Gate struct {
	state      atomic.Int32
	deltaTheta atomic.Int64 // δθ, advisory telemetry only
	excite     atomic.Uint64
}

// Prime transitions Off -> Primed. A no-op (returning the state actually
// observed) if the gate is not Off.
func (g *Gate) Prime() State {
	g.state.CompareAndSwap(int32(Off), int32(Primed))
	return State(g.state.Load())
}

// Trigger transitions Primed -> Conducting and records deltaTheta into the
// advisory δθ accumulator. A no-op if the gate is not Primed.
func (g *Gate) Trigger(deltaTheta int64) State {
	if g.state.CompareAndSwap(int32(Primed), int32(Conducting)) {
		g.deltaTheta.Add(deltaTheta)
		g.excite.Add(1)
	}
	return State(g.state.Load())
}

// Latch transitions Conducting -> Latched. A no-op from any other state:
// callers representing an internal fault should call Latch unconditionally
// and rely on this no-op behavior when the gate is already safe.
func (g *Gate) Latch() State {
	g.state.CompareAndSwap(int32(Conducting), int32(Latched))
	return State(g.state.Load())
}

// Discharge transitions Conducting -> Off. A no-op if the gate is not
// Conducting.
func (g *Gate) Discharge() State {
	g.state.CompareAndSwap(int32(Conducting), int32(Off))
	return State(g.state.Load())
}

// Reset returns the gate to Off from any state, including Latched. This is
// the only way out of Latched and always requires explicit operator intent;
// there is no timed auto-reset.
func (g *Gate) Reset() State {
	g.state.Store(int32(Off))
	return Off
}

// SdtState returns the current gate state, read atomically.
func (g *Gate) SdtState() State {
	return State(g.state.Load())
}

// IsConducting reports whether the gate is currently in the Conducting
// state. The bus admits non-critical traffic when this is true or when the
// gate is Primed.
func (g *Gate) IsConducting() bool {
	return State(g.state.Load()) == Conducting
}

// DeltaTheta returns the accumulated δθ telemetry value. Advisory only; it
// never affects IsConducting.
func (g *Gate) DeltaTheta() int64 {
	return g.deltaTheta.Load()
}

// Excitation returns the cumulative excitation count (number of successful
// Primed -> Conducting transitions). Advisory only.
func (g *Gate) Excitation() uint64 {
	return g.excite.Load()
}
