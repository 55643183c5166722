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

// Package bus composes three priority command rings, a single result ring,
// a plasma admission gate, and a monotonic tick clock into the ATLAS Bus:
// the single point of contact between producer contexts and the consumer
// tick loop.
package bus

import (
	"sync/atomic"

	"github.com/cp5337/sx9-atlas-bus/pkg/plasma"
	"github.com/cp5337/sx9-atlas-bus/pkg/ring"
)

// Default lane capacities. Each must stay a power of two.
const (
	DefaultCriticalCapacity = 256
	DefaultUrgentCapacity   = 1024
	DefaultNormalCapacity   = 4096
	DefaultResultCapacity   = 4096
)

const (
	backpressureWarn  = 0.70
	backpressureAcute = 0.90
)

// Stats are the bus's monotonically increasing atomic counters. A snapshot
// returned from AtlasBus.Stats may be slightly stale under concurrency;
// that staleness is accepted by design.
type Stats struct {
	CommandsDispatched uint64
	CommandsDropped    uint64
	CommandsBlocked    uint64
	ResultsDropped     uint64
}

// AtlasBus is the composed bus. CK is the command payload type, RK the
// result payload type. The zero value is not usable; construct with New or
// NewWithCapacities.
type AtlasBus[CK any, RK any] struct {
	critical *ring.Ring[Command[CK]]
	urgent   *ring.Ring[Command[CK]]
	normal   *ring.Ring[Command[CK]]
	results  *ring.Ring[AtlasResult[RK]]

	gate plasma.Gate

	currentTick   atomic.Uint64
	nextRequestID atomic.Uint32

	dispatched atomic.Uint64
	dropped    atomic.Uint64
	blocked    atomic.Uint64
	resDropped atomic.Uint64
}

// New constructs an AtlasBus using the default lane capacities.
func New[CK any, RK any]() *AtlasBus[CK, RK] {
	return NewWithCapacities[CK, RK](DefaultCriticalCapacity, DefaultUrgentCapacity, DefaultNormalCapacity, DefaultResultCapacity)
}

// NewWithCapacities constructs an AtlasBus with explicit lane capacities,
// each of which must be a power of two (ring.New panics otherwise).
func NewWithCapacities[CK any, RK any](criticalCap, urgentCap, normalCap, resultCap int) *AtlasBus[CK, RK] {
	return &AtlasBus[CK, RK]{
		critical: ring.New[Command[CK]](criticalCap),
		urgent:   ring.New[Command[CK]](urgentCap),
		normal:   ring.New[Command[CK]](normalCap),
		results:  ring.New[AtlasResult[RK]](resultCap),
	}
}

// Plasma returns the bus's admission gate for direct inspection or
// transition by the outer system's housekeeping logic.
func (b *AtlasBus[CK, RK]) Plasma() *plasma.Gate {
	return &b.gate
}

// CurrentTick returns the bus's current tick, read atomically (acquire).
func (b *AtlasBus[CK, RK]) CurrentTick() uint64 {
	return b.currentTick.Load()
}

// SetTick sets the tick to an explicit value. Intended for test setup and
// recovery; normal operation should use AdvanceTick.
func (b *AtlasBus[CK, RK]) SetTick(tick uint64) {
	b.currentTick.Store(tick)
}

// AdvanceTick increments the tick by one and returns the new value. This is
// a release barrier: any dispatch that happens-after this call observes the
// new tick.
func (b *AtlasBus[CK, RK]) AdvanceTick() uint64 {
	return b.currentTick.Add(1)
}

// NextRequestID returns a fresh, bus-unique request id.
func (b *AtlasBus[CK, RK]) NextRequestID() uint32 {
	return b.nextRequestID.Add(1)
}

func (b *AtlasBus[CK, RK]) laneFor(p Priority) *ring.Ring[Command[CK]] {
	switch p {
	case Critical:
		return b.critical
	case Urgent:
		return b.urgent
	default:
		return b.normal
	}
}

// Dispatch is the producer-side entry point. It stamps TickID and RequestID
// if absent, consults the plasma gate for non-Critical priorities, routes to
// the priority lane, and reports the outcome.
func (b *AtlasBus[CK, RK]) Dispatch(c Command[CK]) DispatchOutcome {
	if c.TickID == 0 {
		c.TickID = b.currentTick.Load()
	}
	if c.RequestID == 0 {
		c.RequestID = b.NextRequestID()
	}

	if c.Priority != Critical {
		if !b.gate.IsConducting() && b.gate.SdtState() != plasma.Primed {
			b.blocked.Add(1)
			return DispatchOutcome{Status: SdtBlocked}
		}
	}

	lane := b.laneFor(c.Priority)
	if !lane.Push(c) {
		b.dropped.Add(1)
		return DispatchOutcome{Status: BufferFull}
	}
	b.dispatched.Add(1)

	pressure := lane.Pressure()
	if pressure > backpressureWarn {
		class := 2
		if pressure > backpressureAcute {
			class = 3
		}
		return DispatchOutcome{Status: Backpressure, Pressure: pressure, DeltaClass: class}
	}
	return DispatchOutcome{Status: Ok, Pressure: pressure}
}

// DispatchCritical forces priority to Critical, bypassing the plasma gate,
// before dispatching.
func (b *AtlasBus[CK, RK]) DispatchCritical(c Command[CK]) DispatchOutcome {
	c.Priority = Critical
	return b.Dispatch(c)
}

// PopCritical pops the next command from the critical lane only.
func (b *AtlasBus[CK, RK]) PopCritical() (Command[CK], bool) {
	return b.critical.Pop()
}

// PopUrgent pops the next command from the urgent lane only.
func (b *AtlasBus[CK, RK]) PopUrgent() (Command[CK], bool) {
	return b.urgent.Pop()
}

// PopNormal pops the next command from the normal lane only.
func (b *AtlasBus[CK, RK]) PopNormal() (Command[CK], bool) {
	return b.normal.Pop()
}

// Pop returns the next command in strict priority order: critical first,
// then urgent, then normal.
func (b *AtlasBus[CK, RK]) Pop() (Command[CK], bool) {
	if c, ok := b.critical.Pop(); ok {
		return c, true
	}
	if c, ok := b.urgent.Pop(); ok {
		return c, true
	}
	return b.normal.Pop()
}

// HasPending reports whether any lane still has a command queued.
func (b *AtlasBus[CK, RK]) HasPending() bool {
	return !b.critical.IsEmpty() || !b.urgent.IsEmpty() || !b.normal.IsEmpty()
}

// Drain pops every currently-queued command in priority order. It is a
// snapshot at the moment each pop is issued, not an atomic bulk operation.
func (b *AtlasBus[CK, RK]) Drain() []Command[CK] {
	var out []Command[CK]
	for {
		c, ok := b.Pop()
		if !ok {
			break
		}
		out = append(out, c)
	}
	return out
}

// Tick pops commands in priority order until all three lanes are observed
// empty at the moment of the call. It is a finite iterator, not a strict
// snapshot: a producer racing with Tick may add work the iterator never
// sees.
func (b *AtlasBus[CK, RK]) Tick() []Command[CK] {
	return b.Drain()
}

// Respond is the consumer-side entry point for results. It stamps TickID if
// zero and pushes to the result ring.
func (b *AtlasBus[CK, RK]) Respond(r AtlasResult[RK]) bool {
	if r.TickID == 0 {
		r.TickID = b.currentTick.Load()
	}
	if !b.results.Push(r) {
		b.resDropped.Add(1)
		return false
	}
	return true
}

// PopResult pops the next pending result, if any.
func (b *AtlasBus[CK, RK]) PopResult() (AtlasResult[RK], bool) {
	return b.results.Pop()
}

// HasResults reports whether any result is currently queued.
func (b *AtlasBus[CK, RK]) HasResults() bool {
	return !b.results.IsEmpty()
}

// DrainResults pops every currently-queued result.
func (b *AtlasBus[CK, RK]) DrainResults() []AtlasResult[RK] {
	var out []AtlasResult[RK]
	for {
		r, ok := b.PopResult()
		if !ok {
			break
		}
		out = append(out, r)
	}
	return out
}

// Pressure returns the maximum pressure across the three command lanes,
// the figure an outer system typically wants when deciding whether to
// throttle producers.
func (b *AtlasBus[CK, RK]) Pressure() float32 {
	p := b.critical.Pressure()
	if u := b.urgent.Pressure(); u > p {
		p = u
	}
	if n := b.normal.Pressure(); n > p {
		p = n
	}
	return p
}

// Stats returns a snapshot of the bus's monotonic statistics counters.
func (b *AtlasBus[CK, RK]) Stats() Stats {
	return Stats{
		CommandsDispatched: b.dispatched.Load(),
		CommandsDropped:    b.dropped.Load(),
		CommandsBlocked:    b.blocked.Load(),
		ResultsDropped:     b.resDropped.Load(),
	}
}

// Clear drops every pending command and result. The only destructive
// recovery operation the bus exposes.
func (b *AtlasBus[CK, RK]) Clear() {
	b.critical.Clear()
	b.urgent.Clear()
	b.normal.Clear()
	b.results.Clear()
}
