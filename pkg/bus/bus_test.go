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

package bus

import "testing"

func primedBus[CK any, RK any](b *AtlasBus[CK, RK]) {
	b.Plasma().Prime()
	b.Plasma().Trigger(0)
}

func TestPriorityDrain(t *testing.T) {
	b := New[int, int]()
	primedBus(b)

	b.Dispatch(Command[int]{Priority: Normal, Payload: 1})
	b.Dispatch(Command[int]{Priority: Urgent, Payload: 2})
	b.Dispatch(Command[int]{Priority: Critical, Payload: 3})

	order := []int{}
	for {
		c, ok := b.Pop()
		if !ok {
			break
		}
		order = append(order, c.Payload)
	}
	want := []int{3, 2, 1}
	if len(order) != 3 {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}

	stats := b.Stats()
	if stats.CommandsDispatched != 3 || stats.CommandsDropped != 0 || stats.CommandsBlocked != 0 {
		t.Fatalf("stats = %+v, want dispatched=3 dropped=0 blocked=0", stats)
	}
}

func TestSdtBlocking(t *testing.T) {
	b := New[int, int]() // plasma Off

	out := b.Dispatch(Command[int]{Priority: Normal, Payload: 1})
	if out.Status != SdtBlocked {
		t.Fatalf("Dispatch(Normal) on Off bus = %v, want SdtBlocked", out.Status)
	}

	out = b.Dispatch(Command[int]{Priority: Critical, Payload: 2})
	if out.Status != Ok {
		t.Fatalf("Dispatch(Critical) = %v, want Ok", out.Status)
	}

	c, ok := b.Pop()
	if !ok || c.Payload != 2 {
		t.Fatalf("Pop() = (%v,%v), want (2,true)", c.Payload, ok)
	}
	if _, ok := b.Pop(); ok {
		t.Fatalf("expected no further commands")
	}

	if stats := b.Stats(); stats.CommandsBlocked != 1 {
		t.Fatalf("CommandsBlocked = %d, want 1", stats.CommandsBlocked)
	}
}

func TestBackpressureClass3(t *testing.T) {
	b := NewWithCapacities[int, int](DefaultCriticalCapacity, DefaultUrgentCapacity, 16, DefaultResultCapacity)
	primedBus(b)

	var last DispatchOutcome
	for i := 0; i < 16; i++ {
		last = b.Dispatch(Command[int]{Priority: Normal, Payload: i})
		if last.Status == BufferFull {
			t.Fatalf("unexpected BufferFull at i=%d", i)
		}
	}
	if last.Status != Backpressure || last.DeltaClass != 3 {
		t.Fatalf("16th push outcome = %+v, want Backpressure/class 3", last)
	}
	if last.Pressure < 0.9 {
		t.Fatalf("pressure = %v, want >= 0.9", last.Pressure)
	}

	overflow := b.Dispatch(Command[int]{Priority: Normal, Payload: 99})
	if overflow.Status != BufferFull {
		t.Fatalf("17th push = %v, want BufferFull", overflow.Status)
	}
	if stats := b.Stats(); stats.CommandsDropped != 1 {
		t.Fatalf("CommandsDropped = %d, want 1", stats.CommandsDropped)
	}
}

func TestTickTaggingNeverZero(t *testing.T) {
	b := New[int, int]()
	primedBus(b)
	b.AdvanceTick()

	b.Dispatch(Command[int]{Priority: Critical, Payload: 1})
	c, _ := b.Pop()
	if c.TickID == 0 {
		t.Fatalf("expected non-zero TickID")
	}
	if c.RequestID == 0 {
		t.Fatalf("expected non-zero RequestID")
	}
}

func TestRespondTagsTickAndOverflows(t *testing.T) {
	b := NewWithCapacities[int, int](DefaultCriticalCapacity, DefaultUrgentCapacity, DefaultNormalCapacity, 2)
	b.AdvanceTick()

	for i := 0; i < 2; i++ {
		if !b.Respond(AtlasResult[int]{RequestID: uint32(i + 1)}) {
			t.Fatalf("Respond(%d) unexpectedly failed", i)
		}
	}
	if b.Respond(AtlasResult[int]{RequestID: 99}) {
		t.Fatalf("expected overflow Respond to fail")
	}
	if stats := b.Stats(); stats.ResultsDropped != 1 {
		t.Fatalf("ResultsDropped = %d, want 1", stats.ResultsDropped)
	}

	r, ok := b.PopResult()
	if !ok || r.TickID == 0 {
		t.Fatalf("expected first result with non-zero TickID")
	}
}

func TestDispatchAtCapacityBoundary(t *testing.T) {
	b := NewWithCapacities[int, int](4, DefaultUrgentCapacity, DefaultNormalCapacity, DefaultResultCapacity)
	// First 3 dispatches bring occupancy to capacity-1; all must succeed.
	for i := 0; i < 3; i++ {
		out := b.DispatchCritical(Command[int]{Payload: i})
		if out.Status == BufferFull {
			t.Fatalf("unexpected BufferFull before capacity, i=%d", i)
		}
	}
	// 4th dispatch: occupancy was capacity-1, so this one must succeed and
	// bring the lane to exactly capacity.
	out := b.DispatchCritical(Command[int]{Payload: 3})
	if out.Status == BufferFull {
		t.Fatalf("expected dispatch at occupancy capacity-1 to succeed")
	}
	// 5th dispatch: occupancy is now at capacity, so this one must fail.
	out = b.DispatchCritical(Command[int]{Payload: 4})
	if out.Status != BufferFull {
		t.Fatalf("expected dispatch at full capacity to return BufferFull, got %v", out.Status)
	}
}

func TestClearOnEmptyBusIsNoOp(t *testing.T) {
	b := New[int, int]()
	b.Clear()
	if b.HasPending() || b.HasResults() {
		t.Fatalf("expected empty bus after Clear on empty bus")
	}
}

func TestDispatchPopRoundTrip(t *testing.T) {
	b := New[string, string]()
	primedBus(b)
	cmd := Command[string]{Kind: "probe", Priority: Urgent, Payload: "hello"}
	b.Dispatch(cmd)
	got, ok := b.Pop()
	if !ok {
		t.Fatalf("expected a command to be popped")
	}
	if got.Kind != cmd.Kind || got.Payload != cmd.Payload || got.Priority != cmd.Priority {
		t.Fatalf("round-trip mismatch: got %+v", got)
	}
}

func TestDrainResultsEmptyAfterDrain(t *testing.T) {
	b := New[int, int]()
	b.Respond(AtlasResult[int]{RequestID: 1})
	b.Respond(AtlasResult[int]{RequestID: 2})
	results := b.DrainResults()
	if len(results) != 2 {
		t.Fatalf("DrainResults() len = %d, want 2", len(results))
	}
	if b.HasResults() {
		t.Fatalf("expected no results pending after drain")
	}
}
