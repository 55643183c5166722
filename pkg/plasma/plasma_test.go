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

package plasma

import (
	"sync"
	"testing"
)

func TestZeroValueIsOff(t *testing.T) {
	var g Gate
	if g.SdtState() != Off {
		t.Fatalf("zero value state = %v, want Off", g.SdtState())
	}
	if g.IsConducting() {
		t.Fatalf("Off gate must not conduct")
	}
}

func TestForwardProgression(t *testing.T) {
	var g Gate
	if s := g.Prime(); s != Primed {
		t.Fatalf("Prime() = %v, want Primed", s)
	}
	if g.IsConducting() {
		t.Fatalf("Primed gate must not conduct")
	}
	if s := g.Trigger(7); s != Conducting {
		t.Fatalf("Trigger() = %v, want Conducting", s)
	}
	if !g.IsConducting() {
		t.Fatalf("Conducting gate must conduct")
	}
}

func TestTriggerNoOpWithoutPrime(t *testing.T) {
	var g Gate
	if s := g.Trigger(1); s != Off {
		t.Fatalf("Trigger() from Off = %v, want Off (no-op)", s)
	}
}

func TestIdempotentTransitions(t *testing.T) {
	var g Gate
	g.Prime()
	g.Prime()
	if g.SdtState() != Primed {
		t.Fatalf("double Prime() moved state to %v", g.SdtState())
	}
	g.Trigger(1)
	g.Trigger(1)
	if g.SdtState() != Conducting {
		t.Fatalf("double Trigger() moved state to %v", g.SdtState())
	}
	if g.Excitation() != 1 {
		t.Fatalf("Excitation() = %d, want 1 (second Trigger must be a no-op)", g.Excitation())
	}
}

func TestLatchOnlyFromConducting(t *testing.T) {
	var g Gate
	g.Latch()
	if g.SdtState() != Off {
		t.Fatalf("Latch() from Off = %v, want Off (no-op)", g.SdtState())
	}
	g.Prime()
	g.Trigger(0)
	if s := g.Latch(); s != Latched {
		t.Fatalf("Latch() from Conducting = %v, want Latched", s)
	}
	if g.IsConducting() {
		t.Fatalf("Latched gate must never conduct")
	}
}

func TestDischargeReturnsToOff(t *testing.T) {
	var g Gate
	g.Prime()
	g.Trigger(0)
	if s := g.Discharge(); s != Off {
		t.Fatalf("Discharge() = %v, want Off", s)
	}
	if g.IsConducting() {
		t.Fatalf("expected not conducting after Discharge")
	}
}

func TestPrimeTriggerDischargeRoundTrip(t *testing.T) {
	var g Gate
	g.Prime()
	g.Trigger(3)
	g.Discharge()
	if g.IsConducting() {
		t.Fatalf("expected IsConducting == false after prime->trigger->discharge")
	}
	if g.SdtState() != Off {
		t.Fatalf("expected state == Off after prime->trigger->discharge, got %v", g.SdtState())
	}
}

func TestResetFromAnyState(t *testing.T) {
	for _, prep := range []func(*Gate){
		func(g *Gate) {},
		func(g *Gate) { g.Prime() },
		func(g *Gate) { g.Prime(); g.Trigger(0) },
		func(g *Gate) { g.Prime(); g.Trigger(0); g.Latch() },
	} {
		var g Gate
		prep(&g)
		if s := g.Reset(); s != Off {
			t.Fatalf("Reset() = %v, want Off", s)
		}
	}
}

func TestDeltaThetaTelemetryDoesNotAffectAdmission(t *testing.T) {
	var g Gate
	g.Prime()
	g.Trigger(5)
	if g.DeltaTheta() != 5 {
		t.Fatalf("DeltaTheta() = %d, want 5", g.DeltaTheta())
	}
	g.Latch()
	if g.DeltaTheta() != 5 {
		t.Fatalf("Latch() must not alter δθ telemetry")
	}
}

func TestConcurrentLatchIsAlwaysObserved(t *testing.T) {
	var g Gate
	g.Prime()
	g.Trigger(0)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			g.IsConducting()
		}
	}()
	go func() {
		defer wg.Done()
		g.Latch()
	}()
	wg.Wait()
	if g.SdtState() != Latched {
		t.Fatalf("expected Latched to stick, got %v", g.SdtState())
	}
}
