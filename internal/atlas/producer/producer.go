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

// Package producer is a thin façade over the bus's producer surface for
// callers that want hash identity and ToV gating wired in automatically:
// every command is stamped with a trivariate hash, and dispatch is refused
// when the associated EEI is no longer worth collecting.
package producer

import (
	"encoding/json"
	"time"

	"github.com/cp5337/sx9-atlas-bus/pkg/atlashash"
	"github.com/cp5337/sx9-atlas-bus/pkg/bus"
	"github.com/cp5337/sx9-atlas-bus/pkg/tov"
)

// Facade composes a bus and a ToV gate so producers can construct commands
// identified by the trivariate hash and gated by collection-worthiness in
// one call.
type Facade struct {
	b    *bus.AtlasBus[json.RawMessage, json.RawMessage]
	gate *tov.Gate
}

// New constructs a Facade over an existing bus and gate.
func New(b *bus.AtlasBus[json.RawMessage, json.RawMessage], gate *tov.Gate) *Facade {
	return &Facade{b: b, gate: gate}
}

// ErrNotWorthCollecting is returned by Submit when the ToV gate declines to
// admit the given content for processing.
type ErrNotWorthCollecting struct{ EEIID string }

func (e ErrNotWorthCollecting) Error() string {
	return "producer: " + e.EEIID + " is not worth collecting"
}

// Submit registers (or reuses) an EEI for content/context, consults the ToV
// gate's IWAS decision with the given estimated processing time, and if
// admitted dispatches a command carrying the trivariate hash as Kind and
// payload as the raw content.
func (f *Facade) Submit(content, context, primitiveType string, priority bus.Priority, estProcessing time.Duration, score float64, payload json.RawMessage) (bus.DispatchOutcome, error) {
	hash := atlashash.GenerateTrivariate(content, context, primitiveType, time.Now().Unix(), nil)

	if _, ok := f.gate.GetBlock(hash); !ok {
		f.gate.Register(hash, score)
	}
	if !f.gate.ShouldCollect(hash, estProcessing) {
		return bus.DispatchOutcome{}, ErrNotWorthCollecting{EEIID: hash}
	}

	cmd := bus.Command[json.RawMessage]{
		Kind:     hash,
		Priority: priority,
		Payload:  payload,
	}
	return f.b.Dispatch(cmd), nil
}
