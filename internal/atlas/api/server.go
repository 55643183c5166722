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

// Package api exposes the bus's producer surface over HTTP: an outer
// collaborator (RPC façade, CLI, load generator) dispatches commands and
// polls results without linking against the bus package directly.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/cp5337/sx9-atlas-bus/pkg/bus"
)

// Server wraps an AtlasBus[json.RawMessage, json.RawMessage] with an HTTP
// façade. Payloads cross the wire as opaque JSON; the core itself stays
// payload-agnostic.
type Server struct {
	b *bus.AtlasBus[json.RawMessage, json.RawMessage]
}

// NewServer wraps the given bus.
func NewServer(b *bus.AtlasBus[json.RawMessage, json.RawMessage]) *Server {
	return &Server{b: b}
}

// RegisterRoutes installs the server's handlers on mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/dispatch", s.handleDispatch)
	mux.HandleFunc("/result", s.handlePopResult)
	mux.HandleFunc("/stats", s.handleStats)
}

type dispatchRequest struct {
	Kind     string          `json:"kind"`
	Priority string          `json:"priority"`
	Payload  json.RawMessage `json:"payload"`
}

type dispatchResponse struct {
	Status     string  `json:"status"`
	Pressure   float32 `json:"pressure,omitempty"`
	DeltaClass int     `json:"delta_class,omitempty"`
	RequestID  uint32  `json:"request_id,omitempty"`
}

func parsePriority(s string) bus.Priority {
	switch s {
	case "critical":
		return bus.Critical
	case "urgent":
		return bus.Urgent
	default:
		return bus.Normal
	}
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	cmd := bus.Command[json.RawMessage]{
		Kind:     req.Kind,
		Priority: parsePriority(req.Priority),
		Payload:  req.Payload,
	}
	// Stamp the request id here: Dispatch stamps only its own copy of cmd.
	cmd.RequestID = s.b.NextRequestID()
	outcome := s.b.Dispatch(cmd)
	w.Header().Set("Content-Type", "application/json")
	switch outcome.Status {
	case bus.BufferFull:
		w.WriteHeader(http.StatusServiceUnavailable)
	case bus.SdtBlocked:
		w.WriteHeader(http.StatusTooManyRequests)
	default:
		w.WriteHeader(http.StatusAccepted)
	}
	json.NewEncoder(w).Encode(dispatchResponse{
		Status:     outcome.Status.String(),
		Pressure:   outcome.Pressure,
		DeltaClass: outcome.DeltaClass,
		RequestID:  cmd.RequestID,
	})
}

func (s *Server) handlePopResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	res, ok := s.b.PopResult()
	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	json.NewEncoder(w).Encode(res)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		bus.Stats
		Pressure float32 `json:"pressure"`
		Tick     uint64  `json:"tick"`
	}{
		Stats:    s.b.Stats(),
		Pressure: s.b.Pressure(),
		Tick:     s.b.CurrentTick(),
	})
}

// ListenAndServe starts the HTTP server on addr with conservative timeouts,
// the same pattern every entry point in this codebase uses.
func (s *Server) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return srv.ListenAndServe()
}
