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

// Command atlas-loadgen hammers a running atlasd's /dispatch endpoint with
// concurrent producer workers, to exercise backpressure and SDT blocking
// under load.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

type dispatchRequest struct {
	Kind     string          `json:"kind"`
	Priority string          `json:"priority"`
	Payload  json.RawMessage `json:"payload"`
}

func main() {
	target := flag.String("target", "http://localhost:8080/dispatch", "atlasd dispatch endpoint")
	workers := flag.Int("workers", 16, "concurrent producer workers")
	requests := flag.Int("requests", 10000, "total requests to send, spread across workers")
	priority := flag.String("priority", "normal", "priority tag: critical, urgent, normal")
	flag.Parse()

	var ok, full, blocked, other uint64
	client := &http.Client{Timeout: 2 * time.Second}

	var wg sync.WaitGroup
	perWorker := *requests / *workers
	start := time.Now()
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				body, _ := json.Marshal(dispatchRequest{
					Kind:     "loadgen",
					Priority: *priority,
					Payload:  json.RawMessage(fmt.Sprintf(`{"worker":%d,"seq":%d}`, worker, j)),
				})
				resp, err := client.Post(*target, "application/json", bytes.NewReader(body))
				if err != nil {
					atomic.AddUint64(&other, 1)
					continue
				}
				switch resp.StatusCode {
				case http.StatusAccepted:
					atomic.AddUint64(&ok, 1)
				case http.StatusServiceUnavailable:
					atomic.AddUint64(&full, 1)
				case http.StatusTooManyRequests:
					atomic.AddUint64(&blocked, 1)
				default:
					atomic.AddUint64(&other, 1)
				}
				resp.Body.Close()
			}
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(start)

	log.Printf("atlas-loadgen: sent=%d ok=%d buffer_full=%d sdt_blocked=%d other=%d elapsed=%s",
		(*workers)*perWorker, ok, full, blocked, other, elapsed)
}
