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

package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// commitMarkerScript is a SETNX-guarded idempotent apply: the commit marker
// key is only set once per CommitID, and the score hash is only written the
// first time that marker is claimed.
const commitMarkerScript = `
local marker = KEYS[1]
local scoreKey = KEYS[2]
local field = ARGV[1]
local score = ARGV[2]
local ttl = tonumber(ARGV[3])
if redis.call("SETNX", marker, "1") == 1 then
  redis.call("HSET", scoreKey, field, score)
  redis.call("EXPIRE", marker, ttl)
  return 1
end
return 0
`

// RedisEvaler is the subset of the go-redis client RedisPersister needs,
// narrow enough to fake in tests without a live server.
type RedisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// GoRedisEvaler adapts a *redis.Client to RedisEvaler.
type GoRedisEvaler struct {
	Client *redis.Client
}

func (g GoRedisEvaler) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	return g.Client.Eval(ctx, script, keys, args...)
}

// RedisPersister checkpoints EEI scores into Redis hashes keyed by
// UnicodeAddress, guarded by a per-CommitID idempotency marker.
type RedisPersister struct {
	Evaler    RedisEvaler
	MarkerTTL time.Duration
}

// NewRedisPersister constructs a RedisPersister over an existing client.
func NewRedisPersister(client *redis.Client, markerTTL time.Duration) *RedisPersister {
	return &RedisPersister{Evaler: GoRedisEvaler{Client: client}, MarkerTTL: markerTTL}
}

func scoreKey(addr string) string  { return "atlas:tov:" + addr }
func markerKey(commit string) string { return "atlas:commit:" + commit }

func (p *RedisPersister) CommitBatch(entries []CheckpointEntry) error {
	ctx := context.Background()
	ttlSecs := int64(p.MarkerTTL / time.Second)
	if ttlSecs <= 0 {
		ttlSecs = 3600
	}
	for _, e := range entries {
		keys := []string{markerKey(e.CommitID), scoreKey(e.UnicodeAddress)}
		if err := p.Evaler.Eval(ctx, commitMarkerScript, keys, e.EEIID, e.Score, ttlSecs).Err(); err != nil {
			return fmt.Errorf("persistence: redis commit for %s failed: %w", e.EEIID, err)
		}
	}
	return nil
}
