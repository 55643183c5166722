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
	"database/sql"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options configures adapter construction for BuildPersister.
type Options struct {
	RedisAddr     string
	RedisMarkerTTL time.Duration
	KafkaTopic    string
	DB            *sql.DB
}

// BuildPersister constructs the Persister named by adapter: "mock", "redis",
// "kafka", or "postgres".
func BuildPersister(adapter string, opts Options) (Persister, error) {
	switch adapter {
	case "", "mock":
		return NewMockPersister(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})
		ttl := opts.RedisMarkerTTL
		if ttl <= 0 {
			ttl = time.Hour
		}
		return NewRedisPersister(client, ttl), nil
	case "kafka":
		topic := opts.KafkaTopic
		if topic == "" {
			topic = "atlas-tov-commits"
		}
		return NewKafkaPersister(LoggingKafkaProducer{}, topic), nil
	case "postgres":
		if opts.DB == nil {
			return nil, fmt.Errorf("persistence: postgres adapter requires a non-nil DB")
		}
		return NewPostgresPersister(opts.DB), nil
	default:
		return nil, fmt.Errorf("persistence: unknown adapter %q", adapter)
	}
}
