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

// AtlasResult is a generic envelope produced by the consumer tick loop for
// exactly one originating request. K is the result payload type.
type AtlasResult[K any] struct {
	Kind      string
	RequestID uint32
	TickID    uint64
	Success   bool
	ErrorKind string // empty when Success is true
	Payload   K
}
