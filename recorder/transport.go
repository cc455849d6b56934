package recorder

/*
   Copyright 2018 Bruno Moura <brunotm@gmail.com>

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

import "context"

// Transport is the pub/sub key-value transport a Logger publishes
// recorded messages on (spec.md §13 names this generically; zflow
// supplies a Redis-backed implementation, TransportRedis).
type Transport interface {
	// Publish publishes payload under key.
	Publish(ctx context.Context, key string, payload []byte) error
	// Close releases the transport's connection resources.
	Close() error
}
