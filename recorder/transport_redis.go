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

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// make sure TransportRedis implements Transport
var _ Transport = (*TransportRedis)(nil)

// TransportRedis publishes recorded messages on Redis pub/sub channels,
// one channel per resource key (spec.md §13). Grounded on the PUBLISH
// wrapper pattern in the pack's Redis client (common/redis/client.go).
type TransportRedis struct {
	client *redis.Client
}

// NewTransportRedis wraps an already-configured redis.Client.
func NewTransportRedis(client *redis.Client) *TransportRedis {
	return &TransportRedis{client: client}
}

// Publish publishes payload on the channel named key.
func (t *TransportRedis) Publish(ctx context.Context, key string, payload []byte) error {
	if err := t.client.Publish(ctx, key, payload).Err(); err != nil {
		return fmt.Errorf("recorder: redis publish to %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying Redis connection pool.
func (t *TransportRedis) Close() error {
	return t.client.Close()
}
