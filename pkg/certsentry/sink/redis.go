/*
Copyright 2025 The CertSentry Authors

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

package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const redisEmitTimeout = 5 * time.Second

// Redis publishes each match to a pub/sub channel and, when a queue key
// is configured, left-pushes it onto a list trimmed to maxQueueSize.
// Delivery is fire-and-forget: Redis being down must not stall the match
// pipeline, so errors are logged and swallowed.
type Redis struct {
	client       *redis.Client
	channel      string
	queueKey     string
	maxQueueSize int64
}

// NewRedis connects to url and verifies the connection.
func NewRedis(ctx context.Context, url, channel, queueKey string, maxQueueSize int64) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &Redis{
		client:       client,
		channel:      channel,
		queueKey:     queueKey,
		maxQueueSize: maxQueueSize,
	}, nil
}

func (r *Redis) Name() string { return "redis" }

func (r *Redis) Emit(match *Match) error {
	body, err := json.Marshal(match)
	if err != nil {
		return fmt.Errorf("marshaling match: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisEmitTimeout)
	defer cancel()

	if err := r.client.Publish(ctx, r.channel, body).Err(); err != nil {
		logrus.Warnf("redis publish to %s failed: %v", r.channel, err)
	}

	if r.queueKey != "" {
		pipe := r.client.Pipeline()
		pipe.LPush(ctx, r.queueKey, body)
		pipe.LTrim(ctx, r.queueKey, 0, r.maxQueueSize-1)
		if _, err := pipe.Exec(ctx); err != nil {
			logrus.Warnf("redis queue push to %s failed: %v", r.queueKey, err)
		}
	}
	return nil
}

func (r *Redis) Flush() error {
	return r.client.Close()
}
