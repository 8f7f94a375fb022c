// Copyright 2025 The NLP Odyssey Authors
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

package memory

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/denggeng/realtime-agents-go/agents"
	"github.com/redis/go-redis/v9"
)

// RedisSessionMemory is a Redis-backed SessionMemory. Each session is a hash
// holding its metadata and a list holding its messages.
type RedisSessionMemory struct {
	client          redis.UniversalClient
	ownsClient      bool
	keyPrefix       string
	ttl             time.Duration
	sessionSettings SessionSettings
}

type RedisSessionMemoryParams struct {
	// Existing Redis client. When provided, the store does not close the client.
	Client redis.UniversalClient

	// Redis URL used to create a dedicated client when Client is nil.
	// Example: redis://localhost:6379/0
	URL string

	// Optional key prefix for all session keys.
	// Defaults to "agents:session".
	KeyPrefix string

	// Optional TTL for session keys. Zero means no expiration.
	TTL time.Duration

	// Optional session settings (e.g., default history limit).
	SessionSettings SessionSettings
}

// NewRedisSessionMemory connects to Redis and checks it is reachable.
func NewRedisSessionMemory(ctx context.Context, params RedisSessionMemoryParams) (*RedisSessionMemory, error) {
	client := params.Client
	ownsClient := false
	if client == nil {
		if params.URL == "" {
			return nil, agents.NewUserError("redis client or url is required")
		}
		opts, err := redis.ParseURL(params.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opts)
		ownsClient = true
	}

	s := &RedisSessionMemory{
		client:          client,
		ownsClient:      ownsClient,
		keyPrefix:       cmp.Or(params.KeyPrefix, "agents:session"),
		ttl:             params.TTL,
		sessionSettings: params.SessionSettings,
	}

	if err := s.client.Ping(ctx).Err(); err != nil {
		return nil, errors.Join(fmt.Errorf("redis is not reachable: %w", err), s.Close())
	}
	return s, nil
}

func (s *RedisSessionMemory) sessionKey(sessionID string) string {
	return fmt.Sprintf("%s:%s", s.keyPrefix, sessionID)
}

func (s *RedisSessionMemory) messagesKey(sessionID string) string {
	return s.sessionKey(sessionID) + ":messages"
}

func (s *RedisSessionMemory) GetMessages(ctx context.Context, sessionID string, limit int) ([]TResponseInputItem, error) {
	limit = ResolveSessionLimit(limit, s.sessionSettings)

	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}
	raw, err := s.client.LRange(ctx, s.messagesKey(sessionID), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("get redis messages: %w", err)
	}

	items := make([]TResponseInputItem, 0, len(raw))
	for _, payload := range raw {
		item, err := unmarshalMessageData(payload)
		if err != nil {
			agents.Logger().Debug("Skipping malformed session message",
				slog.String("session_id", sessionID), slog.String("error", err.Error()))
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *RedisSessionMemory) AddMessages(ctx context.Context, sessionID string, messages []TResponseInputItem) error {
	if len(messages) == 0 {
		return nil
	}

	serialized := make([]any, 0, len(messages))
	for _, message := range messages {
		payload, err := marshalMessageData(message)
		if err != nil {
			return fmt.Errorf("marshal message: %w", err)
		}
		serialized = append(serialized, payload)
	}

	sessionKey := s.sessionKey(sessionID)
	messagesKey := s.messagesKey(sessionID)
	now := strconv.FormatInt(time.Now().Unix(), 10)

	pipe := s.client.TxPipeline()
	pipe.HSetNX(ctx, sessionKey, "session_id", sessionID)
	pipe.HSetNX(ctx, sessionKey, "created_at", now)
	pipe.HSet(ctx, sessionKey, "updated_at", now)
	pipe.RPush(ctx, messagesKey, serialized...)
	if s.ttl > 0 {
		pipe.Expire(ctx, sessionKey, s.ttl)
		pipe.Expire(ctx, messagesKey, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("add redis messages: %w", err)
	}
	return nil
}

func (s *RedisSessionMemory) PopMessage(ctx context.Context, sessionID string) (TResponseInputItem, error) {
	payload, err := s.client.RPop(ctx, s.messagesKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pop redis message: %w", err)
	}

	item, err := unmarshalMessageData(payload)
	if err != nil {
		// Corrupted entry has already been removed.
		return nil, nil
	}
	return item, nil
}

func (s *RedisSessionMemory) ClearSession(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.sessionKey(sessionID), s.messagesKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("clear redis session: %w", err)
	}
	return nil
}

// Close closes the Redis client if this store owns it.
func (s *RedisSessionMemory) Close() error {
	if !s.ownsClient {
		return nil
	}
	return s.client.Close()
}

var _ SessionMemory = (*RedisSessionMemory)(nil)
