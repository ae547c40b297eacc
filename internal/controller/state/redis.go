package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "conversation:"

// RedisStore общий для инстансов. Каждая запись обновляет TTL ключа,
// простаивающие диалоги истекают сами
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func conversationKey(contactID string) string {
	return keyPrefix + contactID
}

func (s *RedisStore) Get(ctx context.Context, contactID string) (*Conversation, error) {
	data, err := s.client.Get(ctx, conversationKey(contactID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return newConversation(contactID), nil
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}

	var c Conversation
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode conversation: %w", err)
	}
	c.ContactID = contactID
	return &c, nil
}

func (s *RedisStore) Set(ctx context.Context, c *Conversation) error {
	if c.Step == StepNone {
		return s.Delete(ctx, c.ContactID)
	}

	stored := c.Clone()
	stored.UpdatedAt = time.Now()
	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}
	if err := s.client.Set(ctx, conversationKey(c.ContactID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("set conversation: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, contactID string) error {
	if err := s.client.Del(ctx, conversationKey(contactID)).Err(); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}
