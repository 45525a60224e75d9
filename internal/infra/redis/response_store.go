package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"livedeck-service/internal/domain"
)

// ResponseStore keeps responses in a Redis hash per slide:
// HSET slide:{slideID}:responses {participantID} {response JSON}
// The hash field keyed by participant enforces the at-most-one-response
// invariant for single-submission slide types.
type ResponseStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewResponseStore(client *redis.Client, ttl time.Duration) *ResponseStore {
	return &ResponseStore{client: client, ttl: ttl}
}

func (s *ResponseStore) Save(ctx context.Context, resp domain.Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	key := s.key(resp.SlideID)
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key, resp.ParticipantID, data)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save response: %w", err)
	}
	return nil
}

func (s *ResponseStore) FindBySlide(ctx context.Context, slideID string) ([]domain.Response, error) {
	raw, err := s.client.HGetAll(ctx, s.key(slideID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load responses: %w", err)
	}
	responses := make([]domain.Response, 0, len(raw))
	for _, data := range raw {
		var resp domain.Response
		if err := json.Unmarshal([]byte(data), &resp); err != nil {
			return nil, fmt.Errorf("unmarshal response: %w", err)
		}
		responses = append(responses, resp)
	}
	sort.Slice(responses, func(i, j int) bool {
		return responses[i].SubmittedAt.Before(responses[j].SubmittedAt)
	})
	return responses, nil
}

func (s *ResponseStore) FindByParticipant(ctx context.Context, slideID, participantID string) (*domain.Response, error) {
	data, err := s.client.HGet(ctx, s.key(slideID), participantID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load response: %w", err)
	}
	var resp domain.Response
	if err := json.Unmarshal([]byte(data), &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &resp, nil
}

func (s *ResponseStore) DeleteBySlide(ctx context.Context, slideID string) error {
	if err := s.client.Del(ctx, s.key(slideID)).Err(); err != nil {
		return fmt.Errorf("delete responses: %w", err)
	}
	return nil
}

func (s *ResponseStore) key(slideID string) string {
	return "slide:" + slideID + ":responses"
}
