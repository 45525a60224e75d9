package memory

import (
	"context"
	"sort"
	"sync"

	"livedeck-service/internal/domain"
)

// ResponseStore is an in-memory implementation of app.ResponseStore, keyed
// by slide and participant so single-submission slides hold at most one
// response per pair.
type ResponseStore struct {
	mu      sync.RWMutex
	bySlide map[string]map[string]domain.Response // slideID → participantID → response
}

func NewResponseStore() *ResponseStore {
	return &ResponseStore{bySlide: make(map[string]map[string]domain.Response)}
}

func (s *ResponseStore) Save(_ context.Context, resp domain.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	slide, ok := s.bySlide[resp.SlideID]
	if !ok {
		slide = make(map[string]domain.Response)
		s.bySlide[resp.SlideID] = slide
	}
	slide[resp.ParticipantID] = resp
	return nil
}

func (s *ResponseStore) FindBySlide(_ context.Context, slideID string) ([]domain.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slide := s.bySlide[slideID]
	responses := make([]domain.Response, 0, len(slide))
	for _, resp := range slide {
		responses = append(responses, resp)
	}
	sort.Slice(responses, func(i, j int) bool {
		return responses[i].SubmittedAt.Before(responses[j].SubmittedAt)
	})
	return responses, nil
}

func (s *ResponseStore) FindByParticipant(_ context.Context, slideID, participantID string) (*domain.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if resp, ok := s.bySlide[slideID][participantID]; ok {
		copied := resp
		return &copied, nil
	}
	return nil, nil
}

func (s *ResponseStore) DeleteBySlide(_ context.Context, slideID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bySlide, slideID)
	return nil
}
