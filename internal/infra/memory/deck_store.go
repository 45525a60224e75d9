package memory

import (
	"context"
	"sync"

	"livedeck-service/internal/domain"
)

// DeckStore is an in-memory deck collection, useful for demos and tests. It
// serves both as a DeckLoader for the cache layer and as the writable store
// the leaderboard service materializes slides through.
type DeckStore struct {
	mu    sync.RWMutex
	decks map[string]domain.Deck
}

func NewDeckStore(decks map[string]domain.Deck) *DeckStore {
	if decks == nil {
		decks = make(map[string]domain.Deck)
	}
	return &DeckStore{decks: decks}
}

func (s *DeckStore) LoadDeck(_ context.Context, presentationID string) (domain.Deck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if deck, ok := s.decks[presentationID]; ok {
		return deck, nil
	}
	return domain.Deck{}, domain.ErrDeckNotFound
}

func (s *DeckStore) LoadDeckByCode(_ context.Context, accessCode string) (domain.Deck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, deck := range s.decks {
		if deck.AccessCode == accessCode {
			return deck, nil
		}
	}
	return domain.Deck{}, domain.ErrDeckNotFound
}

// GetDeck implements app.DeckStore.
func (s *DeckStore) GetDeck(ctx context.Context, presentationID string) (domain.Deck, error) {
	return s.LoadDeck(ctx, presentationID)
}

// SaveSlides replaces the deck's slide list.
func (s *DeckStore) SaveSlides(_ context.Context, presentationID string, slides []domain.Slide) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	deck, ok := s.decks[presentationID]
	if !ok {
		return domain.ErrDeckNotFound
	}
	deck.Slides = slides
	s.decks[presentationID] = deck
	return nil
}
