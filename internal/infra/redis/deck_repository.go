package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"livedeck-service/internal/domain"
	"livedeck-service/internal/infra/memory"
)

// DeckRepository caches whole decks as JSON in Redis and falls back to a
// loader on cache miss:
// SET deck:{deckID}       {deck JSON}
// SET deck:code:{code}    {deckID}
type DeckRepository struct {
	client *redis.Client
	loader memory.DeckLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewDeckRepository(client *redis.Client, loader memory.DeckLoader, ttl time.Duration) *DeckRepository {
	return &DeckRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *DeckRepository) GetDeck(ctx context.Context, presentationID string) (domain.Deck, error) {
	if deck, ok := r.cached(ctx, presentationID); ok {
		return deck, nil
	}
	result, err, _ := r.sf.Do("id:"+presentationID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if deck, ok := r.cached(ctx, presentationID); ok {
			return deck, nil
		}
		deck, err := r.loader.LoadDeck(ctx, presentationID)
		if err != nil {
			return domain.Deck{}, err
		}
		r.fill(ctx, deck)
		return deck, nil
	})
	if err != nil {
		return domain.Deck{}, err
	}
	return result.(domain.Deck), nil
}

func (r *DeckRepository) GetDeckByCode(ctx context.Context, accessCode string) (domain.Deck, error) {
	id, err := r.client.Get(ctx, r.codeKey(accessCode)).Result()
	if err == nil && id != "" {
		if deck, ok := r.cached(ctx, id); ok {
			return deck, nil
		}
	}
	result, err, _ := r.sf.Do("code:"+accessCode, func() (interface{}, error) {
		deck, err := r.loader.LoadDeckByCode(ctx, accessCode)
		if err != nil {
			return domain.Deck{}, err
		}
		r.fill(ctx, deck)
		return deck, nil
	})
	if err != nil {
		return domain.Deck{}, err
	}
	return result.(domain.Deck), nil
}

func (r *DeckRepository) cached(ctx context.Context, presentationID string) (domain.Deck, bool) {
	data, err := r.client.Get(ctx, r.deckKey(presentationID)).Result()
	if err != nil || data == "" {
		return domain.Deck{}, false
	}
	var deck domain.Deck
	if err := json.Unmarshal([]byte(data), &deck); err != nil {
		return domain.Deck{}, false
	}
	return deck, true
}

// fill is best-effort: a failed cache write only costs a reload.
func (r *DeckRepository) fill(ctx context.Context, deck domain.Deck) {
	data, err := json.Marshal(deck)
	if err != nil {
		return
	}
	ttl := r.ttlWithJitter()
	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.deckKey(deck.ID), data, ttl)
	if deck.AccessCode != "" {
		pipe.Set(ctx, r.codeKey(deck.AccessCode), deck.ID, ttl)
	}
	_, _ = pipe.Exec(ctx)
}

func (r *DeckRepository) deckKey(presentationID string) string {
	return "deck:" + presentationID
}

func (r *DeckRepository) codeKey(accessCode string) string {
	return fmt.Sprintf("deck:code:%s", accessCode)
}

func (r *DeckRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
