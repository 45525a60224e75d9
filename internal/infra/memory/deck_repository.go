package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"livedeck-service/internal/domain"
)

// DeckLoader fetches presentation content from a backing store.
type DeckLoader interface {
	LoadDeck(ctx context.Context, presentationID string) (domain.Deck, error)
	LoadDeckByCode(ctx context.Context, accessCode string) (domain.Deck, error)
}

// DeckRepository caches decks with TTL to avoid repeated store hits while a
// session is live.
type DeckRepository struct {
	loader DeckLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedDeck
}

type cachedDeck struct {
	deck      domain.Deck
	expiresAt time.Time
}

func NewDeckRepository(loader DeckLoader, ttl time.Duration) *DeckRepository {
	return &DeckRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedDeck),
	}
}

func (r *DeckRepository) GetDeck(ctx context.Context, presentationID string) (domain.Deck, error) {
	return r.get(ctx, "id:"+presentationID, func() (domain.Deck, error) {
		return r.loader.LoadDeck(ctx, presentationID)
	})
}

func (r *DeckRepository) GetDeckByCode(ctx context.Context, accessCode string) (domain.Deck, error) {
	return r.get(ctx, "code:"+accessCode, func() (domain.Deck, error) {
		return r.loader.LoadDeckByCode(ctx, accessCode)
	})
}

func (r *DeckRepository) get(_ context.Context, key string, load func() (domain.Deck, error)) (domain.Deck, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[key]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.deck, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[key]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.deck, nil
		}
		r.mu.RUnlock()

		deck, err := load()
		if err != nil {
			return domain.Deck{}, err
		}

		expires := now.Add(r.ttlWithJitter())
		r.mu.Lock()
		r.cache[key] = cachedDeck{deck: deck, expiresAt: expires}
		// The same deck answers both lookups.
		r.cache["id:"+deck.ID] = cachedDeck{deck: deck, expiresAt: expires}
		if deck.AccessCode != "" {
			r.cache["code:"+deck.AccessCode] = cachedDeck{deck: deck, expiresAt: expires}
		}
		r.mu.Unlock()
		return deck, nil
	})
	if err != nil {
		return domain.Deck{}, err
	}
	return result.(domain.Deck), nil
}

// Invalidate drops a deck from the cache, e.g. after its slides changed.
func (r *DeckRepository) Invalidate(presentationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.cache["id:"+presentationID]
	if !ok {
		return
	}
	delete(r.cache, "id:"+presentationID)
	if entry.deck.AccessCode != "" {
		delete(r.cache, "code:"+entry.deck.AccessCode)
	}
}

func (r *DeckRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
