package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"livedeck-service/internal/domain"
)

// DeckLoader loads deck JSONB from Postgres.
type DeckLoader struct {
	pool *pgxpool.Pool
}

func NewDeckLoader(pool *pgxpool.Pool) *DeckLoader {
	return &DeckLoader{pool: pool}
}

func (l *DeckLoader) LoadDeck(ctx context.Context, presentationID string) (domain.Deck, error) {
	return l.load(ctx, `SELECT data FROM decks WHERE id=$1`, presentationID)
}

func (l *DeckLoader) LoadDeckByCode(ctx context.Context, accessCode string) (domain.Deck, error) {
	return l.load(ctx, `SELECT data FROM decks WHERE access_code=$1`, accessCode)
}

func (l *DeckLoader) load(ctx context.Context, query, arg string) (domain.Deck, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, query, arg).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Deck{}, domain.ErrDeckNotFound
	}
	if err != nil {
		return domain.Deck{}, fmt.Errorf("load deck: %w", err)
	}
	var deck domain.Deck
	if err := json.Unmarshal(raw, &deck); err != nil {
		return domain.Deck{}, fmt.Errorf("unmarshal deck: %w", err)
	}
	return deck, nil
}
