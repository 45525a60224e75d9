package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestLiveMarkerSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	marker := NewLiveMarker(newClient(mr), time.Minute)
	ctx := context.Background()

	marker.MarkLive(ctx, "deck-1")
	if !mr.Exists("deck:live:deck-1") {
		t.Fatalf("expected live key to be set")
	}

	marker.ClearLive(ctx, "deck-1")
	if mr.Exists("deck:live:deck-1") {
		t.Fatalf("expected live key to be removed")
	}
}
