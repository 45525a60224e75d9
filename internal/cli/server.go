package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"livedeck-service/internal/app"
	"livedeck-service/internal/config"
	"livedeck-service/internal/domain"
	"livedeck-service/internal/infra/memory"
	pgloader "livedeck-service/internal/infra/postgres"
	redisinfra "livedeck-service/internal/infra/redis"
	transport "livedeck-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the live session server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 2*time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	// Without postgres the service runs on a built-in demo deck, which is
	// enough to exercise every slide type end to end.
	deckStore := memory.NewDeckStore(sampleDecks())
	var loader memory.DeckLoader = deckStore
	if pool != nil {
		loader = pgloader.NewDeckLoader(pool)
	}

	deckTTL := config.TTLDuration(cfg.Deck.TTL, 10*time.Minute)
	var deckRepo app.DeckRepository
	if redisClient != nil {
		deckRepo = redisinfra.NewDeckRepository(redisClient, loader, deckTTL)
	} else {
		deckRepo = memory.NewDeckRepository(loader, deckTTL)
	}

	var responses app.ResponseStore
	if redisClient != nil {
		responses = redisinfra.NewResponseStore(redisClient, redisTTL)
	} else {
		responses = memory.NewResponseStore()
	}

	leaderboardLimit := cfg.Session.LeaderboardLimit
	if leaderboardLimit <= 0 {
		leaderboardLimit = 10
	}
	leaderboards := app.NewLeaderboardService(deckStore, responses, leaderboardLimit)
	if pool == nil {
		// Demo decks are materialized once at startup so every quiz slide
		// has its linked leaderboard.
		for id := range sampleDecks() {
			if err := leaderboards.EnsureLinked(ctx, id); err != nil {
				return err
			}
		}
	}

	sessions := app.NewSessionManager()
	coordinator := app.NewCoordinator(sessions, deckRepo, responses, memory.AudienceLimiter{Max: cfg.Session.AudienceLimit}, leaderboards)
	if redisClient != nil {
		coordinator.SetLiveMarker(redisinfra.NewLiveMarker(redisClient, redisTTL))
	}
	wsHandler := transport.NewWSHandler(coordinator)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting livedeck service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	sessions.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleDecks provides a demo presentation touching each interaction type.
func sampleDecks() map[string]domain.Deck {
	return map[string]domain.Deck{
		"demo": {
			ID:         "demo",
			OwnerID:    "demo-owner",
			Title:      "Livedeck demo",
			AccessCode: "123456",
			Slides: []domain.Slide{
				{ID: "demo-1", PresentationID: "demo", Type: domain.SlideContent, Question: "Welcome!", Order: 0},
				{ID: "demo-2", PresentationID: "demo", Type: domain.SlideMultipleChoice, Question: "Coffee or tea?", Options: []string{"Coffee", "Tea"}, Order: 1},
				{ID: "demo-3", PresentationID: "demo", Type: domain.SlideWordCloud, Question: "Describe your week in one word", MaxWords: 3, Order: 2},
				{ID: "demo-4", PresentationID: "demo", Type: domain.SlideOpenEnded, Question: "What should we improve?", OpenEnded: &domain.OpenEndedSettings{AllowVoting: true}, Order: 3},
				{ID: "demo-5", PresentationID: "demo", Type: domain.SlideScales, Question: "Rate these", Statements: []string{"Remote work", "Office snacks"}, MinValue: 1, MaxValue: 5, Order: 4},
				{ID: "demo-6", PresentationID: "demo", Type: domain.SlideRanking, Question: "Rank the priorities", RankingItems: []string{"Speed", "Quality", "Cost"}, Order: 5},
				{ID: "demo-7", PresentationID: "demo", Type: domain.SlideQna, Question: "Ask me anything", Qna: &domain.QnaSettings{AllowMultiple: true}, Order: 6},
				{ID: "demo-8", PresentationID: "demo", Type: domain.SlideGuessNumber, Question: "Guess the number", GuessNumber: &domain.GuessNumberSettings{MinValue: 1, MaxValue: 100, CorrectAnswer: 42}, Order: 7},
				{ID: "demo-9", PresentationID: "demo", Type: domain.SlideQuiz, Question: "Capital of France?", Quiz: &domain.QuizSettings{
					Options:          []domain.QuizOption{{ID: "a", Text: "Paris"}, {ID: "b", Text: "Lyon"}},
					CorrectOptionID:  "a",
					TimeLimitSeconds: 30,
					Points:           100,
				}, Order: 8},
			},
		},
	}
}
