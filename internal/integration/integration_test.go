package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"livedeck-service/internal/app"
	"livedeck-service/internal/domain"
	"livedeck-service/internal/infra/memory"
	pgloader "livedeck-service/internal/infra/postgres"
	pgmigrations "livedeck-service/internal/infra/postgres/migrations"
	infraredis "livedeck-service/internal/infra/redis"
)

func TestQuizSessionEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedDeck(t, ctx, pgURL, sampleDeck())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := pgloader.NewDeckLoader(pool)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	deckRepo := infraredis.NewDeckRepository(redisClient, loader, 5*time.Minute)
	responses := infraredis.NewResponseStore(redisClient, 5*time.Minute)

	leaderboards := app.NewLeaderboardService(memory.NewDeckStore(nil), responses, 10)
	coordinator := app.NewCoordinator(app.NewSessionManager(), deckRepo, responses, memory.AudienceLimiter{}, leaderboards)
	coordinator.SetLiveMarker(infraredis.NewLiveMarker(redisClient, 5*time.Minute))

	presenter := newRecordingConn("presenter")
	if err := coordinator.StartSession(ctx, presenter, "deck-1", 0); err != nil {
		t.Fatalf("start session: %v", err)
	}

	alice := newRecordingConn("alice")
	bob := newRecordingConn("bob")
	if err := coordinator.JoinSession(ctx, alice, "deck-1", "", "p1", "Alice"); err != nil {
		t.Fatalf("join alice: %v", err)
	}
	if err := coordinator.JoinSession(ctx, bob, "deck-1", "", "p2", "Bob"); err != nil {
		t.Fatalf("join bob: %v", err)
	}

	if err := coordinator.SubmitResponse(ctx, alice, "deck-1", "quiz-slide", "p1", "Alice", "right"); err != nil {
		t.Fatalf("submit alice: %v", err)
	}
	if err := coordinator.SubmitResponse(ctx, bob, "deck-1", "quiz-slide", "p2", "Bob", "wrong"); err != nil {
		t.Fatalf("submit bob: %v", err)
	}

	stored, err := responses.FindBySlide(ctx, "quiz-slide")
	if err != nil {
		t.Fatalf("find responses: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected two stored responses, got %d", len(stored))
	}

	deck, err := deckRepo.GetDeck(ctx, "deck-1")
	if err != nil {
		t.Fatalf("get deck: %v", err)
	}
	final, err := leaderboards.Final(ctx, deck)
	if err != nil {
		t.Fatalf("final leaderboard: %v", err)
	}
	if len(final.Entries) != 2 {
		t.Fatalf("expected two entries, got %+v", final.Entries)
	}
	if final.Entries[0].ParticipantName != "Alice" || final.Entries[0].Score <= 0 {
		t.Fatalf("expected Alice leading with points, got %+v", final.Entries[0])
	}
	if final.Entries[1].Score != 0 {
		t.Fatalf("expected Bob at zero, got %+v", final.Entries[1])
	}
}

// recordingConn is a minimal app.Conn for driving the coordinator directly.
type recordingConn struct {
	id     string
	events []domain.Event
}

func newRecordingConn(id string) *recordingConn { return &recordingConn{id: id} }

func (c *recordingConn) ID() string            { return c.id }
func (c *recordingConn) Send(evt domain.Event) { c.events = append(c.events, evt) }
func (c *recordingConn) Close()                {}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "livedeck", "POSTGRES_PASSWORD": "livedeckpass", "POSTGRES_DB": "livedeckdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://livedeck:livedeckpass@%s:%s/livedeckdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedDeck(t *testing.T, ctx context.Context, dsn string, deck domain.Deck) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	data, err := json.Marshal(deck)
	if err != nil {
		t.Fatalf("marshal deck: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO decks (id, access_code, data) VALUES (?, ?, ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`, deck.ID, deck.AccessCode, string(data)); err != nil {
		t.Fatalf("insert deck: %v", err)
	}
}

func sampleDeck() domain.Deck {
	return domain.Deck{
		ID:         "deck-1",
		OwnerID:    "owner-1",
		Title:      "All hands",
		AccessCode: "314159",
		Slides: []domain.Slide{
			{
				ID:       "quiz-slide",
				Type:     domain.SlideQuiz,
				Question: "What is 2 + 2?",
				Order:    0,
				Quiz: &domain.QuizSettings{
					Options:          []domain.QuizOption{{ID: "right", Text: "4"}, {ID: "wrong", Text: "5"}},
					CorrectOptionID:  "right",
					TimeLimitSeconds: 30,
					Points:           100,
				},
			},
		},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
