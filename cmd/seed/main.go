// Command seed inserts baseline todo data for local development. It
// is idempotent: todos whose title already exists are skipped.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"todo-api/internal/config"
	"todo-api/internal/postgres"
)

type sample struct {
	title       string
	description string
}

var samples = []sample{
	{"Wire up the router", "Hook routes to the service layer and check the health endpoint."},
	{"Add schema migrations", "Verify the todos table exists and migrations run cleanly."},
	{"Polish CI", "Run lint and tests before merging."},
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	creds, err := postgres.NewCredentialProvider(cfg)
	if err != nil {
		logger.Error("failed to create credential provider", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := postgres.NewPool(ctx, cfg, creds)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		logger.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}

	const q = `
		INSERT INTO todos (title, description)
		SELECT $1, $2
		WHERE NOT EXISTS (SELECT 1 FROM todos WHERE title = $1)`

	created := 0
	for _, s := range samples {
		tag, err := pool.Exec(ctx, q, s.title, s.description)
		if err != nil {
			logger.Error("failed to seed todo", slog.String("title", s.title), slog.Any("error", err))
			os.Exit(1)
		}
		created += int(tag.RowsAffected())
	}

	if created == 0 {
		logger.Info("sample todos already seeded, nothing to do")
		return
	}
	logger.Info("seeded todo items", slog.Int("created", created))
}
