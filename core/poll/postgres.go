package poll

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"pollbot/core/logger"
	"log/slog"
)

// PostgresStore persists finalized polls in Postgres.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an open sqlx connection.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create validates the draft and inserts it as a new poll row.
func (s *PostgresStore) Create(ctx context.Context, d Draft) (int64, error) {
	if err := d.Validate(); err != nil {
		return 0, err
	}

	maxVotes := sql.NullInt64{}
	if d.LimitVotes {
		maxVotes = sql.NullInt64{Int64: int64(d.MaxVotes), Valid: true}
	}

	start := time.Now()
	var id int64
	err := s.db.QueryRowxContext(ctx,
		`INSERT INTO polls (question, options, anonymous, limit_votes, max_votes)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		d.Question, pq.Array(d.Options), d.Anonymous, d.LimitVotes, maxVotes,
	).Scan(&id)
	if err != nil {
		logger.Error(ctx, "polls", "poll.insert",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return 0, fmt.Errorf("poll insert: %w", err)
	}

	logger.Info(ctx, "polls", "poll.created",
		slog.String("status", "ok"),
		slog.Int64("poll_id", id),
		slog.Int("options", len(d.Options)),
		slog.Bool("anonymous", d.Anonymous),
		slog.Bool("limit_votes", d.LimitVotes),
		slog.Duration("duration", logger.Took(start)),
	)
	return id, nil
}
