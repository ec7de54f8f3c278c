// Package store persists session metadata and transcripts. Writes are
// fire-and-forget: the orchestration path never waits on the database.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"

	"github.com/Enoch-015/Kali-E/internal/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

const writeTimeout = 5 * time.Second

// Postgres implements core.Recorder on a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// Open connects, migrates, and returns the recorder.
func Open(ctx context.Context, dsn string) (*Postgres, error) {
	if err := migrate(dsn); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func migrate(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) SessionCreated(room domain.RoomName, at time.Time) {
	p.write("session created", `
		INSERT INTO sessions (room_name, created_at, is_active)
		VALUES ($1, $2, TRUE)`,
		string(room), at)
}

func (p *Postgres) SessionActive(room domain.RoomName, at time.Time) {
	p.write("session active", `
		UPDATE sessions SET activated_at = $2
		WHERE id = (SELECT id FROM sessions WHERE room_name = $1 ORDER BY created_at DESC LIMIT 1)`,
		string(room), at)
}

func (p *Postgres) SessionEnded(room domain.RoomName, reason string, at time.Time) {
	p.write("session ended", `
		UPDATE sessions SET ended_at = $2, end_reason = $3, is_active = FALSE
		WHERE id = (SELECT id FROM sessions WHERE room_name = $1 ORDER BY created_at DESC LIMIT 1)`,
		string(room), at, reason)
}

func (p *Postgres) TranscriptLine(line domain.TranscriptLine) {
	p.write("transcript line", `
		INSERT INTO transcripts (room_name, speaker, message, said_at)
		VALUES ($1, $2, $3, $4)`,
		string(line.Room), line.Speaker, line.Text, line.At)
}

// write runs the statement in the background with its own deadline and
// logs failures instead of surfacing them.
func (p *Postgres) write(what, query string, args ...any) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if _, err := p.pool.Exec(ctx, query, args...); err != nil {
			log.Error().Err(err).Str("module", "store").Str("event", what).Msg("recorder write failed")
		}
	}()
}
