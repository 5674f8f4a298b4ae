package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/leaderforge/leaderforge/internal/domain/model"
	"github.com/leaderforge/leaderforge/internal/errs"
	"github.com/leaderforge/leaderforge/pkg/metrics"
)

// playerRow maps the players table.
type playerRow struct {
	bun.BaseModel `bun:"table:players,alias:p"`

	ID          string    `bun:"id,pk"`
	DisplayName string    `bun:"display_name,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// scoreEventRow maps the append-only score_events table.
type scoreEventRow struct {
	bun.BaseModel `bun:"table:score_events,alias:se"`

	ID         int64     `bun:"id,pk,autoincrement"`
	PlayerID   string    `bun:"player_id,notnull"`
	Score      int64     `bun:"score,notnull"`
	Mode       string    `bun:"mode,notnull"`
	RecordedAt time.Time `bun:"recorded_at,notnull,default:current_timestamp"`
}

// entryRow maps the materialized leaderboard_entries aggregate.
type entryRow struct {
	bun.BaseModel `bun:"table:leaderboard_entries,alias:lb"`

	PlayerID     string    `bun:"player_id,pk"`
	DisplayName  string    `bun:"display_name,notnull"`
	TotalScore   int64     `bun:"total_score,notnull"`
	SessionCount int64     `bun:"session_count,notnull"`
	LastUpdated  time.Time `bun:"last_updated,notnull"`
}

func (r entryRow) toModel() model.LeaderboardEntry {
	return model.LeaderboardEntry{
		PlayerID:     r.PlayerID,
		DisplayName:  r.DisplayName,
		TotalScore:   r.TotalScore,
		SessionCount: r.SessionCount,
		LastUpdated:  r.LastUpdated,
	}
}

// PostgresStore implements Store on top of bun/pgdriver.
type PostgresStore struct {
	db *bun.DB
}

// NewPostgresStore connects to the database and verifies the connection.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	const op = "repository.new_postgres_store"

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	if err := sqldb.PingContext(ctx); err != nil {
		_ = sqldb.Close()
		return nil, errs.WrapKind(op, errs.ErrUnavailable, err)
	}

	return &PostgresStore{db: bun.NewDB(sqldb, pgdialect.New())}, nil
}

// CreateTables creates the schema if it does not exist. Intended for dev and
// test bootstrap; production deployments migrate out of band.
func (s *PostgresStore) CreateTables(ctx context.Context) error {
	const op = "repository.create_tables"

	for _, m := range []any{(*playerRow)(nil), (*scoreEventRow)(nil), (*entryRow)(nil)} {
		if _, err := s.db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return errs.WrapKind(op, errs.ErrUnavailable, err)
		}
	}

	// Descending score index drives both TopN and RankOf.
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_leaderboard_score_desc ON leaderboard_entries (total_score DESC, player_id ASC)`,
		`CREATE INDEX IF NOT EXISTS idx_score_events_player ON score_events (player_id)`,
	}
	for _, ddl := range indexes {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return errs.WrapKind(op, errs.ErrUnavailable, err)
		}
	}
	return nil
}

func (s *PostgresStore) CreatePlayer(ctx context.Context, p model.Player) error {
	const op = "repository.create_player"
	defer observe(op, time.Now())

	row := playerRow{ID: p.ID, DisplayName: p.DisplayName, CreatedAt: p.CreatedAt}
	res, err := s.db.NewInsert().
		Model(&row).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		metrics.RecordStoreError(op)
		return errs.WrapKind(op, errs.ErrUnavailable, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.Wrap(op, ErrDuplicatePlayer)
	}
	return nil
}

func (s *PostgresStore) GetPlayer(ctx context.Context, playerID string) (model.Player, error) {
	const op = "repository.get_player"
	defer observe(op, time.Now())

	var row playerRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", playerID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Player{}, errs.Wrap(op, ErrPlayerNotFound)
		}
		metrics.RecordStoreError(op)
		return model.Player{}, errs.WrapKind(op, errs.ErrUnavailable, err)
	}
	return model.Player{ID: row.ID, DisplayName: row.DisplayName, CreatedAt: row.CreatedAt}, nil
}

// AtomicUpsertIncrement runs the event append and the aggregate increment in
// one transaction. The increment is a native INSERT ... ON CONFLICT DO UPDATE
// so concurrent submissions for the same player serialize at the row, never
// losing an update.
func (s *PostgresStore) AtomicUpsertIncrement(ctx context.Context, ev model.ScoreEvent, displayName string) (model.LeaderboardEntry, error) {
	const op = "repository.atomic_upsert_increment"
	defer observe(op, time.Now())

	entry := entryRow{
		PlayerID:     ev.PlayerID,
		DisplayName:  displayName,
		TotalScore:   ev.Score,
		SessionCount: 1,
		LastUpdated:  ev.RecordedAt,
	}

	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		event := scoreEventRow{
			PlayerID:   ev.PlayerID,
			Score:      ev.Score,
			Mode:       ev.Mode,
			RecordedAt: ev.RecordedAt,
		}
		if _, err := tx.NewInsert().Model(&event).Exec(ctx); err != nil {
			return err
		}

		_, err := tx.NewInsert().
			Model(&entry).
			On("CONFLICT (player_id) DO UPDATE").
			Set("total_score = lb.total_score + EXCLUDED.total_score").
			Set("session_count = lb.session_count + 1").
			Set("last_updated = EXCLUDED.last_updated").
			Returning("total_score, session_count, last_updated").
			Exec(ctx)
		return err
	})
	if err != nil {
		metrics.RecordStoreError(op)
		return model.LeaderboardEntry{}, errs.WrapKind(op, errs.ErrUnavailable, err)
	}
	return entry.toModel(), nil
}

func (s *PostgresStore) GetEntry(ctx context.Context, playerID string) (model.LeaderboardEntry, error) {
	const op = "repository.get_entry"
	defer observe(op, time.Now())

	var row entryRow
	err := s.db.NewSelect().Model(&row).Where("player_id = ?", playerID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.LeaderboardEntry{}, errs.Wrap(op, ErrEntryNotFound)
		}
		metrics.RecordStoreError(op)
		return model.LeaderboardEntry{}, errs.WrapKind(op, errs.ErrUnavailable, err)
	}
	return row.toModel(), nil
}

func (s *PostgresStore) TopN(ctx context.Context, n int) ([]model.LeaderboardEntry, error) {
	const op = "repository.top_n"
	defer observe(op, time.Now())

	var rows []entryRow
	err := s.db.NewSelect().
		Model(&rows).
		OrderExpr("total_score DESC").
		OrderExpr("player_id ASC").
		Limit(n).
		Scan(ctx)
	if err != nil {
		metrics.RecordStoreError(op)
		return nil, errs.WrapKind(op, errs.ErrUnavailable, err)
	}

	entries := make([]model.LeaderboardEntry, len(rows))
	for i, r := range rows {
		entries[i] = r.toModel()
	}
	return entries, nil
}

// RankOf counts the rows strictly ahead of the player under the total order.
func (s *PostgresStore) RankOf(ctx context.Context, playerID string) (int64, error) {
	const op = "repository.rank_of"
	defer observe(op, time.Now())

	entry, err := s.GetEntry(ctx, playerID)
	if err != nil {
		return 0, err
	}

	ahead, err := s.db.NewSelect().
		Model((*entryRow)(nil)).
		Where("total_score > ?", entry.TotalScore).
		WhereOr("total_score = ? AND player_id < ?", entry.TotalScore, playerID).
		Count(ctx)
	if err != nil {
		metrics.RecordStoreError(op)
		return 0, errs.WrapKind(op, errs.ErrUnavailable, err)
	}
	return int64(ahead) + 1, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	const op = "repository.count"
	defer observe(op, time.Now())

	n, err := s.db.NewSelect().Model((*entryRow)(nil)).Count(ctx)
	if err != nil {
		metrics.RecordStoreError(op)
		return 0, errs.WrapKind(op, errs.ErrUnavailable, err)
	}
	return int64(n), nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	const op = "repository.ping"
	if err := s.db.PingContext(ctx); err != nil {
		return errs.WrapKind(op, errs.ErrUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func observe(op string, start time.Time) {
	metrics.RecordStoreOpLatency(op, float64(time.Since(start).Microseconds())/1000.0)
}
