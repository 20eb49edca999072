package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"giftbot/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

// Open opens (creating if needed) the SQLite recipient store at cfg.Path.
func Open(cfg Config, log logx.Logger) (RecipientStore, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Upsert(ctx context.Context, u User) error {
	if u.ID == 0 {
		return errors.New("user id is required")
	}
	joined := u.JoinedAt
	if joined.IsZero() {
		joined = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users(id, username, first_name, balance, total_spent, joined_at)
		 VALUES(?,?,?,?,?,?)
		 ON CONFLICT(id) DO UPDATE SET
		   username   = excluded.username,
		   first_name = excluded.first_name`,
		u.ID, nullStr(u.Username), nullStr(u.FirstName), u.Balance, u.Spent,
		joined.UnixMilli(),
	)
	return err
}

func (s *sqliteStore) ListRecipients(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *sqliteStore) Statistics(ctx context.Context) (Stats, error) {
	now := time.Now()
	y, m, d := now.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	var (
		st      Stats
		first   sql.NullInt64
		last    sql.NullInt64
		balance sql.NullFloat64
		spent   sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(joined_at >= ?), 0),
		        COALESCE(SUM(joined_at >= ?), 0),
		        COALESCE(SUM(joined_at >= ?), 0),
		        SUM(balance), SUM(total_spent),
		        MIN(joined_at), MAX(joined_at)
		   FROM users`,
		dayStart.UnixMilli(),
		now.AddDate(0, 0, -7).UnixMilli(),
		now.AddDate(0, 0, -30).UnixMilli(),
	).Scan(&st.TotalUsers, &st.NewToday, &st.NewLast7d, &st.NewLast30d,
		&balance, &spent, &first, &last)
	if err != nil {
		return Stats{}, err
	}

	st.TotalBalance = balance.Float64
	st.TotalSpent = spent.Float64
	if first.Valid {
		st.FirstJoin = time.UnixMilli(first.Int64)
	}
	if last.Valid {
		st.LastJoin = time.UnixMilli(last.Int64)
	}
	return st, nil
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
