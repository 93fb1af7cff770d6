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

	"github.com/gotd/td/tg"
	_ "modernc.org/sqlite"

	logx "tgmarkup/pkg/logx"
	"tgmarkup/pkg/peer"
)

//go:embed migrations.sql
var migrationsFS embed.FS

// Store is the SQLite peer cache. It implements peer.Resolver.
type Store struct {
	db  *sql.DB
	log logx.Logger
	ttl time.Duration
	now func() time.Time
}

var _ peer.Resolver = (*Store)(nil)

func openSQLite(cfg Config, log logx.Logger) (*Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage: sqlite path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer; also keeps ":memory:" on a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &Store{db: db, log: log, ttl: cfg.TTL, now: time.Now}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}
	log.Debug("peer store opened", logx.String("path", path), logx.Duration("ttl", cfg.TTL))
	return st, nil
}

func (s *Store) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// PutUser inserts or refreshes u. A username moves to u if another row held it.
func (s *Store) PutUser(ctx context.Context, u peer.User) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	if u.ID <= 0 {
		return fmt.Errorf("storage: invalid user id %d", u.ID)
	}
	name := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(u.Username), "@"))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if name != "" {
		if _, err := tx.ExecContext(ctx,
			`UPDATE peers SET username = NULL WHERE username = ? AND user_id <> ?`, name, u.ID); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO peers(user_id, access_hash, username, updated_at) VALUES(?,?,?,?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   access_hash = excluded.access_hash,
		   username    = excluded.username,
		   updated_at  = excluded.updated_at`,
		u.ID, u.AccessHash, nullStr(name), s.now().UnixMilli(),
	); err != nil {
		return err
	}
	return tx.Commit()
}

// ResolveUser resolves "me", a numeric id, "@name" or a t.me link.
func (s *Store) ResolveUser(ctx context.Context, ref string) (tg.InputUserClass, error) {
	r, err := peer.ParseRef(ref)
	if err != nil {
		return nil, err
	}
	if r.Kind == peer.RefSelf {
		return &tg.InputUserSelf{}, nil
	}
	if s == nil || s.db == nil {
		return nil, &peer.ResolutionError{Ref: ref, Err: peer.ErrNotFound}
	}

	var u peer.User
	if r.Kind == peer.RefID {
		u, err = s.lookup(ctx, `user_id = ?`, r.ID)
	} else {
		u, err = s.lookup(ctx, `username = ?`, r.Username)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &peer.ResolutionError{Ref: ref, Err: peer.ErrNotFound}
	}
	if err != nil {
		return nil, &peer.ResolutionError{Ref: ref, Err: err}
	}
	return u.Input(), nil
}

// Username returns the cached username of a user id.
func (s *Store) Username(userID int64) (string, bool) {
	if s == nil || s.db == nil {
		return "", false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	u, err := s.lookup(ctx, `user_id = ?`, userID)
	if err != nil || u.Username == "" {
		return "", false
	}
	return u.Username, true
}

func (s *Store) lookup(ctx context.Context, where string, arg any) (peer.User, error) {
	var (
		u    peer.User
		name sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, access_hash, username FROM peers WHERE `+where+` AND updated_at >= ?`,
		arg, s.cutoff(),
	).Scan(&u.ID, &u.AccessHash, &name)
	u.Username = name.String
	return u, err
}

func (s *Store) cutoff() int64 {
	if s.ttl <= 0 {
		return 0
	}
	return s.now().Add(-s.ttl).UnixMilli()
}

// PruneExpired deletes rows last refreshed before now minus the TTL.
// With no TTL it is a no-op.
func (s *Store) PruneExpired(ctx context.Context, now time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, ErrDisabled
	}
	if s.ttl <= 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM peers WHERE updated_at < ?`, now.Add(-s.ttl).UnixMilli())
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		s.log.Info("pruned expired peers", logx.Int64("rows", n))
	}
	return n, nil
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
