package main

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFS embed.FS

type DBDialect string

const (
	dialectSQLite   DBDialect = "sqlite"
	dialectPostgres DBDialect = "postgres"
	dialectRedis    DBDialect = "redis"
	dialectMongo    DBDialect = "mongodb"
)

// SaveStore keeps one saved game per user.
type SaveStore interface {
	// Save upserts the user's slot and returns the save id.
	Save(ctx context.Context, userID string, snap Snapshot) (string, error)
	// Load returns nil, nil when the user has no save.
	Load(ctx context.Context, userID string) (*Snapshot, error)
	Delete(ctx context.Context, userID string) error
	Close() error
}

var errNoSaveStore = errors.New("no save store configured")

func openSaveStore(ctx context.Context, cfg Config) (SaveStore, error) {
	var (
		store SaveStore
		err   error
	)
	switch DBDialect(cfg.DBDialect) {
	case dialectSQLite, dialectPostgres:
		var repo *SQLRepository
		repo, err = openSQLRepository(ctx, cfg)
		store = repo
	case dialectRedis:
		var rs *RedisStore
		rs, err = openRedisStore(ctx, cfg)
		store = rs
	case dialectMongo:
		var ms *MongoStore
		ms, err = openMongoStore(ctx, cfg)
		store = ms
	default:
		return nil, fmt.Errorf("unsupported DB_DIALECT %q", cfg.DBDialect)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}

func SaveGame(ctx context.Context, store SaveStore, userID string, e *Engine) (string, error) {
	if store == nil {
		return "", errNoSaveStore
	}
	id, err := store.Save(ctx, userID, e.Snapshot())
	if err != nil {
		return "", fmt.Errorf("save game: %w", err)
	}
	return id, nil
}

// LoadGame restores the user's saved game. It reports false when there is none.
func LoadGame(ctx context.Context, store SaveStore, content *Content, userID string) (*Engine, bool, error) {
	if store == nil {
		return nil, false, errNoSaveStore
	}
	snap, err := store.Load(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("load game: %w", err)
	}
	if snap == nil {
		return nil, false, nil
	}
	e, err := RestoreEngine(content, snap)
	if err != nil {
		return nil, false, fmt.Errorf("restore game: %w", err)
	}
	return e, true, nil
}

type SQLRepository struct {
	dialect DBDialect
	db      *sql.DB
}

func openSQLRepository(ctx context.Context, cfg Config) (*SQLRepository, error) {
	dialect := DBDialect(cfg.DBDialect)

	var driverName string
	var dsn string
	switch dialect {
	case dialectSQLite:
		driverName = "sqlite"
		path := strings.TrimSpace(cfg.SQLitePath)
		if path == "" {
			path = filepath.Join("tmp", "presidential_sim.sqlite")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
		dsn = path
	case dialectPostgres:
		driverName = "pgx"
		dsn = cfg.postgresDSN()
		if dsn == "" {
			return nil, errors.New("DB_DIALECT=postgres requires DB_POSTGRES_DSN or DATABASE_URL")
		}
	default:
		return nil, fmt.Errorf("unsupported SQL dialect %q", dialect)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", dialect, err)
	}

	repo := &SQLRepository{dialect: dialect, db: db}
	if err := repo.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Printf("database: dialect=%s", dialect)
	return repo, nil
}

func (r *SQLRepository) bind(pos int) string {
	if r.dialect == dialectPostgres {
		return fmt.Sprintf("$%d", pos)
	}
	return "?"
}

func (r *SQLRepository) insertQuery(table string, cols []string) string {
	ph := make([]string, len(cols))
	for i := range cols {
		ph[i] = r.bind(i + 1)
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(cols, ", "),
		strings.Join(ph, ", "),
	)
}

func (r *SQLRepository) applyMigrations(ctx context.Context) error {
	create := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL
		)
	`
	if _, err := r.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied, err := r.appliedMigrations(ctx)
	if err != nil {
		return err
	}

	pattern := fmt.Sprintf("migrations/%s/*.sql", r.dialect)
	files, err := fs.Glob(migrationFS, pattern)
	if err != nil {
		return fmt.Errorf("glob migrations: %w", err)
	}
	sort.Strings(files)
	for _, file := range files {
		base := filepath.Base(file)
		if applied[base] {
			continue
		}
		sqlBytes, err := migrationFS.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration tx %s: %w", file, err)
		}
		if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
		q := r.insertQuery("schema_migrations", []string{"version", "applied_at"})
		if _, err := tx.ExecContext(ctx, q, base, time.Now().UTC()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}
	}
	return nil
}

func (r *SQLRepository) appliedMigrations(ctx context.Context) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	defer rows.Close()
	applied := map[string]bool{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan schema migration: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schema migrations: %w", err)
	}
	return applied, nil
}

func (r *SQLRepository) Save(ctx context.Context, userID string, snap Snapshot) (string, error) {
	payload, err := EncodeSnapshot(snap)
	if err != nil {
		return "", err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin save tx: %w", err)
	}
	id, err := r.saveWithTx(ctx, tx, userID, snap.SchemaVersion, string(payload))
	if err != nil {
		_ = tx.Rollback()
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit save tx: %w", err)
	}
	return id, nil
}

// saveWithTx keeps the slot's id stable across overwrites.
func (r *SQLRepository) saveWithTx(ctx context.Context, tx *sql.Tx, userID, version, payload string) (string, error) {
	now := time.Now().UTC()

	var id string
	err := tx.QueryRowContext(ctx, "SELECT id FROM game_saves WHERE user_id = "+r.bind(1), userID).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		id = uuid.NewString()
		q := r.insertQuery("game_saves", []string{"id", "user_id", "schema_version", "payload", "created_at", "updated_at"})
		if _, err := tx.ExecContext(ctx, q, id, userID, version, payload, now, now); err != nil {
			return "", fmt.Errorf("insert game_saves: %w", err)
		}
	case err != nil:
		return "", fmt.Errorf("lookup game_saves: %w", err)
	default:
		q := fmt.Sprintf(
			"UPDATE game_saves SET schema_version = %s, payload = %s, updated_at = %s WHERE id = %s",
			r.bind(1), r.bind(2), r.bind(3), r.bind(4),
		)
		if _, err := tx.ExecContext(ctx, q, version, payload, now, id); err != nil {
			return "", fmt.Errorf("update game_saves: %w", err)
		}
	}
	return id, nil
}

func (r *SQLRepository) Load(ctx context.Context, userID string) (*Snapshot, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, "SELECT payload FROM game_saves WHERE user_id = "+r.bind(1), userID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load game_saves: %w", err)
	}
	return DecodeSnapshot(payload)
}

func (r *SQLRepository) Delete(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM game_saves WHERE user_id = "+r.bind(1), userID); err != nil {
		return fmt.Errorf("delete game_saves: %w", err)
	}
	return nil
}

// PurgeStale removes saves not written since before.
func (r *SQLRepository) PurgeStale(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM game_saves WHERE updated_at < "+r.bind(1), before.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge game_saves: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge game_saves: %w", err)
	}
	return n, nil
}

func (r *SQLRepository) Close() error {
	return r.db.Close()
}

type stalePurger interface {
	PurgeStale(ctx context.Context, before time.Time) (int64, error)
}

// startCleanupScheduler drops saves older than retention once a day.
func startCleanupScheduler(ctx context.Context, store SaveStore, retention time.Duration) {
	purger, ok := store.(stalePurger)
	if !ok || retention <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		lastCleanupDate := ""
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				today := now.UTC().Format("2006-01-02")
				if lastCleanupDate == today {
					continue
				}
				n, err := purger.PurgeStale(ctx, now.Add(-retention))
				if err != nil {
					log.Printf("purge stale saves failed: %v", err)
					continue
				}
				lastCleanupDate = today
				if n > 0 {
					log.Printf("purged %d stale saves", n)
				}
			}
		}
	}()
}
