package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-logr/logr"
	_ "modernc.org/sqlite"

	"github.com/crmarques/restresource/cache"
	"github.com/crmarques/restresource/faults"
	"github.com/crmarques/restresource/resource"
)

var _ cache.Provider = (*Provider)(nil)
var _ cache.Adapter = (*Adapter)(nil)
var _ cache.Invalidator = (*Adapter)(nil)

const schema = `CREATE TABLE IF NOT EXISTS cache_entries (
	namespace TEXT NOT NULL,
	cache_key TEXT NOT NULL,
	snapshot_json BLOB NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (namespace, cache_key)
)`

// Provider persists snapshots of every namespace in one SQLite file.
type Provider struct {
	sqlDB  *sql.DB
	logger logr.Logger
}

type Option func(*Provider)

// WithLogger receives storage failures, which Get and Set cannot return.
func WithLogger(logger logr.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// Open opens path and creates the cache table when missing.
func Open(path string, opts ...Option) (*Provider, error) {
	if strings.TrimSpace(path) == "" {
		return nil, faults.NewTypedError(faults.ValidationError, "cache.path is required for the sqlite backend", nil)
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, internalError("open sqlite cache", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, internalError("ping sqlite cache", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, internalError("create sqlite cache schema", err)
	}

	provider := &Provider{sqlDB: sqlDB, logger: logr.Discard()}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(provider)
	}
	return provider, nil
}

func (p *Provider) Close() error {
	if p == nil || p.sqlDB == nil {
		return nil
	}
	return p.sqlDB.Close()
}

func (p *Provider) Namespace(name string) cache.Adapter {
	return p.Adapter(name)
}

func (p *Provider) Adapter(name string) *Adapter {
	return &Adapter{
		sqlDB:     p.sqlDB,
		namespace: name,
		logger:    p.logger.WithValues("namespace", name),
	}
}

// Adapter is the view of one namespace. Snapshots are stored as JSON and
// decode back with int64 and float64 numbers.
type Adapter struct {
	sqlDB     *sql.DB
	namespace string
	logger    logr.Logger
}

func (a *Adapter) Get(id any, params map[string]any) (any, bool) {
	row := a.sqlDB.QueryRowContext(
		context.Background(),
		`SELECT snapshot_json FROM cache_entries WHERE namespace = ? AND cache_key = ?`,
		a.namespace,
		cache.Key(id, params),
	)

	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			a.logger.Error(err, "read cache entry")
		}
		return nil, false
	}

	snapshot, err := resource.DecodeJSON(payload)
	if err != nil || snapshot == nil {
		a.logger.Error(err, "decode cache entry")
		return nil, false
	}
	return snapshot, true
}

func (a *Adapter) Set(snapshot any, params map[string]any) {
	key, ok := cache.StorageKey(snapshot, params)
	if !ok {
		return
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		a.logger.Error(err, "encode cache entry", "key", key)
		return
	}

	_, err = a.sqlDB.ExecContext(
		context.Background(),
		`INSERT INTO cache_entries (namespace, cache_key, snapshot_json, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(namespace, cache_key) DO UPDATE SET
		    snapshot_json = excluded.snapshot_json,
		    updated_at = excluded.updated_at`,
		a.namespace,
		key,
		payload,
		time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		a.logger.Error(err, "write cache entry", "key", key)
	}
}

func (a *Adapter) Invalidate(id any, params map[string]any) {
	_, err := a.sqlDB.ExecContext(
		context.Background(),
		`DELETE FROM cache_entries WHERE namespace = ? AND cache_key = ?`,
		a.namespace,
		cache.Key(id, params),
	)
	if err != nil {
		a.logger.Error(err, "delete cache entry")
	}
}

func (a *Adapter) Clear() {
	if _, err := a.sqlDB.ExecContext(context.Background(), `DELETE FROM cache_entries WHERE namespace = ?`, a.namespace); err != nil {
		a.logger.Error(err, "clear cache namespace")
	}
}

func (a *Adapter) Len() int {
	var count int
	row := a.sqlDB.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM cache_entries WHERE namespace = ?`, a.namespace)
	if err := row.Scan(&count); err != nil {
		a.logger.Error(err, "count cache entries")
		return 0
	}
	return count
}

func internalError(message string, cause error) error {
	return faults.NewTypedError(faults.InternalError, message, cause)
}
