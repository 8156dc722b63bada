// Package sqlite implements the charts storage backend: gift tables, the
// marketplace catalog and the seller directory. JSONL files in the data
// directory are the source of truth; SQLite is rebuilt from them on every
// attach and serves the queries.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/giftcharts/pkg/types"
)

// dbFile is the SQLite database file inside the data directory.
const dbFile = "charts.db"

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the backend logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Backend) { b.logger = l }
}

// WithoutSeed disables seeding the shared template table on first attach.
func WithoutSeed() Option {
	return func(b *Backend) { b.seed = false }
}

// Backend implements types.Backend using SQLite as the query engine and
// JSONL files as the source of truth.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	logger   *zap.Logger
	seed     bool
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{logger: zap.NewNop(), seed: true}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach initializes the backend with the given configuration.
// Creates DataDir if it does not exist, rebuilds the SQLite schema, loads
// the JSONL files and seeds the template table when no table exists.
// Returns ErrAlreadyOpen if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyOpen
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}
	config.DataDir = dataDir

	dbPath := filepath.Join(dataDir, dbFile)
	// The database is a cache of the JSONL files and always starts fresh.
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return err
	}
	if err := createSchema(db); err != nil {
		db.Close()
		return err
	}
	if err := initJSONLFiles(dataDir); err != nil {
		db.Close()
		return err
	}
	if err := loadAllJSONL(db, dataDir); err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}
	if b.seed {
		seeded, err := seedTemplateTable(db, dataDir)
		if err != nil {
			db.Close()
			return fmt.Errorf("seed template table: %w", err)
		}
		if seeded {
			b.logger.Info("seeded template table", zap.String("data_dir", dataDir))
		}
	}

	b.db = db
	b.config = config
	b.attached = true
	b.logger.Debug("backend attached", zap.String("data_dir", dataDir))
	return nil
}

// Detach releases the SQLite connection. After Detach, all operations return
// ErrStoreClosed. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	b.attached = false
	return nil
}

func createSchema(db *sql.DB) error {
	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	for _, ddl := range indexDDL {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("creating index: %w", err)
		}
	}
	return nil
}

// readyLocked returns the database or ErrStoreClosed. The caller holds b.mu.
func (b *Backend) readyLocked() (*sql.DB, error) {
	if !b.attached {
		return nil, types.ErrStoreClosed
	}
	return b.db, nil
}

var _ types.Backend = (*Backend)(nil)
