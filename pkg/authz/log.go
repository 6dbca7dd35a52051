package authz

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite" // SQLite driver
)

// LogEntry is one appended authorization decision. Entries are never
// updated or deleted once written.
type LogEntry struct {
	ID           string    // Entry identifier, assigned on append
	TenantID     string    // Tenant the request was scoped to
	PrincipalID  string    // Acting principal
	Action       string    // Attempted action
	ResourceType string    // Target resource type
	Effect       Effect    // ALLOW or DENY
	PolicyCode   string    // Deciding policy, empty for the default deny
	Reason       string    // Recorded reason
	DecidedAt    time.Time // Decision time, UTC
}

// DecisionLog is the append-only record of authorization decisions.
type DecisionLog interface {
	// Append records one decision. The entry's ID is assigned if empty.
	Append(ctx context.Context, entry *LogEntry) error

	// List returns entries for a tenant in append order, newest last.
	// A zero limit returns all entries.
	List(ctx context.Context, tenantID string, limit int) ([]*LogEntry, error)

	// Close releases log resources.
	Close() error
}

// NopLog discards every entry. Used when decision logging is disabled.
type NopLog struct{}

// Append discards the entry.
func (NopLog) Append(ctx context.Context, entry *LogEntry) error { return nil }

// List returns no entries.
func (NopLog) List(ctx context.Context, tenantID string, limit int) ([]*LogEntry, error) {
	return nil, nil
}

// Close is a no-op.
func (NopLog) Close() error { return nil }

// MemoryLog keeps entries in memory. Intended for tests and ephemeral
// deployments.
type MemoryLog struct {
	mu      sync.RWMutex
	entries []*LogEntry
}

// NewMemoryLog creates an empty in-memory decision log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

// Append records one decision.
func (l *MemoryLog) Append(ctx context.Context, entry *LogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	stored := *entry
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	entry.ID = stored.ID
	l.entries = append(l.entries, &stored)
	return nil
}

// List returns entries for a tenant in append order.
func (l *MemoryLog) List(ctx context.Context, tenantID string, limit int) ([]*LogEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []*LogEntry
	for _, e := range l.entries {
		if tenantID != "" && e.TenantID != tenantID {
			continue
		}
		copied := *e
		out = append(out, &copied)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Close is a no-op.
func (l *MemoryLog) Close() error { return nil }

// SQLiteLog persists decisions in a SQLite database. The table is
// insert-only; nothing in the log ever issues UPDATE or DELETE.
type SQLiteLog struct {
	db        *sql.DB
	mu        sync.RWMutex
	closeOnce sync.Once

	appendStmt *sql.Stmt
	listStmt   *sql.Stmt
}

// SQLiteLogConfig configures the SQLite decision log.
type SQLiteLogConfig struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds.
	BusyTimeout time.Duration
}

// NewSQLiteLog opens or creates a SQLite decision log at path with
// default settings.
func NewSQLiteLog(path string) (*SQLiteLog, error) {
	return NewSQLiteLogWithConfig(SQLiteLogConfig{Path: path})
}

// NewSQLiteLogWithConfig opens or creates a SQLite decision log.
func NewSQLiteLogWithConfig(cfg SQLiteLogConfig) (*SQLiteLog, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("decision log path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.Path, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open decision log: %w", err)
	}

	// SQLite only supports a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	l := &SQLiteLog{db: db}

	if err := l.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize decision log schema: %w", err)
	}
	if err := l.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare decision log statements: %w", err)
	}

	return l, nil
}

func (l *SQLiteLog) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS authz_decisions (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		principal_id TEXT NOT NULL,
		action TEXT NOT NULL,
		resource_type TEXT NOT NULL,
		effect TEXT NOT NULL,
		policy_code TEXT NOT NULL,
		reason TEXT NOT NULL,
		decided_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_authz_tenant ON authz_decisions(tenant_id, decided_at);
	`

	_, err := l.db.Exec(schema)
	return err
}

func (l *SQLiteLog) prepareStatements() error {
	var err error

	l.appendStmt, err = l.db.Prepare(`
		INSERT INTO authz_decisions (id, tenant_id, principal_id, action, resource_type, effect, policy_code, reason, decided_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare append statement: %w", err)
	}

	l.listStmt, err = l.db.Prepare(`
		SELECT id, tenant_id, principal_id, action, resource_type, effect, policy_code, reason, decided_at
		FROM authz_decisions
		WHERE tenant_id = ?
		ORDER BY decided_at ASC, id ASC
		LIMIT ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare list statement: %w", err)
	}

	return nil
}

// Append records one decision.
func (l *SQLiteLog) Append(ctx context.Context, entry *LogEntry) error {
	if entry == nil {
		return fmt.Errorf("entry cannot be nil")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.DecidedAt.IsZero() {
		entry.DecidedAt = time.Now().UTC()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.appendStmt.ExecContext(ctx,
		entry.ID,
		entry.TenantID,
		entry.PrincipalID,
		entry.Action,
		entry.ResourceType,
		string(entry.Effect),
		entry.PolicyCode,
		entry.Reason,
		entry.DecidedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to append decision: %w", err)
	}

	return nil
}

// List returns entries for a tenant in decision order.
func (l *SQLiteLog) List(ctx context.Context, tenantID string, limit int) ([]*LogEntry, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as unbounded
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	rows, err := l.listStmt.QueryContext(ctx, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}
	defer rows.Close()

	var entries []*LogEntry
	for rows.Next() {
		var (
			e         LogEntry
			effect    string
			decidedAt int64
		)
		if err := rows.Scan(&e.ID, &e.TenantID, &e.PrincipalID, &e.Action, &e.ResourceType,
			&effect, &e.PolicyCode, &e.Reason, &decidedAt); err != nil {
			return nil, fmt.Errorf("failed to scan decision row: %w", err)
		}
		e.Effect = Effect(effect)
		e.DecidedAt = time.Unix(0, decidedAt).UTC()
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating decision rows: %w", err)
	}

	return entries, nil
}

// Close releases the database handle. Close is idempotent.
func (l *SQLiteLog) Close() error {
	var closeErr error

	l.closeOnce.Do(func() {
		if l.appendStmt != nil {
			l.appendStmt.Close()
		}
		if l.listStmt != nil {
			l.listStmt.Close()
		}
		if l.db != nil {
			_, _ = l.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = l.db.Close()
		}
	})

	return closeErr
}
