package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/agenthands/flowlink/internal/core/model"
	"github.com/agenthands/flowlink/internal/remap"
)

// Store is the durable resolution ledger backed by SQLite. Both tables are
// keyed merge-on-write: re-running a batch overwrites the row sharing the
// same key instead of appending.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS substitutions (
	process_id       TEXT NOT NULL,
	original_flow_id TEXT NOT NULL,
	resolved_flow_id TEXT NOT NULL DEFAULT '',
	resolved_name    TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL,
	reason           TEXT NOT NULL DEFAULT '',
	updated_at       TIMESTAMP NOT NULL,
	PRIMARY KEY (process_id, original_flow_id)
);
CREATE TABLE IF NOT EXISTS identity_mappings (
	category    TEXT NOT NULL,
	original_id TEXT NOT NULL,
	final_id    TEXT NOT NULL,
	PRIMARY KEY (category, original_id)
);
`

// Open initializes or connects to the ledger database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init ledger schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Ping verifies the database connection is still usable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record upserts one substitution outcome. A FAILED record for a key is
// replaced by a later SUCCESS for the same key, and vice versa.
func (s *Store) Record(ctx context.Context, record model.SubstitutionRecord) error {
	if record.ProcessID == "" || record.OriginalFlowID == "" {
		return fmt.Errorf("substitution record missing key fields")
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO substitutions (process_id, original_flow_id, resolved_flow_id, resolved_name, status, reason, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (process_id, original_flow_id) DO UPDATE SET
			resolved_flow_id = excluded.resolved_flow_id,
			resolved_name    = excluded.resolved_name,
			status           = excluded.status,
			reason           = excluded.reason,
			updated_at       = excluded.updated_at`,
		record.ProcessID, record.OriginalFlowID, record.ResolvedFlowID,
		record.ResolvedName, string(record.Status), string(record.Reason), record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("record substitution %s/%s: %w", record.ProcessID, record.OriginalFlowID, err)
	}
	return nil
}

// Resume returns the keys already resolved successfully. FAILED keys are not
// included so a re-run retries them.
func (s *Store) Resume(ctx context.Context) (map[model.SubstitutionKey]struct{}, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT process_id, original_flow_id FROM substitutions WHERE status = ?`,
		string(model.StatusSuccess))
	if err != nil {
		return nil, fmt.Errorf("load resumable keys: %w", err)
	}
	defer rows.Close()

	done := make(map[model.SubstitutionKey]struct{})
	for rows.Next() {
		var key model.SubstitutionKey
		if err := rows.Scan(&key.ProcessID, &key.OriginalFlowID); err != nil {
			return nil, fmt.Errorf("scan resumable key: %w", err)
		}
		done[key] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resumable keys: %w", err)
	}
	return done, nil
}

// Substitutions returns every recorded outcome ordered by key.
func (s *Store) Substitutions(ctx context.Context) ([]model.SubstitutionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT process_id, original_flow_id, resolved_flow_id, resolved_name, status, reason, updated_at
		FROM substitutions ORDER BY process_id, original_flow_id`)
	if err != nil {
		return nil, fmt.Errorf("list substitutions: %w", err)
	}
	defer rows.Close()

	var records []model.SubstitutionRecord
	for rows.Next() {
		var record model.SubstitutionRecord
		var status, reason string
		if err := rows.Scan(&record.ProcessID, &record.OriginalFlowID, &record.ResolvedFlowID,
			&record.ResolvedName, &status, &reason, &record.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan substitution: %w", err)
		}
		record.Status = model.SubstitutionStatus(status)
		record.Reason = model.FailureReason(reason)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate substitutions: %w", err)
	}
	return records, nil
}

// PutMapping upserts one identity mapping entry.
func (s *Store) PutMapping(ctx context.Context, category model.MappingCategory, originalID, finalID string) error {
	if originalID == "" || finalID == "" {
		return fmt.Errorf("identity mapping missing ids")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO identity_mappings (category, original_id, final_id)
		VALUES (?, ?, ?)
		ON CONFLICT (category, original_id) DO UPDATE SET final_id = excluded.final_id`,
		string(category), originalID, finalID)
	if err != nil {
		return fmt.Errorf("record identity mapping %s/%s: %w", category, originalID, err)
	}
	return nil
}

// Mappings loads all identity mappings grouped by category, with multi-hop
// chains collapsed so every original id maps directly to its final id.
func (s *Store) Mappings(ctx context.Context) (model.IdentityMapping, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, original_id, final_id FROM identity_mappings`)
	if err != nil {
		return nil, fmt.Errorf("list identity mappings: %w", err)
	}
	defer rows.Close()

	mapping := make(model.IdentityMapping)
	for rows.Next() {
		var category, originalID, finalID string
		if err := rows.Scan(&category, &originalID, &finalID); err != nil {
			return nil, fmt.Errorf("scan identity mapping: %w", err)
		}
		bucket := mapping[model.MappingCategory(category)]
		if bucket == nil {
			bucket = make(map[string]string)
			mapping[model.MappingCategory(category)] = bucket
		}
		bucket[originalID] = finalID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identity mappings: %w", err)
	}
	remap.Collapse(mapping)
	return mapping, nil
}
