// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists the file index and research contexts.
// Implements: prd002-indexing (R2-R3), prd003-triage (R2.4);
//
//	docs/ARCHITECTURE § Embedded Store.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/lab-guardian/pkg/types"
)

const dbFile = "guardian.db"

// Store manages the guardian SQLite database. It holds two logical tables:
// file_index, keyed by path with last-write-wins upserts, and
// research_contexts, append-only keyed by context id.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the guardian database at dataDir/guardian.db
// and creates the schema if it does not exist (R2.1, R2.2).
func NewStore(cfg types.IndexConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS file_index (
			path TEXT PRIMARY KEY,
			content_hash TEXT NOT NULL,
			file_type TEXT,
			size INTEGER,
			modified_time TEXT,
			indexed_time TEXT,
			content_preview TEXT,
			keywords TEXT,
			topics TEXT,
			importance REAL
		)`,
		`CREATE TABLE IF NOT EXISTS research_contexts (
			context_id TEXT PRIMARY KEY,
			event_id TEXT,
			timestamp TEXT,
			active_topics TEXT,
			action_points TEXT,
			pending_requests TEXT,
			importance REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_contexts_timestamp ON research_contexts(timestamp)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// UpsertRecord writes an IndexRecord, replacing any previous record for the
// same path (R2.3). The superseded row is overwritten, not kept.
func (s *Store) UpsertRecord(ctx context.Context, rec types.IndexRecord) error {
	keywords, err := json.Marshal(rec.Keywords)
	if err != nil {
		return fmt.Errorf("encoding keywords: %w", err)
	}
	topics, err := json.Marshal(rec.Topics)
	if err != nil {
		return fmt.Errorf("encoding topics: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO file_index
		 (path, content_hash, file_type, size, modified_time, indexed_time,
		  content_preview, keywords, topics, importance)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Path, rec.ContentHash, rec.FileType, rec.SizeBytes,
		rec.ModifiedAt.UTC().Format(time.RFC3339Nano),
		rec.IndexedAt.UTC().Format(time.RFC3339Nano),
		rec.Preview, string(keywords), string(topics), rec.Importance,
	)
	if err != nil {
		return fmt.Errorf("upserting index record for %s: %w", rec.Path, err)
	}
	return nil
}

// GetRecord returns the IndexRecord for path, or sql.ErrNoRows when the
// path has never been indexed.
func (s *Store) GetRecord(ctx context.Context, path string) (types.IndexRecord, error) {
	var (
		rec                    types.IndexRecord
		modified, indexed      string
		keywordsRaw, topicsRaw string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT path, content_hash, file_type, size, modified_time, indexed_time,
		        content_preview, keywords, topics, importance
		   FROM file_index WHERE path = ?`, path,
	).Scan(&rec.Path, &rec.ContentHash, &rec.FileType, &rec.SizeBytes,
		&modified, &indexed, &rec.Preview, &keywordsRaw, &topicsRaw, &rec.Importance)
	if err != nil {
		return types.IndexRecord{}, err
	}

	rec.ModifiedAt, _ = time.Parse(time.RFC3339Nano, modified)
	rec.IndexedAt, _ = time.Parse(time.RFC3339Nano, indexed)
	json.Unmarshal([]byte(keywordsRaw), &rec.Keywords)
	json.Unmarshal([]byte(topicsRaw), &rec.Topics)
	return rec, nil
}

// LoadHashes returns the path → content hash mapping for every indexed
// file. The indexer rebuilds its dedup map from this on restart (R3.1).
func (s *Store) LoadHashes(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path, content_hash FROM file_index`)
	if err != nil {
		return nil, fmt.Errorf("loading content hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, fmt.Errorf("scanning content hash row: %w", err)
		}
		hashes[path] = hash
	}
	return hashes, rows.Err()
}

// RecordCount returns the number of indexed paths.
func (s *Store) RecordCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM file_index`).Scan(&n)
	return n, err
}

// InsertContext appends a ResearchContext. Contexts are never updated or
// deleted (R2.4).
func (s *Store) InsertContext(ctx context.Context, rc types.ResearchContext) error {
	topics, err := json.Marshal(rc.ActiveTopics)
	if err != nil {
		return fmt.Errorf("encoding active topics: %w", err)
	}
	points, err := json.Marshal(rc.ActionPoints)
	if err != nil {
		return fmt.Errorf("encoding action points: %w", err)
	}
	pending, err := json.Marshal(rc.PendingExternalRequests)
	if err != nil {
		return fmt.Errorf("encoding pending requests: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO research_contexts
		 (context_id, event_id, timestamp, active_topics, action_points, pending_requests, importance)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rc.ContextID, rc.EventID,
		rc.Timestamp.UTC().Format(time.RFC3339Nano),
		string(topics), string(points), string(pending), rc.Importance,
	)
	if err != nil {
		return fmt.Errorf("inserting research context %s: %w", rc.ContextID, err)
	}
	return nil
}

// RecentContexts returns up to limit contexts, newest first.
func (s *Store) RecentContexts(ctx context.Context, limit int) ([]types.ResearchContext, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT context_id, event_id, timestamp, active_topics, action_points,
		        pending_requests, importance
		   FROM research_contexts ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying research contexts: %w", err)
	}
	defer rows.Close()

	var contexts []types.ResearchContext
	for rows.Next() {
		var (
			rc                   types.ResearchContext
			ts                   string
			topicsRaw, pointsRaw string
			pendingRaw           string
		)
		if err := rows.Scan(&rc.ContextID, &rc.EventID, &ts, &topicsRaw,
			&pointsRaw, &pendingRaw, &rc.Importance); err != nil {
			return nil, fmt.Errorf("scanning research context row: %w", err)
		}
		rc.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		json.Unmarshal([]byte(topicsRaw), &rc.ActiveTopics)
		json.Unmarshal([]byte(pointsRaw), &rc.ActionPoints)
		json.Unmarshal([]byte(pendingRaw), &rc.PendingExternalRequests)
		contexts = append(contexts, rc)
	}
	return contexts, rows.Err()
}
