// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package indexer maintains the content index of the watched workspace.
// Implements: prd002-indexing (R1-R4);
//
//	docs/ARCHITECTURE § Content Indexer.
package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/lab-guardian/internal/store"
	"github.com/pdiddy/lab-guardian/pkg/types"
)

// Indexer computes content hashes and index records for workspace files.
// It keeps an in-memory path → hash map mirroring the file_index table so
// that re-indexing unchanged content is a no-op beyond the hash compare
// (R1.2, R1.3). The single consumer loop is the only caller, so the map
// needs no locking.
type Indexer struct {
	store  *store.Store
	cfg    types.IndexConfig
	hashes map[string]string
}

// New creates an Indexer and rebuilds the dedup map from the store (R3.1).
func New(ctx context.Context, s *store.Store, cfg types.IndexConfig) (*Indexer, error) {
	hashes, err := s.LoadHashes(ctx)
	if err != nil {
		return nil, fmt.Errorf("rebuilding dedup map: %w", err)
	}
	return &Indexer{store: s, cfg: cfg, hashes: hashes}, nil
}

// KnownPaths returns the number of paths in the dedup map.
func (ix *Indexer) KnownPaths() int {
	return len(ix.hashes)
}

// Index reads the file at path, hashes its content, and persists an
// IndexRecord when the content changed since the last pass. For unchanged
// content it returns changed=false without touching the store, so the
// stored IndexedAt is preserved (R1.2-R1.4).
//
// Directories are skipped. Read failures are returned to the caller to log;
// they are not fatal and leave the dedup map untouched.
func (ix *Indexer) Index(ctx context.Context, path string) (types.IndexRecord, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return types.IndexRecord{}, false, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return types.IndexRecord{}, false, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return types.IndexRecord{}, false, fmt.Errorf("reading %s: %w", path, err)
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	// Dedup fast path: same path, same hash, nothing to do.
	if ix.hashes[path] == hash {
		return types.IndexRecord{}, false, nil
	}

	content := decodeText(path, data)
	keywords := extractKeywords(content, ix.cfg.MaxKeywords)
	topics := extractTopics(content)

	rec := types.IndexRecord{
		Path:        path,
		ContentHash: hash,
		FileType:    filepath.Ext(path),
		SizeBytes:   info.Size(),
		ModifiedAt:  info.ModTime(),
		IndexedAt:   time.Now(),
		Preview:     preview(content, ix.cfg.PreviewBytes),
		Keywords:    keywords,
		Topics:      topics,
		Importance:  importance(path, content),
	}

	if err := ix.store.UpsertRecord(ctx, rec); err != nil {
		return types.IndexRecord{}, false, err
	}
	ix.hashes[path] = hash
	return rec, true, nil
}
