// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/lab-guardian/internal/store"
	"github.com/pdiddy/lab-guardian/pkg/types"
)

// --- test helpers ---

func testIndexer(t *testing.T) (*Indexer, *store.Store, string) {
	t.Helper()
	tmpDir := t.TempDir()

	s, err := store.NewStore(types.IndexConfig{DataDir: filepath.Join(tmpDir, "indexes")})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	cfg := types.IndexConfig{PreviewBytes: 500, MaxKeywords: 20}
	ix, err := New(context.Background(), s, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return ix, s, tmpDir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIndex_NewFile(t *testing.T) {
	ix, _, tmpDir := testIndexer(t)
	path := writeFile(t, tmpDir, "a.py", "x=1")

	rec, changed, err := ix.Index(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Fatal("changed = false for a never-indexed file")
	}

	sum := sha256.Sum256([]byte("x=1"))
	if rec.ContentHash != hex.EncodeToString(sum[:]) {
		t.Errorf("ContentHash = %q, want sha256 of content", rec.ContentHash)
	}
	if rec.FileType != ".py" {
		t.Errorf("FileType = %q, want .py", rec.FileType)
	}
	if rec.SizeBytes != 3 {
		t.Errorf("SizeBytes = %d, want 3", rec.SizeBytes)
	}
}

func TestIndex_UnchangedContentIsNoOp(t *testing.T) {
	ix, s, tmpDir := testIndexer(t)
	ctx := context.Background()
	path := writeFile(t, tmpDir, "a.py", "x=1")

	if _, changed, err := ix.Index(ctx, path); err != nil || !changed {
		t.Fatalf("first pass: changed=%v err=%v", changed, err)
	}
	first, err := s.GetRecord(ctx, path)
	if err != nil {
		t.Fatal(err)
	}

	if _, changed, err := ix.Index(ctx, path); err != nil || changed {
		t.Fatalf("second pass: changed=%v err=%v, want no-op", changed, err)
	}
	second, err := s.GetRecord(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if !second.IndexedAt.Equal(first.IndexedAt) {
		t.Errorf("IndexedAt mutated on dedup fast path: %v != %v", second.IndexedAt, first.IndexedAt)
	}
}

func TestIndex_ChangedContentSupersedes(t *testing.T) {
	ix, _, tmpDir := testIndexer(t)
	ctx := context.Background()
	path := writeFile(t, tmpDir, "a.py", "x=1")

	if _, _, err := ix.Index(ctx, path); err != nil {
		t.Fatal(err)
	}

	writeFile(t, tmpDir, "a.py", "x=2")
	rec, changed, err := ix.Index(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Fatal("changed = false after content change")
	}
	sum := sha256.Sum256([]byte("x=2"))
	if rec.ContentHash != hex.EncodeToString(sum[:]) {
		t.Errorf("ContentHash = %q, want hash of new content", rec.ContentHash)
	}
}

func TestIndex_SkipsDirectories(t *testing.T) {
	ix, _, tmpDir := testIndexer(t)

	_, changed, err := ix.Index(context.Background(), tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Fatal("changed = true for a directory")
	}
}

func TestIndex_MissingFileReturnsError(t *testing.T) {
	ix, _, tmpDir := testIndexer(t)

	_, changed, err := ix.Index(context.Background(), filepath.Join(tmpDir, "gone.py"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if changed {
		t.Fatal("changed = true on error")
	}
}

func TestIndex_RebuildIsIdempotent(t *testing.T) {
	tmpDir := t.TempDir()
	dataDir := filepath.Join(tmpDir, "indexes")
	ctx := context.Background()
	cfg := types.IndexConfig{PreviewBytes: 500, MaxKeywords: 20}

	path := writeFile(t, tmpDir, "a.py", "algorithm research content")

	s, err := store.NewStore(types.IndexConfig{DataDir: dataDir})
	if err != nil {
		t.Fatal(err)
	}
	ix, err := New(ctx, s, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, changed, err := ix.Index(ctx, path); err != nil || !changed {
		t.Fatalf("initial index: changed=%v err=%v", changed, err)
	}
	s.Close()

	// Replaying against a freshly rebuilt index skips unchanged content.
	s2, err := store.NewStore(types.IndexConfig{DataDir: dataDir})
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	ix2, err := New(ctx, s2, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if ix2.KnownPaths() != 1 {
		t.Fatalf("KnownPaths = %d after rebuild, want 1", ix2.KnownPaths())
	}
	if _, changed, err := ix2.Index(ctx, path); err != nil || changed {
		t.Fatalf("replay: changed=%v err=%v, want dedup no-op", changed, err)
	}
	n, err := s2.RecordCount(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("RecordCount = %d, want the same final record set", n)
	}
}

func TestExtractKeywords(t *testing.T) {
	content := "algorithm algorithm algorithm model model the with this tiny"
	got := extractKeywords(content, 20)

	if len(got) < 2 || got[0] != "algorithm" || got[1] != "model" {
		t.Fatalf("extractKeywords = %v, want frequency order [algorithm model ...]", got)
	}
	for _, w := range got {
		if stopWords[w] {
			t.Errorf("stop word %q leaked into keywords", w)
		}
		if len(w) <= 3 {
			t.Errorf("short word %q leaked into keywords", w)
		}
	}
}

func TestExtractKeywords_Bounded(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString(strings.Repeat(string(rune('a'+i%26)), 5))
		b.WriteString(" ")
	}
	got := extractKeywords(b.String(), 20)
	if len(got) > 20 {
		t.Fatalf("extractKeywords returned %d terms, want at most 20", len(got))
	}
}

func TestExtractTopics(t *testing.T) {
	got := extractTopics("We present a machine learning framework for autonomous research.")

	want := map[string]bool{"machine learning": true, "framework": true, "autonomous": true, "research": true}
	for topic := range want {
		found := false
		for _, g := range got {
			if g == topic {
				found = true
			}
		}
		if !found {
			t.Errorf("topic %q missing from %v", topic, got)
		}
	}
}

func TestImportance_PathAndContentBonuses(t *testing.T) {
	plain := importance("/tmp/a.py", "x=1")
	hot := importance("/lab/research/core/important_model.py",
		strings.Repeat("algorithm research analysis ", 200))

	if hot <= plain {
		t.Fatalf("importance: hot path %v <= plain %v", hot, plain)
	}
	if hot > 1.0 {
		t.Fatalf("importance %v exceeds cap", hot)
	}
}

func TestPreview_Bounded(t *testing.T) {
	long := strings.Repeat("abc", 1000)
	if got := preview(long, 500); len(got) != 500 {
		t.Fatalf("preview length = %d, want 500", len(got))
	}
	if got := preview("short", 500); got != "short" {
		t.Fatalf("preview = %q, want unmodified short content", got)
	}
}
