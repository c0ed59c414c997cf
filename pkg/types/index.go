// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// IndexRecord is the indexed view of one workspace file. There is one
// logical record per distinct path; a record is superseded (last-write-wins
// by path) when the content hash changes. The indexer owns all writes.
// Per prd002-indexing R1.1-R1.5.
type IndexRecord struct {
	// Path is the absolute file path and the record key.
	Path string `json:"path" yaml:"path"`

	// ContentHash is the hex-encoded SHA-256 of the file bytes. Two calls
	// for the same path+hash pair are a no-op on the second call.
	ContentHash string `json:"content_hash" yaml:"content_hash"`

	// FileType is the file extension including the leading dot.
	FileType string `json:"file_type" yaml:"file_type"`

	// SizeBytes is the file size at indexing time.
	SizeBytes int64 `json:"size_bytes" yaml:"size_bytes"`

	// ModifiedAt is the file's modification time at indexing time.
	ModifiedAt time.Time `json:"modified_at" yaml:"modified_at"`

	// IndexedAt is when this record was produced. Unchanged content does
	// not refresh it.
	IndexedAt time.Time `json:"indexed_at" yaml:"indexed_at"`

	// Preview is a bounded prefix of the decoded text content, empty for
	// file types outside the text allow-list.
	Preview string `json:"preview,omitempty" yaml:"preview,omitempty"`

	// Keywords are the top frequency-ranked terms after stop-word filtering,
	// at most twenty.
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`

	// Topics are matches from the fixed research topic vocabulary.
	Topics []string `json:"topics,omitempty" yaml:"topics,omitempty"`

	// Importance is the [0,1] content importance estimate.
	Importance float64 `json:"importance" yaml:"importance"`
}
