// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ChangeKind classifies a native file-system notification.
// Per prd001-watch R1.2.
type ChangeKind string

const (
	ChangeCreated  ChangeKind = "created"
	ChangeModified ChangeKind = "modified"
	ChangeDeleted  ChangeKind = "deleted"
	ChangeMoved    ChangeKind = "moved"
)

// RawChange is the normalized representation of one native file-system
// notification. It is produced once per notification by the watch adapter
// and handed to the pipeline queue; it is never mutated afterwards.
// Per prd001-watch R1.1-R1.3.
type RawChange struct {
	// Path is the absolute path the notification refers to.
	Path string `json:"path" yaml:"path"`

	// Kind is the normalized change kind.
	Kind ChangeKind `json:"kind" yaml:"kind"`

	// IsDirectory reports whether the path is (or was) a directory.
	IsDirectory bool `json:"is_directory" yaml:"is_directory"`

	// ObservedAt is when the adapter received the native notification.
	ObservedAt time.Time `json:"observed_at" yaml:"observed_at"`
}

// LabEvent is an enriched, scored, loggable unit of pipeline output derived
// from one RawChange. It is created by the orchestrator and enriched in
// place through the indexing and triage stages; once appended to the event
// log it is never mutated. Per prd005-pipeline R2.1-R2.4.
type LabEvent struct {
	// ID uniquely identifies the event.
	ID string `json:"event_id" yaml:"event_id"`

	// Timestamp is when the orchestrator dequeued the change.
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// Kind mirrors the originating RawChange kind.
	Kind ChangeKind `json:"kind" yaml:"kind"`

	// Path is the file the event refers to.
	Path string `json:"path" yaml:"path"`

	// Details holds auxiliary notification attributes (directory flag,
	// rename destination when known).
	Details map[string]string `json:"details,omitempty" yaml:"details,omitempty"`

	// SignificanceScore is the heuristic [0,1] importance estimate used to
	// gate downstream dispatch. Per prd003-triage R1.
	SignificanceScore float64 `json:"significance_score" yaml:"significance_score"`

	// ActionPoints are the suggested next steps attached by the triage stage.
	ActionPoints []string `json:"action_points,omitempty" yaml:"action_points,omitempty"`

	// ContextHash identifies the ResearchContext produced for this event.
	ContextHash string `json:"context_hash,omitempty" yaml:"context_hash,omitempty"`
}

// GuardianStats holds the process-wide pipeline counters. The orchestrator
// is the only writer; the maintenance scheduler reads snapshots.
// Per prd005-pipeline R5.1.
type GuardianStats struct {
	EventsProcessed       int64 `json:"events_processed" yaml:"events_processed"`
	EventsDropped         int64 `json:"events_dropped" yaml:"events_dropped"`
	FilesIndexed          int64 `json:"files_indexed" yaml:"files_indexed"`
	ActionPointsGenerated int64 `json:"action_points_generated" yaml:"action_points_generated"`
	RequestsSent          int64 `json:"requests_sent" yaml:"requests_sent"`
	PapersTriggered       int64 `json:"papers_triggered" yaml:"papers_triggered"`
}
