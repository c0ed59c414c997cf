// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the lab-guardian pipeline.
package types

import "time"

// HTTPConfig holds shared HTTP settings for components that make network
// requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "lab-guardian/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// WatchConfig holds settings for the change source adapter.
// Per prd001-watch R2.1-R2.4.
type WatchConfig struct {
	// Roots are the directory trees watched recursively.
	Roots []string `json:"roots" yaml:"roots"`

	// CoalesceWindow merges editor write-then-rename bursts: a created
	// notification for a path seen within the window is normalized to
	// modified (default 500ms, 0 disables coalescing).
	CoalesceWindow time.Duration `json:"coalesce_window" yaml:"coalesce_window"`

	// QueueSize bounds the pipeline hand-off channel (default 256).
	QueueSize int `json:"queue_size" yaml:"queue_size"`

	// EnqueueTimeout bounds how long the watch goroutine blocks on a full
	// queue before dropping the change (default 2s).
	EnqueueTimeout time.Duration `json:"enqueue_timeout" yaml:"enqueue_timeout"`

	// IgnorePatterns are base-name glob patterns excluded from watching.
	IgnorePatterns []string `json:"ignore_patterns" yaml:"ignore_patterns"`
}

// IndexConfig holds settings for the content indexer.
// Per prd002-indexing R4.1-R4.3.
type IndexConfig struct {
	// DataDir is the directory holding the guardian SQLite database.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// PreviewBytes bounds the stored content preview (default 500).
	PreviewBytes int `json:"preview_bytes" yaml:"preview_bytes"`

	// MaxKeywords bounds the extracted keyword list (default 20).
	MaxKeywords int `json:"max_keywords" yaml:"max_keywords"`
}

// TriageConfig holds settings for significance gating and the context
// engine. Per prd003-triage R4.1-R4.4.
type TriageConfig struct {
	// ActiveTopics seeds the rolling active-topic list.
	ActiveTopics []string `json:"active_topics" yaml:"active_topics"`

	// RelevanceFloor discards events scoring below it before logging
	// (default 0, log everything).
	RelevanceFloor float64 `json:"relevance_floor" yaml:"relevance_floor"`

	// ActionThreshold gates action-point persistence (default 0.5).
	ActionThreshold float64 `json:"action_threshold" yaml:"action_threshold"`

	// DispatchThreshold gates external research dispatch (default 0.7).
	DispatchThreshold float64 `json:"dispatch_threshold" yaml:"dispatch_threshold"`

	// PaperThreshold gates paper-generation escalation (default 0.9).
	PaperThreshold float64 `json:"paper_threshold" yaml:"paper_threshold"`
}

// DispatchConfig holds settings for the dispatch gateway.
// Per prd004-dispatch R4.1-R4.4.
type DispatchConfig struct {
	HTTPConfig `yaml:",inline"`

	// QueueDir is the durable research request queue directory.
	QueueDir string `json:"queue_dir" yaml:"queue_dir"`

	// PapersDir is the paper-generation escalation queue directory.
	PapersDir string `json:"papers_dir" yaml:"papers_dir"`

	// EndpointURL, when set, enables HTTP forwarding of research requests.
	EndpointURL string `json:"endpoint_url,omitempty" yaml:"endpoint_url,omitempty"`

	// APIKey is an optional bearer token for the research endpoint.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// RequestDeadline is how far in the future request deadlines are set
	// (default 24h).
	RequestDeadline time.Duration `json:"request_deadline" yaml:"request_deadline"`
}

// MaintenanceConfig holds settings for the maintenance scheduler.
// Per prd005-pipeline R6.4-R6.6.
type MaintenanceConfig struct {
	// Interval is the maintenance cadence (default 1h).
	Interval time.Duration `json:"interval" yaml:"interval"`

	// LogRetention is how long daily event logs are kept (default 30 days).
	LogRetention time.Duration `json:"log_retention" yaml:"log_retention"`

	// QueueDepthWarn is the queue depth above which the health report
	// recommends scaling (default 50).
	QueueDepthWarn int `json:"queue_depth_warn" yaml:"queue_depth_warn"`
}

// GuardianConfig groups all component configurations.
type GuardianConfig struct {
	Watch       WatchConfig       `json:"watch" yaml:"watch"`
	Index       IndexConfig       `json:"index" yaml:"index"`
	Triage      TriageConfig      `json:"triage" yaml:"triage"`
	Dispatch    DispatchConfig    `json:"dispatch" yaml:"dispatch"`
	Maintenance MaintenanceConfig `json:"maintenance" yaml:"maintenance"`

	// LogsDir holds the daily event logs, stats snapshots, and health
	// reports.
	LogsDir string `json:"logs_dir" yaml:"logs_dir"`

	// ActionPointsDir holds per-event action point files.
	ActionPointsDir string `json:"action_points_dir" yaml:"action_points_dir"`

	// DrainTimeout bounds queue draining during shutdown (default 10s).
	DrainTimeout time.Duration `json:"drain_timeout" yaml:"drain_timeout"`
}

// ApplyDefaults fills zero-valued fields with their documented defaults.
func (c *GuardianConfig) ApplyDefaults() {
	if c.Watch.CoalesceWindow == 0 {
		c.Watch.CoalesceWindow = 500 * time.Millisecond
	}
	if c.Watch.QueueSize <= 0 {
		c.Watch.QueueSize = 256
	}
	if c.Watch.EnqueueTimeout == 0 {
		c.Watch.EnqueueTimeout = 2 * time.Second
	}
	if c.Index.DataDir == "" {
		c.Index.DataDir = "indexes"
	}
	if c.Index.PreviewBytes <= 0 {
		c.Index.PreviewBytes = 500
	}
	if c.Index.MaxKeywords <= 0 {
		c.Index.MaxKeywords = 20
	}
	if len(c.Triage.ActiveTopics) == 0 {
		c.Triage.ActiveTopics = []string{
			"autonomous_research",
			"ai_agents",
			"knowledge_management",
			"system_automation",
		}
	}
	if c.Triage.ActionThreshold == 0 {
		c.Triage.ActionThreshold = 0.5
	}
	if c.Triage.DispatchThreshold == 0 {
		c.Triage.DispatchThreshold = 0.7
	}
	if c.Triage.PaperThreshold == 0 {
		c.Triage.PaperThreshold = 0.9
	}
	if c.Dispatch.QueueDir == "" {
		c.Dispatch.QueueDir = "research_queue"
	}
	if c.Dispatch.PapersDir == "" {
		c.Dispatch.PapersDir = "paper_queue"
	}
	if c.Dispatch.Timeout == 0 {
		c.Dispatch.Timeout = 30 * time.Second
	}
	if c.Dispatch.UserAgent == "" {
		c.Dispatch.UserAgent = "lab-guardian/0.1"
	}
	if c.Dispatch.RequestDeadline == 0 {
		c.Dispatch.RequestDeadline = 24 * time.Hour
	}
	if c.Maintenance.Interval == 0 {
		c.Maintenance.Interval = time.Hour
	}
	if c.Maintenance.LogRetention == 0 {
		c.Maintenance.LogRetention = 30 * 24 * time.Hour
	}
	if c.Maintenance.QueueDepthWarn <= 0 {
		c.Maintenance.QueueDepthWarn = 50
	}
	if c.LogsDir == "" {
		c.LogsDir = "system_logs"
	}
	if c.ActionPointsDir == "" {
		c.ActionPointsDir = "action_points"
	}
	if c.DrainTimeout == 0 {
		c.DrainTimeout = 10 * time.Second
	}
}
