// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ResearchContext captures the triage state produced for one processed
// event. The most recent instance is retained in memory as the global
// context; historical instances are append-only in the store.
// Per prd003-triage R2.1-R2.4.
type ResearchContext struct {
	// ContextID uniquely identifies this context instance.
	ContextID string `json:"context_id" yaml:"context_id"`

	// Timestamp is when the context was produced.
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// EventID links back to the LabEvent the context was built for.
	EventID string `json:"event_id" yaml:"event_id"`

	// ActiveTopics is the rolling list of research topics in play.
	ActiveTopics []string `json:"active_topics" yaml:"active_topics"`

	// ActionPoints are the ordered suggested next steps for the event.
	ActionPoints []string `json:"action_points" yaml:"action_points"`

	// PendingExternalRequests describes research needs that should be
	// handed to the external research service.
	PendingExternalRequests []string `json:"pending_external_requests,omitempty" yaml:"pending_external_requests,omitempty"`

	// Importance carries the significance score of the originating event.
	Importance float64 `json:"importance" yaml:"importance"`
}

// RequestContext is the context snapshot embedded in a ResearchRequest.
// Per prd004-dispatch R2.2.
type RequestContext struct {
	Topics     []string  `json:"topics" yaml:"topics"`
	Importance string    `json:"importance" yaml:"importance"`
	Deadline   time.Time `json:"deadline" yaml:"deadline"`
}

// ResearchRequest is the hand-off payload for the external research
// service. It is immutable once created; its lifecycle ends when its queue
// file is written (HTTP delivery is advisory only).
// Per prd004-dispatch R1.1-R1.4, R2.1-R2.3.
type ResearchRequest struct {
	RequestID            string         `json:"request_id" yaml:"request_id"`
	Timestamp            time.Time      `json:"timestamp" yaml:"timestamp"`
	ActionPoints         []string       `json:"action_points" yaml:"action_points"`
	Context              RequestContext `json:"context" yaml:"context"`
	ResearchType         string         `json:"research_type" yaml:"research_type"`
	ExpectedDeliverables []string       `json:"expected_deliverables" yaml:"expected_deliverables"`
}

// PaperRequest is the fire-and-forget escalation payload for the
// paper-generation collaborator. Per prd004-dispatch R3.1-R3.2.
type PaperRequest struct {
	PaperID   string            `json:"paper_id" yaml:"paper_id"`
	Timestamp time.Time         `json:"timestamp" yaml:"timestamp"`
	Topic     string            `json:"topic" yaml:"topic"`
	Findings  map[string]string `json:"findings" yaml:"findings"`
}

// HealthReport is the periodic component-status snapshot written by the
// maintenance scheduler for external monitoring.
// Per prd005-pipeline R6.1-R6.3.
type HealthReport struct {
	Timestamp       time.Time         `json:"timestamp" yaml:"timestamp"`
	SystemStatus    string            `json:"system_status" yaml:"system_status"`
	Components      map[string]string `json:"components" yaml:"components"`
	Stats           GuardianStats     `json:"stats" yaml:"stats"`
	QueueDepth      int               `json:"queue_depth" yaml:"queue_depth"`
	Recommendations []string          `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
}

// StatsSnapshot is the periodic counter snapshot written by the
// maintenance scheduler. Per prd005-pipeline R5.2.
type StatsSnapshot struct {
	Timestamp         time.Time     `json:"timestamp" yaml:"timestamp"`
	UptimeSeconds     float64       `json:"uptime_seconds" yaml:"uptime_seconds"`
	Stats             GuardianStats `json:"stats" yaml:"stats"`
	State             string        `json:"state" yaml:"state"`
	BootstrapComplete bool          `json:"bootstrap_complete" yaml:"bootstrap_complete"`
	QueueDepth        int           `json:"queue_depth" yaml:"queue_depth"`
}
