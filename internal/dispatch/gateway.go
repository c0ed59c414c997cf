// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dispatch hands action-point bundles to the external research
// service and escalates breakthroughs to the paper-generation collaborator.
// Implements: prd004-dispatch (R1-R3);
//
//	docs/ARCHITECTURE § Dispatch Gateway.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/lab-guardian/internal/httputil"
	"github.com/pdiddy/lab-guardian/pkg/types"
)

// expectedDeliverables is the fixed deliverable contract sent with every
// research request.
var expectedDeliverables = []string{
	"research_summary",
	"academic_papers",
	"trend_analysis",
	"implementation_recommendations",
}

// Gateway serializes research requests to a durable queue directory and
// optionally forwards them over HTTP. The queue file is the source of
// truth: it is written before any network attempt, and a failed forward
// is a warning, never an error (R1.2, R2.3).
type Gateway struct {
	cfg    types.DispatchConfig
	client *http.Client
	w      io.Writer
}

// NewGateway creates the queue directories and returns a gateway.
// Warnings are written to w.
func NewGateway(cfg types.DispatchConfig, w io.Writer) (*Gateway, error) {
	for _, dir := range []string{cfg.QueueDir, cfg.PapersDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating queue directory %s: %w", dir, err)
		}
	}
	return &Gateway{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		w:      w,
	}, nil
}

// Send builds a ResearchRequest from the action points and context,
// writes it to the durable queue as <requestId>.json, and, when an
// endpoint is configured, forwards the same payload over HTTP with a
// bounded timeout. The file write always happens first and its failure is
// the only error path (R1.1-R1.4).
func (g *Gateway) Send(ctx context.Context, actionPoints []string, rc types.ResearchContext) (types.ResearchRequest, error) {
	importance := "medium"
	if len(actionPoints) > 3 {
		importance = "high"
	}

	req := types.ResearchRequest{
		RequestID:    "research-request-" + uuid.NewString(),
		Timestamp:    time.Now(),
		ActionPoints: actionPoints,
		Context: types.RequestContext{
			Topics:     rc.ActiveTopics,
			Importance: importance,
			Deadline:   time.Now().Add(g.cfg.RequestDeadline),
		},
		ResearchType:         "comprehensive_analysis",
		ExpectedDeliverables: expectedDeliverables,
	}

	if err := writeJSON(filepath.Join(g.cfg.QueueDir, req.RequestID+".json"), req); err != nil {
		return types.ResearchRequest{}, fmt.Errorf("queueing research request: %w", err)
	}

	if g.cfg.EndpointURL != "" {
		status, err := httputil.PostJSON(ctx, g.client, g.cfg.EndpointURL, g.cfg.UserAgent, g.cfg.APIKey, req)
		switch {
		case err != nil:
			fmt.Fprintf(g.w, "warning: forwarding %s failed: %v\n", req.RequestID, err)
		case status < 200 || status > 299:
			fmt.Fprintf(g.w, "warning: research endpoint returned %d for %s\n", status, req.RequestID)
		}
	}

	return req, nil
}

// EmitPaperRequest writes a fire-and-forget {topic, findings} request for
// the paper-generation collaborator (R3.1). No response is awaited.
func (g *Gateway) EmitPaperRequest(topic string, findings map[string]string) (types.PaperRequest, error) {
	req := types.PaperRequest{
		PaperID:   "paper-" + uuid.NewString(),
		Timestamp: time.Now(),
		Topic:     topic,
		Findings:  findings,
	}

	if err := writeJSON(filepath.Join(g.cfg.PapersDir, req.PaperID+".json"), req); err != nil {
		return types.PaperRequest{}, fmt.Errorf("queueing paper request: %w", err)
	}
	return req, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
