// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research maintains the rolling research context and generates
// action points for pipeline events.
// Implements: prd003-triage (R2-R3);
//
//	docs/ARCHITECTURE § Context Engine.
package research

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/lab-guardian/internal/store"
	"github.com/pdiddy/lab-guardian/pkg/types"
)

// Engine produces a ResearchContext per processed event and keeps the most
// recent one as the global context. The global reference is swapped
// atomically so concurrent readers never observe a half-updated context
// (R2.3).
type Engine struct {
	cfg    types.TriageConfig
	store  *store.Store
	global atomic.Pointer[types.ResearchContext]
}

// NewEngine creates a context engine backed by the given store.
func NewEngine(cfg types.TriageConfig, s *store.Store) *Engine {
	return &Engine{cfg: cfg, store: s}
}

// GlobalContext returns the most recently produced context, or nil before
// the first event.
func (e *Engine) GlobalContext() *types.ResearchContext {
	return e.global.Load()
}

// UpdateContext builds the ResearchContext for event, appends it to the
// store, and swaps it in as the global context (R2.1-R2.4). Apart from
// that single swap the engine touches no shared state.
func (e *Engine) UpdateContext(ctx context.Context, event types.LabEvent) (types.ResearchContext, error) {
	rc := types.ResearchContext{
		ContextID:               uuid.NewString(),
		Timestamp:               time.Now(),
		EventID:                 event.ID,
		ActiveTopics:            e.cfg.ActiveTopics,
		ActionPoints:            actionPoints(event),
		PendingExternalRequests: externalRequests(event),
		Importance:              event.SignificanceScore,
	}

	if err := e.store.InsertContext(ctx, rc); err != nil {
		return types.ResearchContext{}, fmt.Errorf("persisting context for event %s: %w", event.ID, err)
	}

	e.global.Store(&rc)
	return rc, nil
}

// actionPoints is the rule table keyed by event kind (R3.1). Events above
// the deep-analysis bar always receive the extra analysis pair, so any
// event scoring over 0.7 carries at least one action point (R3.2).
func actionPoints(event types.LabEvent) []string {
	name := filepath.Base(event.Path)
	var points []string

	switch event.Kind {
	case types.ChangeModified:
		points = append(points,
			fmt.Sprintf("analyze changes in %s", name),
			"update related research documentation")
	case types.ChangeCreated:
		points = append(points,
			fmt.Sprintf("index new file: %s", name),
			fmt.Sprintf("integrate %s into the knowledge index", name))
	case types.ChangeDeleted:
		points = append(points,
			fmt.Sprintf("verify removal of %s was intentional", name),
			"update related research documentation")
	case types.ChangeMoved:
		points = append(points,
			fmt.Sprintf("update references to %s", name))
	}

	if event.SignificanceScore > 0.7 {
		points = append(points,
			"high importance change detected - conduct deep analysis",
			"prepare research summary for external research team")
	}

	return points
}

// externalRequests describes research needs handed to the external service
// for highly significant or research-located events (R3.3).
func externalRequests(event types.LabEvent) []string {
	var needs []string

	if event.SignificanceScore > 0.6 {
		needs = append(needs,
			fmt.Sprintf("research latest developments related to %s changes", event.Kind),
			"find similar research approaches in academic literature")
	}
	if strings.Contains(strings.ToLower(event.Path), "research") {
		needs = append(needs, "validate research methodology against current standards")
	}

	return needs
}

// ContextHash derives a short stable identifier from the context content,
// recorded on the event for cross-referencing.
func ContextHash(rc types.ResearchContext) string {
	h := sha256.New()
	h.Write([]byte(strings.Join(rc.ActiveTopics, "\n")))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(rc.ActionPoints, "\n")))
	return hex.EncodeToString(h.Sum(nil))[:12]
}
