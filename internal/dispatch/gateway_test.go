// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dispatch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/lab-guardian/pkg/types"
)

// --- test helpers ---

func testGateway(t *testing.T, endpoint string) (*Gateway, types.DispatchConfig) {
	t.Helper()
	tmpDir := t.TempDir()
	cfg := types.DispatchConfig{
		HTTPConfig:      types.HTTPConfig{Timeout: 2 * time.Second, UserAgent: "lab-guardian/0.1"},
		QueueDir:        filepath.Join(tmpDir, "research_queue"),
		PapersDir:       filepath.Join(tmpDir, "paper_queue"),
		EndpointURL:     endpoint,
		RequestDeadline: 24 * time.Hour,
	}
	g, err := NewGateway(cfg, io.Discard)
	require.NoError(t, err)
	return g, cfg
}

func sampleContext() types.ResearchContext {
	return types.ResearchContext{
		ContextID:    "ctx-1",
		Timestamp:    time.Now(),
		ActiveTopics: []string{"autonomous_research", "ai_agents"},
		Importance:   0.8,
	}
}

func queueFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestSend_WritesDurableQueueFile(t *testing.T) {
	g, cfg := testGateway(t, "")

	req, err := g.Send(context.Background(), []string{"analyze changes in a.py"}, sampleContext())
	require.NoError(t, err)

	path := filepath.Join(cfg.QueueDir, req.RequestID+".json")
	data, err := os.ReadFile(path)
	require.NoError(t, err, "queue file must exist, named by request id")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, req.RequestID, decoded["request_id"])
	assert.Equal(t, "comprehensive_analysis", decoded["research_type"])

	reqCtx := decoded["context"].(map[string]any)
	assert.Equal(t, "medium", reqCtx["importance"])
	assert.Len(t, decoded["expected_deliverables"], 4)
}

func TestSend_ImportanceHighAboveThreeActionPoints(t *testing.T) {
	g, _ := testGateway(t, "")

	req, err := g.Send(context.Background(),
		[]string{"a", "b", "c", "d"}, sampleContext())
	require.NoError(t, err)
	assert.Equal(t, "high", req.Context.Importance)
}

func TestSend_ForwardsOverHTTP(t *testing.T) {
	var gotBody []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	g, cfg := testGateway(t, ts.URL)
	req, err := g.Send(context.Background(), []string{"analyze changes in a.py"}, sampleContext())
	require.NoError(t, err)

	var forwarded types.ResearchRequest
	require.NoError(t, json.Unmarshal(gotBody, &forwarded))
	assert.Equal(t, req.RequestID, forwarded.RequestID)

	// The same payload also sits in the durable queue.
	assert.Contains(t, queueFiles(t, cfg.QueueDir), req.RequestID+".json")
}

func TestSend_FileWrittenEvenWhenForwardFails(t *testing.T) {
	// A server that is already closed simulates a network failure.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	url := ts.URL
	ts.Close()

	g, cfg := testGateway(t, url)
	req, err := g.Send(context.Background(), []string{"analyze changes in a.py"}, sampleContext())
	require.NoError(t, err, "forward failure must not surface as an error")

	assert.Contains(t, queueFiles(t, cfg.QueueDir), req.RequestID+".json",
		"durable file must exist despite the failed forward")
}

func TestSend_Non2xxIsWarningNotError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	var warnings strings.Builder
	tmpDir := t.TempDir()
	cfg := types.DispatchConfig{
		HTTPConfig:      types.HTTPConfig{Timeout: 2 * time.Second},
		QueueDir:        filepath.Join(tmpDir, "rq"),
		PapersDir:       filepath.Join(tmpDir, "pq"),
		EndpointURL:     ts.URL,
		RequestDeadline: time.Hour,
	}
	g, err := NewGateway(cfg, &warnings)
	require.NoError(t, err)

	_, err = g.Send(context.Background(), []string{"a"}, sampleContext())
	require.NoError(t, err)
	assert.Contains(t, warnings.String(), "warning:")
	assert.Contains(t, warnings.String(), "503")
}

func TestEmitPaperRequest(t *testing.T) {
	g, cfg := testGateway(t, "")

	req, err := g.EmitPaperRequest("breakthrough_modified", map[string]string{
		"significance": "0.95",
		"path":         "/lab/research/core/model.py",
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(cfg.PapersDir, req.PaperID+".json"))
	require.NoError(t, err)

	var decoded types.PaperRequest
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "breakthrough_modified", decoded.Topic)
	assert.Equal(t, "0.95", decoded.Findings["significance"])
}
