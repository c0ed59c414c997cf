// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score computes the significance of raw file-system changes.
// Implements: prd003-triage (R1);
//
//	docs/ARCHITECTURE § Significance Scoring.
package score

import (
	"path/filepath"
	"strings"

	"github.com/pdiddy/lab-guardian/pkg/types"
)

const baseScore = 0.1

// hotPathMarkers are path substrings that raise the score of a change
// regardless of file type (R1.3).
var hotPathMarkers = []string{"important", "critical", "main"}

// Score maps a RawChange to a significance estimate in [0,1]. It is a pure
// function of the change: no I/O, no shared state (R1.1).
//
// The score starts at 0.1 and accumulates bonuses for the file extension
// class (code > docs > config), known-important path substrings, and the
// change kind, where deletions weigh more than creations or modifications
// (R1.2-R1.4). The result is clamped to 1.0.
func Score(change types.RawChange) float64 {
	s := baseScore

	switch strings.ToLower(filepath.Ext(change.Path)) {
	case ".py", ".js", ".ts", ".go", ".rs":
		s += 0.3
	case ".md", ".txt":
		s += 0.2
	case ".json", ".yaml", ".yml", ".toml":
		s += 0.15
	}

	lower := strings.ToLower(change.Path)
	if strings.Contains(lower, "research") {
		s += 0.3
	}
	if strings.Contains(lower, "core") {
		s += 0.2
	}
	for _, marker := range hotPathMarkers {
		if strings.Contains(lower, marker) {
			s += 0.2
			break
		}
	}

	switch change.Kind {
	case types.ChangeCreated, types.ChangeModified:
		s += 0.1
	case types.ChangeDeleted:
		s += 0.2
	}

	if s > 1.0 {
		s = 1.0
	}
	return s
}
