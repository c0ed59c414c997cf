// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package indexer

import (
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"
)

// textExtensions is the allow-list of file types whose content is decoded
// for preview and keyword extraction (R4.2).
var textExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".py":   true,
	".js":   true,
	".ts":   true,
	".go":   true,
	".json": true,
	".yaml": true,
	".yml":  true,
}

// stopWords are excluded from keyword frequency counting.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "have": true, "has": true,
	"had": true, "do": true, "does": true, "did": true, "will": true,
	"would": true, "should": true, "could": true, "may": true,
	"might": true, "can": true, "this": true, "that": true,
	"these": true, "those": true,
}

// topicVocabulary is the fixed set of research indicators matched against
// file content (R4.3). Kept static rather than derived from event history.
var topicVocabulary = []string{
	"research", "study", "analysis", "investigation", "experiment",
	"hypothesis", "theory", "methodology", "results", "conclusion",
	"framework", "model", "algorithm", "system", "approach",
	"artificial intelligence", "machine learning", "deep learning",
	"neural network", "automation", "autonomous", "agent",
}

// importanceKeywords raise a file's importance when present in its content.
var importanceKeywords = []string{
	"research", "analysis", "experiment", "study", "algorithm", "model", "framework",
}

// decodeText returns the file content as a string for allow-listed text
// extensions, best effort: invalid UTF-8 bytes are kept as-is since all
// downstream use is substring matching. Returns "" for binary types.
func decodeText(path string, data []byte) string {
	if !textExtensions[strings.ToLower(filepath.Ext(path))] {
		return ""
	}
	return string(data)
}

// preview returns the first n bytes of content, truncated on a rune
// boundary.
func preview(content string, n int) string {
	if len(content) <= n {
		return content
	}
	cut := content[:n]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}

// extractKeywords counts word frequencies after stop-word filtering and
// returns the top max terms. Words of three characters or fewer are
// skipped (R4.1).
func extractKeywords(content string, max int) []string {
	if content == "" {
		return nil
	}

	freq := make(map[string]int)
	for _, word := range strings.Fields(strings.ToLower(content)) {
		word = strings.Trim(word, ".,!?\";()[]{}:")
		if len(word) <= 3 || stopWords[word] {
			continue
		}
		freq[word]++
	}

	keywords := make([]string, 0, len(freq))
	for w := range freq {
		keywords = append(keywords, w)
	}
	sort.Slice(keywords, func(i, j int) bool {
		if freq[keywords[i]] != freq[keywords[j]] {
			return freq[keywords[i]] > freq[keywords[j]]
		}
		return keywords[i] < keywords[j]
	})

	if len(keywords) > max {
		keywords = keywords[:max]
	}
	return keywords
}

// extractTopics matches content against the fixed topic vocabulary.
func extractTopics(content string) []string {
	if content == "" {
		return nil
	}
	lower := strings.ToLower(content)

	var topics []string
	for _, indicator := range topicVocabulary {
		if strings.Contains(lower, indicator) {
			topics = append(topics, indicator)
		}
	}
	return topics
}

// importance estimates a [0,1] content importance from the file type,
// content length, research keyword hits, and path location (R4.4).
func importance(path, content string) float64 {
	score := 0.0

	switch strings.ToLower(filepath.Ext(path)) {
	case ".py", ".js", ".ts", ".go":
		score += 0.3
	case ".md", ".txt":
		score += 0.2
	case ".json", ".yaml", ".yml":
		score += 0.1
	}

	if content != "" {
		length := float64(len(content)) / 10000
		if length > 0.3 {
			length = 0.3
		}
		score += length

		lower := strings.ToLower(content)
		for _, kw := range importanceKeywords {
			if strings.Contains(lower, kw) {
				score += 0.1
			}
		}
	}

	lowerPath := strings.ToLower(path)
	if strings.Contains(lowerPath, "research") {
		score += 0.2
	}
	if strings.Contains(lowerPath, "core") {
		score += 0.2
	}
	if strings.Contains(lowerPath, "important") {
		score += 0.3
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}
