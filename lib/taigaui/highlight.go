// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package taigaui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

// matchRange locates query in text case-insensitively with fzf's exact
// matcher. start and end are rune offsets; ok is false when the query
// is empty or absent.
func matchRange(text, query string) (start, end int, ok bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, 0, false
	}
	chars := util.ToChars([]byte(text))
	pattern := []rune(strings.ToLower(query))
	result, _ := algo.ExactMatchNaive(false, false, true, &chars, pattern, false, nil)
	if result.Start < 0 || result.End <= result.Start {
		return 0, 0, false
	}
	return result.Start, result.End, true
}

// highlightMatch renders text with base, styling the occurrence of
// query that fzf ranks best with match.
func highlightMatch(text, query string, base, match lipgloss.Style) string {
	start, end, ok := matchRange(text, query)
	if !ok {
		return base.Render(text)
	}
	runes := []rune(text)
	return base.Render(string(runes[:start])) +
		match.Render(string(runes[start:end])) +
		base.Render(string(runes[end:]))
}
