// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package explorer

import (
	"strconv"
	"strings"
)

// Matches reports whether a resource with the given ref and subject
// satisfies query. The query matches case-insensitively anywhere in
// "#<ref> <subject>". An empty query matches everything.
func Matches(query string, ref int64, subject string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	haystack := "#" + strconv.FormatInt(ref, 10) + " " + subject
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(query))
}

func filterItems[T any](records []T, query string, key func(T) (int64, string)) []T {
	if strings.TrimSpace(query) == "" {
		return records
	}
	matched := make([]T, 0, len(records))
	for _, record := range records {
		ref, subject := key(record)
		if Matches(query, ref, subject) {
			matched = append(matched, record)
		}
	}
	return matched
}
