// Package normalize provides utilities for normalizing user-supplied talk data.
package normalize

import "strings"

// Tags canonicalizes a list of tag strings: trim whitespace, lowercase,
// drop empties, and remove duplicates while preserving first-seen order.
// Insertion order is the display order, so it must survive normalization.
func Tags(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	tags := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
	}
	return tags
}

// SplitTags splits a comma-joined tag string and normalizes the segments.
// The search index stores tags as a flat comma-joined string, so hits
// coming back from it need this before they can be compared to canonical
// talk tags.
func SplitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	return Tags(strings.Split(raw, ","))
}

// JoinTags renders a tag list as the flat comma-joined form used by the
// search index documents.
func JoinTags(tags []string) string {
	return strings.Join(tags, ",")
}
