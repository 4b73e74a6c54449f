// Package search provides full-text search over talks using Bleve.
// Talks are indexed by title, description, speaker and tags; the index
// stores the fields needed to resolve hits back against the primary store.
package search

import (
	"strings"

	"github.com/tlksio/tlks-server/internal/domain"
)

// TalkDocument is the document structure for the Bleve index.
//
// The index is a secondary view over the Badger store: hits carry the
// talk slug so callers can fetch the authoritative record. Volatile
// fields like vote counts are deliberately not indexed, so engagement
// toggles never require a reindex.
type TalkDocument struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Speaker     string   `json:"speaker,omitempty"` // Author username, denormalized for search
	Tags        []string `json:"tags,omitempty"`
	RawTags     string   `json:"raw_tags,omitempty"` // Comma-joined, stored for hit resolution

	// Timestamps for sorting
	CreatedAt int64 `json:"created_at"` // Unix millis
}

// ToMap converts the document to a map with lowercase field names.
// Bleve by default uses Go struct field names (capitalized), but our
// mapping uses lowercase names, so we convert explicitly.
func (d *TalkDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":         d.ID,
		"slug":       d.Slug,
		"title":      d.Title,
		"created_at": d.CreatedAt,
	}

	if d.Description != "" {
		m["description"] = d.Description
	}
	if d.Speaker != "" {
		m["speaker"] = d.Speaker
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}
	if d.RawTags != "" {
		m["raw_tags"] = d.RawTags
	}

	return m
}

// TalkToDocument converts a domain Talk to a TalkDocument.
func TalkToDocument(talk *domain.Talk) *TalkDocument {
	return &TalkDocument{
		ID:          talk.ID,
		Slug:        talk.Slug,
		Title:       talk.Title,
		Description: talk.Description,
		Speaker:     talk.Author.Username,
		Tags:        talk.Tags,
		RawTags:     strings.Join(talk.Tags, ","),
		CreatedAt:   talk.Created.UnixMilli(),
	}
}
