package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/tlksio/tlks-server/internal/domain"
)

// Talk Operations

// CreateTalk creates a new talk and its slug/tag indexes atomically.
// Fails with ErrSlugTaken when another talk already claimed the slug:
// silent overwrite would orphan the previous talk behind the same URL.
func (s *Store) CreateTalk(ctx context.Context, talk *domain.Talk) error {
	key := []byte(talkPrefix + talk.ID)
	slugKey := []byte(talkBySlugPrefix + talk.Slug)

	err := s.db.Update(func(txn *badger.Txn) error {
		// Reject duplicate ids.
		if _, err := txn.Get(key); err == nil {
			return ErrTalkExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		// Reject slug collisions.
		if _, err := txn.Get(slugKey); err == nil {
			return ErrSlugTaken
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		// Save talk
		data, err := json.Marshal(talk)
		if err != nil {
			return fmt.Errorf("marshal talk: %w", err)
		}

		if err := txn.Set(key, data); err != nil {
			return err
		}

		// Create slug index
		if err := txn.Set(slugKey, []byte(talk.ID)); err != nil {
			return err
		}

		// Create tag indexes (one entry per tag, for related/by-tag lookups)
		for _, tag := range talk.Tags {
			if err := txn.Set(tagIndexKey(tag, talk.ID), []byte{}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrTalkExists) || errors.Is(err, ErrSlugTaken) {
			return err
		}
		return fmt.Errorf("create talk: %w", err)
	}

	// Keep the search index in sync. A failed index write is logged, not
	// fatal: the aggregator tolerates index/store drift in both directions.
	if s.searchIndexer != nil {
		if err := s.searchIndexer.IndexTalk(ctx, talk); err != nil && s.logger != nil {
			s.logger.Warn("failed to index talk", "id", talk.ID, "error", err)
		}
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "talk created",
			slog.String("id", talk.ID),
			slog.String("slug", talk.Slug),
			slog.String("title", talk.Title),
		)
	}
	return nil
}

// GetTalk retrieves a talk by ID.
func (s *Store) GetTalk(_ context.Context, id string) (*domain.Talk, error) {
	key := []byte(talkPrefix + id)

	var talk domain.Talk
	if err := s.get(key, &talk); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrTalkNotFound
		}
		return nil, fmt.Errorf("get talk: %w", err)
	}
	return &talk, nil
}

// GetTalkBySlug retrieves a talk through the slug index.
func (s *Store) GetTalkBySlug(ctx context.Context, slug string) (*domain.Talk, error) {
	slugKey := []byte(talkBySlugPrefix + slug)

	var talkID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(slugKey)
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			talkID = string(val)
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrTalkNotFound
		}
		return nil, fmt.Errorf("get talk by slug: %w", err)
	}
	return s.GetTalk(ctx, talkID)
}

// UpdateTalkIf is the conditional check-then-mutate primitive. It re-reads
// the talk and applies mutate inside a single transaction; mutate returns
// false to signal a no-op (nothing is written, applied=false). Concurrent
// conflicting updates fail with ErrTxnConflict and may be retried by the
// caller; a committed transaction is all-or-nothing.
//
// Tags, slug, and id are immutable, so no secondary index maintenance
// happens here.
func (s *Store) UpdateTalkIf(_ context.Context, id string, mutate func(*domain.Talk) bool) (bool, *domain.Talk, error) {
	key := []byte(talkPrefix + id)

	var applied bool
	var talk domain.Talk

	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrTalkNotFound
			}
			return err
		}

		// Reset per attempt: Update can be re-entered after SSI conflicts.
		applied = false
		talk = domain.Talk{}

		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &talk)
		}); err != nil {
			return err
		}

		if !mutate(&talk) {
			return nil
		}
		applied = true

		data, err := json.Marshal(&talk)
		if err != nil {
			return fmt.Errorf("marshal talk: %w", err)
		}
		return txn.Set(key, data)
	})
	if err != nil {
		if errors.Is(err, badger.ErrConflict) {
			return false, nil, ErrTxnConflict
		}
		if errors.Is(err, ErrTalkNotFound) {
			return false, nil, ErrTalkNotFound
		}
		return false, nil, fmt.Errorf("update talk: %w", err)
	}
	return applied, &talk, nil
}

// DeleteTalk removes a talk and all of its index entries.
func (s *Store) DeleteTalk(ctx context.Context, id string) error {
	talk, err := s.GetTalk(ctx, id)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(talkPrefix + id)); err != nil {
			return err
		}
		if err := txn.Delete([]byte(talkBySlugPrefix + talk.Slug)); err != nil {
			return err
		}
		for _, tag := range talk.Tags {
			if err := txn.Delete(tagIndexKey(tag, id)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete talk: %w", err)
	}

	if s.searchIndexer != nil {
		if err := s.searchIndexer.DeleteTalk(ctx, id); err != nil && s.logger != nil {
			s.logger.Warn("failed to remove talk from index", "id", id, "error", err)
		}
	}

	if s.logger != nil {
		s.logger.Info("talk deleted", "id", id, "slug", talk.Slug)
	}
	return nil
}

// ListAllTalks returns every talk. Used for reindexing and the scan-based
// listings below; the corpus is small enough that a full scan beats
// maintaining more indexes.
func (s *Store) ListAllTalks(_ context.Context) ([]*domain.Talk, error) {
	var talks []*domain.Talk

	prefix := []byte(talkPrefix)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()

			err := item.Value(func(val []byte) error {
				var talk domain.Talk
				if err := json.Unmarshal(val, &talk); err != nil {
					return err
				}
				talks = append(talks, &talk)
				return nil
			})
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list all talks: %w", err)
	}

	return talks, nil
}

// ListLatestTalks returns up to limit talks ordered by creation time descending.
func (s *Store) ListLatestTalks(ctx context.Context, limit int) ([]*domain.Talk, error) {
	talks, err := s.ListAllTalks(ctx)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(talks, func(a, b *domain.Talk) int {
		return b.Created.Compare(a.Created)
	})
	return clipTalks(talks, limit), nil
}

// ListPopularTalks returns up to limit talks ordered by vote count descending,
// most recent first among equals.
func (s *Store) ListPopularTalks(ctx context.Context, limit int) ([]*domain.Talk, error) {
	talks, err := s.ListAllTalks(ctx)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(talks, func(a, b *domain.Talk) int {
		if a.VoteCount != b.VoteCount {
			return b.VoteCount - a.VoteCount
		}
		return b.Created.Compare(a.Created)
	})
	return clipTalks(talks, limit), nil
}

// ListTalksByTag returns up to limit talks carrying the tag, newest first.
func (s *Store) ListTalksByTag(ctx context.Context, tag string, limit int) ([]*domain.Talk, error) {
	ids, err := s.talkIDsForTag(tag)
	if err != nil {
		return nil, err
	}

	talks := make([]*domain.Talk, 0, len(ids))
	for _, id := range ids {
		talk, err := s.GetTalk(ctx, id)
		if err != nil {
			if errors.Is(err, ErrTalkNotFound) {
				// Index entry outlived the talk; skip it.
				continue
			}
			return nil, err
		}
		talks = append(talks, talk)
	}

	slices.SortFunc(talks, func(a, b *domain.Talk) int {
		return b.Created.Compare(a.Created)
	})
	return clipTalks(talks, limit), nil
}

// ListTalksByTagOverlap returns up to limit talks sharing at least one tag
// with tags, excluding excludeID. Ordered by shared-tag count descending,
// ties broken by most recent creation time, so the related listing is
// deterministic.
func (s *Store) ListTalksByTagOverlap(ctx context.Context, tags []string, excludeID string, limit int) ([]*domain.Talk, error) {
	overlap := make(map[string]int)
	for _, tag := range tags {
		ids, err := s.talkIDsForTag(tag)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			if id == excludeID {
				continue
			}
			overlap[id]++
		}
	}

	talks := make([]*domain.Talk, 0, len(overlap))
	for id := range overlap {
		talk, err := s.GetTalk(ctx, id)
		if err != nil {
			if errors.Is(err, ErrTalkNotFound) {
				continue
			}
			return nil, err
		}
		talks = append(talks, talk)
	}

	slices.SortFunc(talks, func(a, b *domain.Talk) int {
		if overlap[a.ID] != overlap[b.ID] {
			return overlap[b.ID] - overlap[a.ID]
		}
		return b.Created.Compare(a.Created)
	})
	return clipTalks(talks, limit), nil
}

// ListTalksByAuthor returns talks submitted by the user, newest first.
func (s *Store) ListTalksByAuthor(ctx context.Context, userID string) ([]*domain.Talk, error) {
	return s.filterTalks(ctx, func(t *domain.Talk) bool {
		return t.Author.ID == userID
	})
}

// ListTalksVotedBy returns talks the user upvoted, newest first.
func (s *Store) ListTalksVotedBy(ctx context.Context, userID string) ([]*domain.Talk, error) {
	return s.filterTalks(ctx, func(t *domain.Talk) bool {
		return t.HasVoted(userID)
	})
}

// ListTalksFavoritedBy returns talks the user favorited, newest first.
func (s *Store) ListTalksFavoritedBy(ctx context.Context, userID string) ([]*domain.Talk, error) {
	return s.filterTalks(ctx, func(t *domain.Talk) bool {
		return t.HasFavorited(userID)
	})
}

// filterTalks scans all talks and keeps those matching keep, newest first.
func (s *Store) filterTalks(ctx context.Context, keep func(*domain.Talk) bool) ([]*domain.Talk, error) {
	all, err := s.ListAllTalks(ctx)
	if err != nil {
		return nil, err
	}

	talks := make([]*domain.Talk, 0, len(all))
	for _, talk := range all {
		if keep(talk) {
			talks = append(talks, talk)
		}
	}

	slices.SortFunc(talks, func(a, b *domain.Talk) int {
		return b.Created.Compare(a.Created)
	})
	return talks, nil
}

// talkIDsForTag collects talk ids from the tag index.
func (s *Store) talkIDsForTag(tag string) ([]string, error) {
	prefix := []byte(talkByTagPrefix + tag + ":")

	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false // Keys carry the talk id; values are empty.

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			id := strings.TrimPrefix(key, string(prefix))
			// Talk ids are nanoids and never contain ':'. A remainder with
			// one belongs to a longer tag sharing this tag as a prefix
			// (e.g. "go:weird" under the "go" scan), not to this tag.
			if strings.Contains(id, ":") {
				continue
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan tag index %q: %w", tag, err)
	}
	return ids, nil
}

// clipTalks truncates the list to limit when limit is positive.
func clipTalks(talks []*domain.Talk, limit int) []*domain.Talk {
	if limit > 0 && len(talks) > limit {
		return talks[:limit]
	}
	return talks
}
