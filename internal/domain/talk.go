// Package domain contains the core business entities and domain logic for tlks.
package domain

import "slices"

// Author is a snapshot of the submitting user, captured at creation time.
// It is not a live reference: later profile changes do not propagate here.
type Author struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// Talk is the canonical shareable unit of content: a recorded presentation
// reference plus its engagement metadata.
//
// Invariants: VoteCount == len(Votes) and FavoriteCount == len(Favorites) at
// all times. A user id appears at most once in each set. All mutation goes
// through the store's conditional-update primitive; nothing else may
// read-modify-write the counters.
type Talk struct {
	Timestamps
	ID            string   `json:"id"`
	Slug          string   `json:"slug"`
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	Code          string   `json:"code"` // external video reference (YouTube id)
	Author        Author   `json:"author"`
	Tags          []string `json:"tags,omitempty"`
	ViewCount     int      `json:"viewCount"`
	VoteCount     int      `json:"voteCount"`
	FavoriteCount int      `json:"favoriteCount"`
	Votes         []string `json:"votes,omitempty"`
	Favorites     []string `json:"favorites,omitempty"`
}

// HasVoted reports whether the user already upvoted this talk.
func (t *Talk) HasVoted(userID string) bool {
	return slices.Contains(t.Votes, userID)
}

// HasFavorited reports whether the user already favorited this talk.
func (t *Talk) HasFavorited(userID string) bool {
	return slices.Contains(t.Favorites, userID)
}

// AddVote adds userID to the vote set and bumps the counter.
// Returns false without changing anything if the user already voted.
func (t *Talk) AddVote(userID string) bool {
	if t.HasVoted(userID) {
		return false
	}
	t.Votes = append(t.Votes, userID)
	t.VoteCount = len(t.Votes)
	t.Touch()
	return true
}

// AddFavorite adds userID to the favorite set and bumps the counter.
// Returns false without changing anything if already favorited.
func (t *Talk) AddFavorite(userID string) bool {
	if t.HasFavorited(userID) {
		return false
	}
	t.Favorites = append(t.Favorites, userID)
	t.FavoriteCount = len(t.Favorites)
	t.Touch()
	return true
}

// RemoveFavorite removes userID from the favorite set and drops the counter.
// Returns false without changing anything if the user had not favorited.
func (t *Talk) RemoveFavorite(userID string) bool {
	i := slices.Index(t.Favorites, userID)
	if i < 0 {
		return false
	}
	t.Favorites = slices.Delete(t.Favorites, i, i+1)
	t.FavoriteCount = len(t.Favorites)
	t.Touch()
	return true
}

// SharedTags returns how many of this talk's tags appear in tags.
func (t *Talk) SharedTags(tags []string) int {
	count := 0
	for _, tag := range t.Tags {
		if slices.Contains(tags, tag) {
			count++
		}
	}
	return count
}

// WatchURL returns the external playback URL for the talk's video code.
func (t *Talk) WatchURL() string {
	return "https://www.youtube.com/watch?v=" + t.Code
}

// ToggleResult reports the outcome of an idempotent engagement toggle.
// Applied=false means the operation was a no-op because the user's id
// already was (or wasn't) in the relevant set. It is a success, not an error.
type ToggleResult struct {
	Applied bool `json:"applied"`
}

// TalkDraft carries user input for a new talk submission.
// Tags arrive as the raw comma-joined form the submission form produces.
type TalkDraft struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Code        string `json:"code" validate:"required,max=20"`
	Tags        string `json:"tags" validate:"max=500"`
}
