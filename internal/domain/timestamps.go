package domain

import "time"

// Timestamps provides the created/updated pair shared by all stored entities.
type Timestamps struct {
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// Touch updates the Updated timestamp to the current time.
// Call this whenever the underlying entity changes.
func (t *Timestamps) Touch() {
	t.Updated = time.Now()
}

// InitTimestamps sets both Created and Updated to now.
// Call this when creating a new entity.
func (t *Timestamps) InitTimestamps() {
	now := time.Now()
	t.Created = now
	t.Updated = now
}
