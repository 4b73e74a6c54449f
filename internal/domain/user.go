package domain

// User is a registered account. Authentication happens upstream (OAuth
// provider); we only keep the profile fields talks snapshot at creation.
type User struct {
	Timestamps
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// Snapshot captures the author fields embedded into a talk at creation.
func (u *User) Snapshot() Author {
	return Author{
		ID:       u.ID,
		Username: u.Username,
		Avatar:   u.Avatar,
	}
}
