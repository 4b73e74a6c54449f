package store

// Key prefixes. Secondary indexes live under idx: so a prefix scan over an
// entity never picks up index entries.
const (
	talkPrefix       = "talk:"
	talkBySlugPrefix = "idx:talks:slug:"
	talkByTagPrefix  = "idx:talks:tag:"

	userPrefix           = "user:"
	userByUsernamePrefix = "idx:users:username:"

	sessionPrefix = "session:"
)

// tagIndexKey builds the composite tag index key for a talk.
// Format: idx:talks:tag:<tag>:<talkID> with an empty value.
func tagIndexKey(tag, talkID string) []byte {
	return []byte(talkByTagPrefix + tag + ":" + talkID)
}
