package domain

import "time"

// Token is the bearer credential bound to a single user. A user holds at most
// one token at a time.
type Token struct {
	Key       string
	UserID    string
	CreatedAt time.Time
}

// Expired reports whether the token is past its lifetime. A zero ttl means
// tokens never expire.
func (t *Token) Expired(ttl time.Duration, now time.Time) bool {
	if ttl <= 0 {
		return false
	}
	return !now.Before(t.CreatedAt.Add(ttl))
}
