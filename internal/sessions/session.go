// Package sessions keeps refresh-token sessions and the access-token
// blacklist consulted on logout.
package sessions

import "time"

// Session is a refresh session for one login.
type Session struct {
	RefreshToken string    `bson:"_id" json:"refreshToken"`
	UserID       string    `bson:"userId" json:"userId"`
	ExpiresAt    time.Time `bson:"expiresAt" json:"expiresAt"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}

func (s *Session) Expired(now time.Time) bool { return now.After(s.ExpiresAt) }
