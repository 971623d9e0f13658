package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a learner or author account. Local accounts carry a bcrypt
// PasswordHash; Google-only accounts carry GoogleID and an empty hash.
type User struct {
	ID                          string     `bson:"_id,omitempty" json:"id"`
	Name                        string     `bson:"name" json:"name"`
	Email                       string     `bson:"email" json:"email"`
	PasswordHash                string     `bson:"passwordHash,omitempty" json:"-"`
	GoogleID                    string     `bson:"googleId,omitempty" json:"googleId,omitempty"`
	Role                        string     `bson:"role" json:"role"`
	PolicyAccepted              bool       `bson:"policyAccepted" json:"policyAccepted"`
	CompletedPosts              []string   `bson:"completedPosts" json:"completedPosts"`
	FollowedCategories          []string   `bson:"followedCategories" json:"followedCategories"`
	FollowedCategoriesTimestamp *time.Time `bson:"followedCategoriesTimestamp,omitempty" json:"followedCategoriesTimestamp,omitempty"`
	ResetPasswordTokenHash      string     `bson:"resetPasswordTokenHash,omitempty" json:"-"`
	ResetPasswordExpires        *time.Time `bson:"resetPasswordExpires,omitempty" json:"-"`
	CreatedAt                   time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt                   time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// HasCompleted reports whether postID is already in the completed list.
func (u *User) HasCompleted(postID string) bool {
	for _, id := range u.CompletedPosts {
		if id == postID {
			return true
		}
	}
	return false
}

// Follows reports whether the user follows category.
func (u *User) Follows(category string) bool {
	for _, c := range u.FollowedCategories {
		if c == category {
			return true
		}
	}
	return false
}
