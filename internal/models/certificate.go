package models

import "time"

// Certificate is issued once per (user, category) when every post of the
// category has been completed. UniqueID is the public verification token.
type Certificate struct {
	ID        string    `bson:"_id,omitempty" json:"certificateId"`
	UserID    string    `bson:"userId" json:"userId"`
	Category  string    `bson:"category" json:"category"`
	UniqueID  string    `bson:"uniqueId" json:"uniqueId"`
	FilePath  string    `bson:"filePath" json:"fileUrl"`
	ObjectKey string    `bson:"objectKey" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
