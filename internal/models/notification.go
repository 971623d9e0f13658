package models

import "time"

type Notification struct {
	ID        string    `bson:"_id,omitempty" json:"notificationId"`
	UserID    string    `bson:"userId" json:"userId"`
	Message   string    `bson:"message" json:"message"`
	Link      string    `bson:"link,omitempty" json:"link,omitempty"`
	IsRead    bool      `bson:"isRead" json:"read"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
