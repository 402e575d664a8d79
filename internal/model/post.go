package model

import "time"

type Post struct {
	ID        string `gorm:"primaryKey" bson:"_id" json:"id"`
	Title     string `gorm:"not null" bson:"title" json:"title"`
	Content   string `gorm:"not null" bson:"content" json:"content"`
	ImageURL  string `bson:"imageUrl" json:"imageUrl"`
	CreatorID string `gorm:"index;not null" bson:"creator" json:"creatorId"`

	// Populated on read, never written through the post itself
	Creator *User `gorm:"foreignKey:CreatorID" bson:"-" json:"creator,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
