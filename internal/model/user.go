// Package model defines the records persisted by the store
package model

// User is a registered account. PostIDs is the ordered list of posts the
// user created and is kept in sync with the posts table/collection.
type User struct {
	ID           string      `gorm:"primaryKey" bson:"_id" json:"id"`
	Email        string      `gorm:"uniqueIndex;not null" bson:"email" json:"email"`
	Name         string      `gorm:"not null" bson:"name" json:"name"`
	PasswordHash string      `gorm:"not null" bson:"password" json:"-"`
	Status       string      `bson:"status" json:"status"`
	PostIDs      StringSlice `gorm:"column:post_ids" bson:"posts" json:"posts"`
}
