package models

import "time"

// Favorite records that UserID favorited PostID. The pair is unique.
type Favorite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_favorite_pair" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_favorite_pair;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

