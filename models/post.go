package models

import "time"

// Post is an authored article. Slug and UserID never change after creation.
// FavoritesCount caches the number of favorites rows for the post and is only
// written by the favorite count reconciler.
type Post struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Slug           string    `gorm:"size:191;uniqueIndex;not null" json:"slug"`
	UserID         uint      `gorm:"index;not null" json:"user_id"`
	Title          string    `gorm:"size:255;not null" json:"title"`
	Body           string    `gorm:"type:text;not null" json:"body"`
	FavoritesCount int64     `gorm:"not null;default:0" json:"favorites_count"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	User           User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Tags           []PostTag `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Comments       []Comment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// TagList returns the post's tags in the order they were given.
func (p *Post) TagList() []string {
	tags := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		tags = append(tags, t.Tag)
	}
	return tags
}
