package models

// PostTag is one entry of a post's tag list. Duplicates are kept as given and
// ID order is the list order.
type PostTag struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	PostID uint   `gorm:"index;not null" json:"post_id"`
	Tag    string `gorm:"size:64;index;not null" json:"tag"`
}
