package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/pubfeed/models"
)

type gormPostRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a PostRepository backed by gorm.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &gormPostRepository{db: db}
}

func tagRows(postID uint, tags []string) []models.PostTag {
	rows := make([]models.PostTag, 0, len(tags))
	for _, tag := range tags {
		rows = append(rows, models.PostTag{PostID: postID, Tag: tag})
	}
	return rows
}

func (r *gormPostRepository) Create(ctx context.Context, post *models.Post, tags []string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			return err
		}
		rows := tagRows(post.ID, tags)
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		post.Tags = rows
		return nil
	})
	return translate("create post", err)
}

func (r *gormPostRepository) FindByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := postsWithRelations(r.db.WithContext(ctx)).First(&post, id).Error; err != nil {
		return nil, translate("post not found", err)
	}
	return &post, nil
}

func (r *gormPostRepository) FindBySlug(ctx context.Context, slug string) (*models.Post, error) {
	var post models.Post
	if err := postsWithRelations(r.db.WithContext(ctx)).Where("slug = ?", slug).First(&post).Error; err != nil {
		return nil, translate("post not found", err)
	}
	return &post, nil
}

func (r *gormPostRepository) Update(ctx context.Context, id uint, patch PostPatch) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&post, id).Error; err != nil {
			return err
		}
		updates := map[string]interface{}{}
		if patch.Title != nil {
			updates["title"] = *patch.Title
		}
		if patch.Body != nil {
			updates["body"] = *patch.Body
		}
		if len(updates) > 0 {
			if err := tx.Model(&post).Updates(updates).Error; err != nil {
				return err
			}
		}
		if patch.Tags != nil {
			if err := tx.Where("post_id = ?", id).Delete(&models.PostTag{}).Error; err != nil {
				return err
			}
			rows := tagRows(id, *patch.Tags)
			if len(rows) > 0 {
				if err := tx.Create(&rows).Error; err != nil {
					return err
				}
			}
		}
		return postsWithRelations(tx).First(&post, id).Error
	})
	if err != nil {
		return nil, translate("update post", err)
	}
	return &post, nil
}

func (r *gormPostRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, child := range []interface{}{&models.Favorite{}, &models.Comment{}, &models.PostTag{}} {
			if err := tx.Where("post_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return translate("delete post", err)
}

// filtered builds the shared WHERE part of a listing on a fresh session.
func (r *gormPostRepository) filtered(ctx context.Context, f PostFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Post{})
	if f.Tag != "" {
		q = q.Where("EXISTS (SELECT 1 FROM post_tags WHERE post_tags.post_id = posts.id AND post_tags.tag = ?)", f.Tag)
	}
	if f.AuthorID != nil {
		q = q.Where("posts.user_id = ?", *f.AuthorID)
	}
	if f.FavoritedBy != nil {
		q = q.Where("posts.id IN (?)",
			r.db.Model(&models.Favorite{}).Select("post_id").Where("user_id = ?", *f.FavoritedBy))
	}
	if f.FollowedBy != nil {
		q = q.Where("posts.user_id IN (?)",
			r.db.Model(&models.Follow{}).Select("followee_id").Where("follower_id = ?", *f.FollowedBy))
	}
	return q
}

func (r *gormPostRepository) List(ctx context.Context, f PostFilter) ([]models.Post, int64, error) {
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, translate("count posts", err)
	}

	posts := []models.Post{}
	if f.Limit <= 0 || total == 0 {
		return posts, total, nil
	}
	err := postsWithRelations(r.filtered(ctx, f)).
		Order("posts.created_at DESC").
		Order("posts.id DESC").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&posts).Error
	if err != nil {
		return nil, 0, translate("list posts", err)
	}
	return posts, total, nil
}

func (r *gormPostRepository) DistinctTags(ctx context.Context) ([]string, error) {
	tags := []string{}
	err := r.db.WithContext(ctx).
		Model(&models.PostTag{}).
		Distinct("tag").
		Order("tag ASC").
		Pluck("tag", &tags).Error
	if err != nil {
		return nil, translate("list tags", err)
	}
	return tags, nil
}

func (r *gormPostRepository) RecomputeFavorites(ctx context.Context, postID uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&post, postID).Error; err != nil {
			return err
		}
		err := tx.Exec(
			"UPDATE posts SET favorites_count = (SELECT COUNT(*) FROM favorites WHERE favorites.post_id = ?) WHERE id = ?",
			postID, postID,
		).Error
		if err != nil {
			return err
		}
		post = models.Post{}
		return postsWithRelations(tx).First(&post, postID).Error
	})
	if err != nil {
		return nil, translate("reconcile favorites", err)
	}
	return &post, nil
}
