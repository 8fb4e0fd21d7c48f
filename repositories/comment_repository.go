package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/pubfeed/models"
)

type gormCommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a CommentRepository backed by gorm.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &gormCommentRepository{db: db}
}

func (r *gormCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(comment).Error; err != nil {
		return translate("create comment", err)
	}
	return translate("load comment author", db.First(&comment.User, comment.UserID).Error)
}

func (r *gormCommentRepository) FindByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("User").First(&comment, id).Error; err != nil {
		return nil, translate("comment not found", err)
	}
	return &comment, nil
}

func (r *gormCommentRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Comment{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return translate("delete comment", err)
}

func (r *gormCommentRepository) ListByPost(ctx context.Context, postID uint) ([]models.Comment, error) {
	comments := []models.Comment{}
	err := r.db.WithContext(ctx).Preload("User").Where("post_id = ?", postID).Order("id ASC").Find(&comments).Error
	if err != nil {
		return nil, translate("list comments", err)
	}
	return comments, nil
}

func (r *gormCommentRepository) ListByUser(ctx context.Context, userID uint) ([]models.Comment, error) {
	comments := []models.Comment{}
	err := r.db.WithContext(ctx).Preload("User").Where("user_id = ?", userID).Order("id ASC").Find(&comments).Error
	if err != nil {
		return nil, translate("list user comments", err)
	}
	return comments, nil
}
