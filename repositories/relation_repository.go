package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/pubfeed/models"
)

type gormRelationRepository struct {
	db *gorm.DB
}

// NewRelationRepository creates a RelationRepository backed by gorm.
func NewRelationRepository(db *gorm.DB) RelationRepository {
	return &gormRelationRepository{db: db}
}

func (r *gormRelationRepository) insertIgnore(ctx context.Context, op string, row interface{}) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error
	return translate(op, err)
}

func (r *gormRelationRepository) exists(ctx context.Context, op string, model interface{}, query string, args ...interface{}) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(model).Where(query, args...).Count(&n).Error; err != nil {
		return false, translate(op, err)
	}
	return n > 0, nil
}

func (r *gormRelationRepository) among(ctx context.Context, op string, model interface{}, column, ownerCol string, owner uint, candidates []uint) (map[uint]bool, error) {
	out := make(map[uint]bool, len(candidates))
	if owner == 0 || len(candidates) == 0 {
		return out, nil
	}
	var hits []uint
	err := r.db.WithContext(ctx).Model(model).
		Where(ownerCol+" = ? AND "+column+" IN ?", owner, candidates).
		Pluck(column, &hits).Error
	if err != nil {
		return nil, translate(op, err)
	}
	for _, id := range hits {
		out[id] = true
	}
	return out, nil
}

func (r *gormRelationRepository) AddFollow(ctx context.Context, followerID, followeeID uint) error {
	return r.insertIgnore(ctx, "follow", &models.Follow{FollowerID: followerID, FolloweeID: followeeID})
}

func (r *gormRelationRepository) RemoveFollow(ctx context.Context, followerID, followeeID uint) error {
	err := r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&models.Follow{}).Error
	return translate("unfollow", err)
}

func (r *gormRelationRepository) IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error) {
	return r.exists(ctx, "is following", &models.Follow{}, "follower_id = ? AND followee_id = ?", followerID, followeeID)
}

func (r *gormRelationRepository) FollowingAmong(ctx context.Context, followerID uint, candidates []uint) (map[uint]bool, error) {
	return r.among(ctx, "following lookup", &models.Follow{}, "followee_id", "follower_id", followerID, candidates)
}

func (r *gormRelationRepository) AddFavorite(ctx context.Context, userID, postID uint) error {
	return r.insertIgnore(ctx, "favorite", &models.Favorite{UserID: userID, PostID: postID})
}

func (r *gormRelationRepository) RemoveFavorite(ctx context.Context, userID, postID uint) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Favorite{}).Error
	return translate("unfavorite", err)
}

func (r *gormRelationRepository) IsFavorited(ctx context.Context, userID, postID uint) (bool, error) {
	return r.exists(ctx, "is favorited", &models.Favorite{}, "user_id = ? AND post_id = ?", userID, postID)
}

func (r *gormRelationRepository) FavoritedAmong(ctx context.Context, userID uint, candidates []uint) (map[uint]bool, error) {
	return r.among(ctx, "favorite lookup", &models.Favorite{}, "post_id", "user_id", userID, candidates)
}
