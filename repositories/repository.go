package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/cppla/pubfeed/apperr"
	"github.com/cppla/pubfeed/models"
)

// PostFilter narrows a post listing. Nil pointers and an empty Tag leave that
// dimension unfiltered; set filters are AND-combined.
type PostFilter struct {
	Tag         string
	AuthorID    *uint
	FavoritedBy *uint
	FollowedBy  *uint
	Limit       int
	Offset      int
}

// PostPatch carries the mutable fields of a post. Nil fields are left alone.
type PostPatch struct {
	Title *string
	Body  *string
	Tags  *[]string
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type PostRepository interface {
	// Create inserts the post and its tag rows in one transaction.
	Create(ctx context.Context, post *models.Post, tags []string) error
	FindByID(ctx context.Context, id uint) (*models.Post, error)
	FindBySlug(ctx context.Context, slug string) (*models.Post, error)
	Update(ctx context.Context, id uint, patch PostPatch) (*models.Post, error)
	// Delete removes the post with its tags, comments and favorites.
	Delete(ctx context.Context, id uint) error
	// List returns one page of matching posts, newest first, and the
	// number of matches before pagination.
	List(ctx context.Context, filter PostFilter) ([]models.Post, int64, error)
	DistinctTags(ctx context.Context) ([]string, error)
	// RecomputeFavorites rewrites favorites_count from the favorites rows.
	RecomputeFavorites(ctx context.Context, postID uint) (*models.Post, error)
}

type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	FindByID(ctx context.Context, id uint) (*models.Comment, error)
	// Delete removes the comment row, which drops it from both the post's
	// comment list and the author's comment set.
	Delete(ctx context.Context, id uint) error
	ListByPost(ctx context.Context, postID uint) ([]models.Comment, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Comment, error)
}

// RelationRepository stores follow and favorite membership. Adds and removes
// are idempotent.
type RelationRepository interface {
	AddFollow(ctx context.Context, followerID, followeeID uint) error
	RemoveFollow(ctx context.Context, followerID, followeeID uint) error
	IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error)
	FollowingAmong(ctx context.Context, followerID uint, candidates []uint) (map[uint]bool, error)

	AddFavorite(ctx context.Context, userID, postID uint) error
	RemoveFavorite(ctx context.Context, userID, postID uint) error
	IsFavorited(ctx context.Context, userID, postID uint) (bool, error)
	FavoritedAmong(ctx context.Context, userID uint, candidates []uint) (map[uint]bool, error)
}

// translate maps gorm errors onto apperr kinds.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.Wrap(apperr.NotFound, op, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Wrap(apperr.Conflict, op, err)
	default:
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return err
		}
		return apperr.Wrap(apperr.Storage, op, err)
	}
}

func postsWithRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("User").Preload("Tags", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("post_tags.id ASC")
	})
}
