package services

import (
	"context"

	"github.com/cppla/pubfeed/apperr"
	"github.com/cppla/pubfeed/models"
	"github.com/cppla/pubfeed/monitoring"
	"github.com/cppla/pubfeed/repositories"
	"github.com/cppla/pubfeed/utils"
	"github.com/cppla/pubfeed/views"
)

// Directory owns follow and favorite membership. Every change goes through
// its methods; the underlying sets are never handed out.
type Directory struct {
	users      repositories.UserRepository
	posts      repositories.PostRepository
	relations  repositories.RelationRepository
	reconciler *Reconciler
}

func NewDirectory(users repositories.UserRepository, posts repositories.PostRepository,
	relations repositories.RelationRepository, reconciler *Reconciler) *Directory {
	return &Directory{users: users, posts: posts, relations: relations, reconciler: reconciler}
}

// Follow adds target to the follower's following set. Following twice is a no-op.
func (d *Directory) Follow(ctx context.Context, followerID, targetID uint) error {
	if followerID == targetID {
		return apperr.New(apperr.Validation, "cannot follow yourself")
	}
	if _, err := d.users.FindByID(ctx, targetID); err != nil {
		return err
	}
	if err := d.relations.AddFollow(ctx, followerID, targetID); err != nil {
		return err
	}
	monitoring.FollowChanges.WithLabelValues("follow").Inc()
	return nil
}

// Unfollow removes target from the follower's following set if present.
func (d *Directory) Unfollow(ctx context.Context, followerID, targetID uint) error {
	if err := d.relations.RemoveFollow(ctx, followerID, targetID); err != nil {
		return err
	}
	monitoring.FollowChanges.WithLabelValues("unfollow").Inc()
	return nil
}

func (d *Directory) IsFollowing(ctx context.Context, followerID, targetID uint) (bool, error) {
	if followerID == 0 {
		return false, nil
	}
	return d.relations.IsFollowing(ctx, followerID, targetID)
}

// FollowByUsername resolves the handle and follows it, returning the target.
func (d *Directory) FollowByUsername(ctx context.Context, followerID uint, username string) (*models.User, error) {
	target, err := d.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := d.Follow(ctx, followerID, target.ID); err != nil {
		return nil, err
	}
	return target, nil
}

func (d *Directory) UnfollowByUsername(ctx context.Context, followerID uint, username string) (*models.User, error) {
	target, err := d.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := d.Unfollow(ctx, followerID, target.ID); err != nil {
		return nil, err
	}
	return target, nil
}

// Favorite adds the post to the user's favorites and returns the post with a
// reconciled count. The membership change and the recount share the post lock.
func (d *Directory) Favorite(ctx context.Context, userID, postID uint) (*models.Post, error) {
	return d.changeFavorite(ctx, userID, postID, "favorite", d.relations.AddFavorite)
}

// Unfavorite removes the post from the user's favorites if present.
func (d *Directory) Unfavorite(ctx context.Context, userID, postID uint) (*models.Post, error) {
	return d.changeFavorite(ctx, userID, postID, "unfavorite", d.relations.RemoveFavorite)
}

func (d *Directory) changeFavorite(ctx context.Context, userID, postID uint, action string,
	apply func(context.Context, uint, uint) error) (*models.Post, error) {
	unlock, err := d.reconciler.lockPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, err := d.posts.FindByID(ctx, postID); err != nil {
		return nil, err
	}
	if err := apply(ctx, userID, postID); err != nil {
		return nil, err
	}
	monitoring.FavoriteChanges.WithLabelValues(action).Inc()
	return d.reconciler.reconcileLocked(ctx, postID)
}

func (d *Directory) FavoriteBySlug(ctx context.Context, userID uint, slug string) (*models.Post, error) {
	post, err := d.posts.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return d.Favorite(ctx, userID, post.ID)
}

func (d *Directory) UnfavoriteBySlug(ctx context.Context, userID uint, slug string) (*models.Post, error) {
	post, err := d.posts.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return d.Unfavorite(ctx, userID, post.ID)
}

func (d *Directory) IsFavorited(ctx context.Context, userID, postID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	return d.relations.IsFavorited(ctx, userID, postID)
}

// Relations snapshots the viewer's favorites among postIDs and following
// among authorIDs. A zero viewer is anonymous.
func (d *Directory) Relations(ctx context.Context, viewerID uint, postIDs, authorIDs []uint) (views.Relations, error) {
	if viewerID == 0 {
		return views.Anonymous, nil
	}
	favorited, err := d.relations.FavoritedAmong(ctx, viewerID, postIDs)
	if err != nil {
		return nil, err
	}
	following, err := d.relations.FollowingAmong(ctx, viewerID, authorIDs)
	if err != nil {
		return nil, err
	}
	return views.Snapshot{Favorited: favorited, Following: following}, nil
}

// PostRelations is Relations for a set of posts and their authors.
func (d *Directory) PostRelations(ctx context.Context, viewerID uint, posts ...models.Post) (views.Relations, error) {
	postIDs := make([]uint, 0, len(posts))
	authorIDs := make([]uint, 0, len(posts))
	for _, p := range posts {
		postIDs = append(postIDs, p.ID)
		authorIDs = append(authorIDs, p.UserID)
	}
	return d.Relations(ctx, viewerID, postIDs, utils.UniqueUint(authorIDs))
}

// CommentRelations covers the authors of the given comments.
func (d *Directory) CommentRelations(ctx context.Context, viewerID uint, comments []models.Comment) (views.Relations, error) {
	authorIDs := make([]uint, 0, len(comments))
	for _, c := range comments {
		authorIDs = append(authorIDs, c.UserID)
	}
	return d.Relations(ctx, viewerID, nil, utils.UniqueUint(authorIDs))
}
