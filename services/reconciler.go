package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/cppla/pubfeed/apperr"
	"github.com/cppla/pubfeed/models"
	"github.com/cppla/pubfeed/repositories"
	"github.com/cppla/pubfeed/utils"
)

// Reconciler recomputes a post's favorites count from the favorites rows.
// Work on one post is serialized through the locker.
type Reconciler struct {
	posts   repositories.PostRepository
	locker  utils.Locker
	timeout time.Duration
}

func NewReconciler(posts repositories.PostRepository, locker utils.Locker, timeout time.Duration) *Reconciler {
	if locker == nil {
		locker = utils.NewLocalLocker()
	}
	return &Reconciler{posts: posts, locker: locker, timeout: timeout}
}

func postLockKey(postID uint) string {
	return "post:" + strconv.FormatUint(uint64(postID), 10)
}

// lockPost takes the per-post lock, giving up after the configured timeout.
func (r *Reconciler) lockPost(ctx context.Context, postID uint) (func(), error) {
	lctx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		lctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	unlock, err := r.locker.Lock(lctx, postLockKey(postID))
	if err != nil {
		if errors.Is(err, utils.ErrLockTimeout) {
			return nil, apperr.Wrap(apperr.Storage, "post is busy", err)
		}
		return nil, apperr.Wrap(apperr.Storage, "lock post", err)
	}
	return unlock, nil
}

// Reconcile sets favoritesCount to the number of users favoriting the post
// and returns the stored post.
func (r *Reconciler) Reconcile(ctx context.Context, postID uint) (*models.Post, error) {
	unlock, err := r.lockPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return r.reconcileLocked(ctx, postID)
}

func (r *Reconciler) reconcileLocked(ctx context.Context, postID uint) (*models.Post, error) {
	return r.posts.RecomputeFavorites(ctx, postID)
}
