package services

import (
	"context"
	"strings"

	"github.com/cppla/pubfeed/apperr"
	"github.com/cppla/pubfeed/models"
	"github.com/cppla/pubfeed/monitoring"
	"github.com/cppla/pubfeed/repositories"
	"github.com/cppla/pubfeed/utils"
)

const tagsCacheKey = "cache:tags"

// PostUpdate holds the editable fields of a post; nil means unchanged.
type PostUpdate struct {
	Title *string
	Body  *string
	Tags  *[]string
}

// Content creates and removes posts and comments. Deleting a post and adding
// a comment to it hold the same per-post lock as favorite changes, so no row
// can be attached to a post that is being removed.
type Content struct {
	users      repositories.UserRepository
	posts      repositories.PostRepository
	comments   repositories.CommentRepository
	reconciler *Reconciler
	limits     Limits
}

func NewContent(users repositories.UserRepository, posts repositories.PostRepository,
	comments repositories.CommentRepository, reconciler *Reconciler, limits Limits) *Content {
	if reconciler == nil {
		reconciler = NewReconciler(posts, nil, limits.LockTimeout)
	}
	return &Content{users: users, posts: posts, comments: comments, reconciler: reconciler, limits: limits}
}

func (c *Content) cleanTitle(title string) (string, error) {
	title = utils.PlainText(title)
	return title, checkLength("title", title, c.limits.TitleMin, c.limits.TitleMax)
}

func (c *Content) cleanBody(body string) (string, error) {
	body = strings.TrimSpace(utils.Sanitize(body))
	return body, checkLength("body", body, c.limits.BodyMin, c.limits.BodyMax)
}

// CreatePost stores a new post with a fresh slug and a zero favorites count.
// A slug collision surfaces as Conflict; callers may retry once.
func (c *Content) CreatePost(ctx context.Context, authorID uint, title, body string, tags []string) (*models.Post, error) {
	title, err := c.cleanTitle(title)
	if err != nil {
		return nil, err
	}
	body, err = c.cleanBody(body)
	if err != nil {
		return nil, err
	}
	tags, err = cleanTags(tags, c.limits.TagMax)
	if err != nil {
		return nil, err
	}
	author, err := c.users.FindByID(ctx, authorID)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Slug:   NewSlug(title),
		UserID: author.ID,
		Title:  title,
		Body:   body,
	}
	if err := c.posts.Create(ctx, post, tags); err != nil {
		return nil, err
	}
	post.User = *author
	utils.InvalidateByPrefix(tagsCacheKey)
	monitoring.PostsCreated.Inc()
	return post, nil
}

func (c *Content) GetPost(ctx context.Context, slug string) (*models.Post, error) {
	return c.posts.FindBySlug(ctx, slug)
}

// ownedPost loads a post by slug and checks that requesterID wrote it.
func (c *Content) ownedPost(ctx context.Context, requesterID uint, slug string) (*models.Post, error) {
	post, err := c.posts.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if post.UserID != requesterID {
		return nil, apperr.New(apperr.Forbidden, "only the author may modify this post")
	}
	return post, nil
}

// UpdatePost edits title, body or tags. The slug never changes.
func (c *Content) UpdatePost(ctx context.Context, requesterID uint, slug string, upd PostUpdate) (*models.Post, error) {
	post, err := c.ownedPost(ctx, requesterID, slug)
	if err != nil {
		return nil, err
	}
	var patch repositories.PostPatch
	if upd.Title != nil {
		title, err := c.cleanTitle(*upd.Title)
		if err != nil {
			return nil, err
		}
		patch.Title = &title
	}
	if upd.Body != nil {
		body, err := c.cleanBody(*upd.Body)
		if err != nil {
			return nil, err
		}
		patch.Body = &body
	}
	if upd.Tags != nil {
		tags, err := cleanTags(*upd.Tags, c.limits.TagMax)
		if err != nil {
			return nil, err
		}
		patch.Tags = &tags
	}
	updated, err := c.posts.Update(ctx, post.ID, patch)
	if err != nil {
		return nil, err
	}
	if patch.Tags != nil {
		utils.InvalidateByPrefix(tagsCacheKey)
	}
	return updated, nil
}

// DeletePost removes the post together with its tags, comments and favorites.
func (c *Content) DeletePost(ctx context.Context, requesterID uint, slug string) error {
	post, err := c.ownedPost(ctx, requesterID, slug)
	if err != nil {
		return err
	}
	unlock, err := c.reconciler.lockPost(ctx, post.ID)
	if err != nil {
		return err
	}
	defer unlock()

	if err := c.posts.Delete(ctx, post.ID); err != nil {
		return err
	}
	utils.InvalidateByPrefix(tagsCacheKey)
	return nil
}

// CreateComment appends a comment to the post's list and the author's set.
func (c *Content) CreateComment(ctx context.Context, authorID, postID uint, body string) (*models.Comment, error) {
	body = strings.TrimSpace(utils.Sanitize(body))
	if err := checkLength("comment", body, 1, c.limits.CommentMax); err != nil {
		return nil, err
	}
	unlock, err := c.reconciler.lockPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, err := c.posts.FindByID(ctx, postID); err != nil {
		return nil, err
	}
	comment := &models.Comment{PostID: postID, UserID: authorID, Body: body}
	if err := c.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	monitoring.CommentsCreated.Inc()
	return comment, nil
}

func (c *Content) GetComment(ctx context.Context, commentID uint) (*models.Comment, error) {
	return c.comments.FindByID(ctx, commentID)
}

// DeleteComment removes a comment. Only its author may do so; the removal
// from the post, from the author and of the row itself is all-or-nothing.
func (c *Content) DeleteComment(ctx context.Context, requesterID, commentID uint) error {
	comment, err := c.comments.FindByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != requesterID {
		return apperr.New(apperr.Forbidden, "only the author may delete this comment")
	}
	return c.comments.Delete(ctx, commentID)
}

func (c *Content) ListComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	return c.comments.ListByPost(ctx, postID)
}

func (c *Content) ListUserComments(ctx context.Context, userID uint) ([]models.Comment, error) {
	return c.comments.ListByUser(ctx, userID)
}

// ListDistinctTags returns every tag in use, sorted. The list is cached in
// Redis until the next post write.
func (c *Content) ListDistinctTags(ctx context.Context) ([]string, error) {
	var tags []string
	if utils.CacheGetJSON(tagsCacheKey, &tags) {
		return tags, nil
	}
	tags, err := c.posts.DistinctTags(ctx)
	if err != nil {
		return nil, err
	}
	utils.CacheSetJSON(tagsCacheKey, tags, c.limits.TagCacheTTL)
	return tags, nil
}
