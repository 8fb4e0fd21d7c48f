package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/cppla/pubfeed/models"
	"github.com/cppla/pubfeed/repositories"
	"github.com/cppla/pubfeed/repositories/repotest"
	"github.com/cppla/pubfeed/utils"
)

const longBody = "a body that is comfortably long enough"

type env struct {
	db       *gorm.DB
	users    repositories.UserRepository
	posts    repositories.PostRepository
	rec      *Reconciler
	dir      *Directory
	content  *Content
	feed     *FeedEngine
	accounts *Accounts
}

func newEnv(t *testing.T) *env {
	t.Helper()
	utils.PasswordCost = bcrypt.MinCost
	db := repotest.Open(t)
	users := repositories.NewUserRepository(db)
	posts := repositories.NewPostRepository(db)
	comments := repositories.NewCommentRepository(db)
	relations := repositories.NewRelationRepository(db)
	limits := DefaultLimits()

	rec := NewReconciler(posts, utils.NewLocalLocker(), limits.LockTimeout)
	dir := NewDirectory(users, posts, relations, rec)
	return &env{
		db:       db,
		users:    users,
		posts:    posts,
		rec:      rec,
		dir:      dir,
		content:  NewContent(users, posts, comments, rec, limits),
		feed:     NewFeedEngine(users, posts, dir, limits),
		accounts: NewAccounts(users),
	}
}

func (e *env) user(t *testing.T, name string) *models.User {
	t.Helper()
	return repotest.User(t, e.db, name)
}

func (e *env) post(t *testing.T, author *models.User, title string, tags ...string) *models.Post {
	t.Helper()
	p, err := e.content.CreatePost(context.Background(), author.ID, title, longBody, tags)
	require.NoError(t, err)
	return p
}

// backdate spaces creation times so ordering does not depend on clock resolution.
func (e *env) backdate(t *testing.T, p *models.Post, ago time.Duration) {
	t.Helper()
	require.NoError(t, e.db.Model(&models.Post{}).Where("id = ?", p.ID).
		Update("created_at", time.Now().Add(-ago)).Error)
}
