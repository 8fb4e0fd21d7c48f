package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/cppla/pubfeed/apperr"
	"github.com/cppla/pubfeed/models"
	"github.com/cppla/pubfeed/monitoring"
	"github.com/cppla/pubfeed/repositories"
	"github.com/cppla/pubfeed/utils"
)

// Registration is the input of Accounts.Register.
type Registration struct {
	Username string `validate:"required,min=1,max=64,handle"`
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"required,min=6,max=72"`
}

// Accounts handles sign-up, credential checks and user lookups.
type Accounts struct {
	users repositories.UserRepository
}

func NewAccounts(users repositories.UserRepository) *Accounts {
	return &Accounts{users: users}
}

// GravatarURL returns the avatar URL for an email address.
func GravatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%s?s=200&r=pg&d=mm", hex.EncodeToString(sum[:]))
}

// Register creates a user. A taken username or email is a Conflict.
func (a *Accounts) Register(ctx context.Context, reg Registration) (*models.User, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.ToLower(strings.TrimSpace(reg.Email))
	if err := validate.Struct(reg); err != nil {
		return nil, apperr.Wrap(apperr.Validation, "invalid registration", err)
	}
	hash, err := utils.HashPassword(reg.Password)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "hash password", err)
	}
	user := &models.User{
		Username:     reg.Username,
		Email:        reg.Email,
		PasswordHash: hash,
		Image:        GravatarURL(reg.Email),
	}
	if err := a.users.Create(ctx, user); err != nil {
		if apperr.Is(err, apperr.Conflict) {
			return nil, apperr.Wrap(apperr.Conflict, "username or email already registered", err)
		}
		return nil, err
	}
	monitoring.RegisterSuccess.Inc()
	return user, nil
}

// Login checks credentials. Unknown email and wrong password look the same.
func (a *Accounts) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := a.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if apperr.Is(err, apperr.NotFound) {
		monitoring.LoginFailure.WithLabelValues("unknown_email").Inc()
		return nil, apperr.New(apperr.Unauthorized, "invalid email or password")
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		monitoring.LoginFailure.WithLabelValues("bad_password").Inc()
		return nil, apperr.New(apperr.Unauthorized, "invalid email or password")
	}
	return user, nil
}

func (a *Accounts) User(ctx context.Context, id uint) (*models.User, error) {
	return a.users.FindByID(ctx, id)
}

func (a *Accounts) ByUsername(ctx context.Context, username string) (*models.User, error) {
	return a.users.FindByUsername(ctx, username)
}
