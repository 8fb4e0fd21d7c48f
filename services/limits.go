package services

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/cppla/pubfeed/apperr"
	"github.com/cppla/pubfeed/config"
)

// Limits bounds user input and listing windows. Lengths count runes.
type Limits struct {
	TitleMin     int
	TitleMax     int
	BodyMin      int
	BodyMax      int
	CommentMax   int
	TagMax       int
	DefaultLimit int
	MaxLimit     int
	LockTimeout  time.Duration
	TagCacheTTL  time.Duration
}

// LimitsFromConfig copies the content and listing settings out of cfg.
func LimitsFromConfig(cfg config.AppConfig) Limits {
	return Limits{
		TitleMin:     cfg.PostTitleMin,
		TitleMax:     cfg.PostTitleMax,
		BodyMin:      cfg.PostBodyMin,
		BodyMax:      cfg.PostBodyMax,
		CommentMax:   cfg.CommentBodyMax,
		TagMax:       cfg.TagMax,
		DefaultLimit: cfg.FeedDefaultLimit,
		MaxLimit:     cfg.FeedMaxLimit,
		LockTimeout:  time.Duration(cfg.LockTimeoutMs) * time.Millisecond,
		TagCacheTTL:  time.Duration(cfg.TagCacheTTLSeconds) * time.Second,
	}
}

// DefaultLimits returns the limits of a default configuration.
func DefaultLimits() Limits {
	return LimitsFromConfig(config.Defaults())
}

var handlePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateHandle reports whether a username is usable in URLs.
func ValidateHandle(fl validator.FieldLevel) bool {
	return handlePattern.MatchString(fl.Field().String())
}

var validate = func() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("handle", ValidateHandle)
	return v
}()

// checkLength fails with a Validation error unless value has min..max runes.
func checkLength(field, value string, min, max int) error {
	if err := validate.Var(value, fmt.Sprintf("min=%d,max=%d", min, max)); err != nil {
		return apperr.New(apperr.Validation,
			fmt.Sprintf("%s must be between %d and %d characters", field, min, max))
	}
	return nil
}

// cleanTags keeps tags exactly as given, order and duplicates included, and
// rejects blank or oversized ones.
func cleanTags(tags []string, max int) ([]string, error) {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if strings.TrimSpace(t) == "" {
			return nil, apperr.New(apperr.Validation, "tag must not be blank")
		}
		if err := checkLength("tag", t, 1, max); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
