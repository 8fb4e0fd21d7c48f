package services

import (
	"math/rand"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
)

const suffixSpace = 36 * 36 * 36 * 36 * 36 * 36

// slugSuffix returns six base-36 characters. Replaced in tests.
var slugSuffix = func() string {
	s := strconv.FormatInt(rand.Int63n(suffixSpace), 36)
	return strings.Repeat("0", 6-len(s)) + s
}

// NewSlug derives a URL-safe slug from title with a random disambiguator.
func NewSlug(title string) string {
	base := slug.Make(title)
	if base == "" {
		base = "post"
	}
	return base + "-" + slugSuffix()
}
