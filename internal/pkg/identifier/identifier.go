// Package identifier derives the public id and URL handle of mirrored products.
//
// A public id looks like "dragon-fire-k3x9qa-1718000000000": the slugified
// title, a random token and the creation time in unix milliseconds. The handle
// reuses the slug and the same token ("dragon-fire-k3x9qa"), so it can always be
// recomputed from the public id.
package identifier

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const (
	TokenLength = 6
	// MaxSlugLength keeps public ids within a VARCHAR(191) column.
	MaxSlugLength = 150
	tokenAlpha    = "abcdefghijklmnopqrstuvwxyz0123456789"
	fallbackSlug  = "product"
)

// Slugify lowercases s and collapses every run of non [a-z0-9] characters into
// a single hyphen, trimming hyphens at both ends.
func Slugify(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// RandomToken returns n characters drawn from [a-z0-9] using crypto/rand.
func RandomToken(n int) string {
	out := make([]byte, n)
	max := big.NewInt(int64(len(tokenAlpha)))
	for i := range out {
		v, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand does not fail on supported platforms
			panic(err)
		}
		out[i] = tokenAlpha[v.Int64()]
	}
	return string(out)
}

func slugOrFallback(title string) string {
	s := Slugify(title)
	if len(s) > MaxSlugLength {
		s = strings.TrimRight(s[:MaxSlugLength], "-")
	}
	if s == "" {
		return fallbackSlug
	}
	return s
}

// PublicID builds slug-token-unixMillis for title.
func PublicID(title string) string {
	return newPublicID(title, RandomToken(TokenLength), time.Now())
}

func newPublicID(title, token string, now time.Time) string {
	return slugOrFallback(title) + "-" + token + "-" + strconv.FormatInt(now.UnixMilli(), 10)
}

// TokenOf extracts the random token segment of a public id. The slug may
// contain hyphens itself, so the token is the second to last segment.
func TokenOf(publicID string) string {
	parts := strings.Split(publicID, "-")
	if len(parts) < 3 {
		return ""
	}
	return parts[len(parts)-2]
}

// Handle derives the URL slug for title from an already generated public id.
func Handle(title, publicID string) string {
	return slugOrFallback(title) + "-" + TokenOf(publicID)
}

// New returns a fresh public id and its matching handle.
func New(title string) (publicID, handle string) {
	publicID = PublicID(title)
	return publicID, Handle(title, publicID)
}
