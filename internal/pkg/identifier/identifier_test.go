package identifier

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Dragon Fire", want: "dragon-fire"},
		{in: "  --Dragon   Fire!!  ", want: "dragon-fire"},
		{in: "T-Shirt (Unisex) / Black", want: "t-shirt-unisex-black"},
		{in: "ÜBER cool", want: "ber-cool"},
		{in: "100% Cotton", want: "100-cotton"},
		{in: "!!!", want: ""},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Fatalf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRandomToken(t *testing.T) {
	tok := RandomToken(TokenLength)
	assert.Len(t, tok, TokenLength)
	assert.Regexp(t, regexp.MustCompile(`^[a-z0-9]+$`), tok)
}

func TestNewPublicIDFormat(t *testing.T) {
	now := time.UnixMilli(1718000000000)
	id := newPublicID("Dragon Fire", "abc123", now)
	assert.Equal(t, "dragon-fire-abc123-1718000000000", id)
	assert.Equal(t, "abc123", TokenOf(id))
	assert.Equal(t, "dragon-fire-abc123", Handle("Dragon Fire", id))
}

func TestHandleDerivableFromPublicID(t *testing.T) {
	for _, title := range []string{"Dragon Fire", "single", "Mega - Hoodie - XL", "", "???"} {
		publicID, handle := New(title)
		token := TokenOf(publicID)
		require.Len(t, token, TokenLength, "public id %q", publicID)
		assert.True(t, strings.HasSuffix(handle, "-"+token), "handle %q should end with token %q", handle, token)
		assert.Equal(t, handle, Handle(title, publicID))
	}
}

func TestEmptyTitleFallsBack(t *testing.T) {
	publicID, handle := New("")
	assert.True(t, strings.HasPrefix(publicID, "product-"))
	assert.True(t, strings.HasPrefix(handle, "product-"))
}

func TestLongTitleFitsColumns(t *testing.T) {
	title := strings.Repeat("ab ", 100)
	publicID, handle := New(title)

	assert.LessOrEqual(t, len(publicID), 191)
	assert.LessOrEqual(t, len(handle), 191)
	assert.Len(t, TokenOf(publicID), TokenLength)
	assert.Equal(t, handle, Handle(title, publicID))
	assert.NotContains(t, publicID, "--")

	slug := slugOrFallback(title)
	assert.LessOrEqual(t, len(slug), MaxSlugLength)
	assert.False(t, strings.HasSuffix(slug, "-"))
}

func TestTokenOfShortInput(t *testing.T) {
	assert.Equal(t, "", TokenOf("nohyphen"))
	assert.Equal(t, "", TokenOf("a-b"))
}
