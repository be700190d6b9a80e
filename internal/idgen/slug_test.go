package idgen

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Fix the Login Page!", "fix-the-login-page"},
		{"v1.0 release", "v1-0-release"},
		{"  spaced   out  ", "spaced-out"},
		{"!!!", "untitled"},
		{"", "untitled"},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSlugifyTruncatesAtWordBoundary(t *testing.T) {
	title := strings.Repeat("longword ", 12)
	slug := Slugify(title)
	if len(slug) > maxSlugLength {
		t.Fatalf("slug too long: %d", len(slug))
	}
	if strings.HasSuffix(slug, "-") || !strings.HasSuffix(slug, "longword") {
		t.Fatalf("slug not cut at a word boundary: %q", slug)
	}
}
