package urlx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomain(t *testing.T) {
	assert.Equal(t, "a.com", Domain("https://a.com/x"))
	assert.Equal(t, "yna.co.kr", Domain("https://www.yna.co.kr/view/1"))
	assert.Equal(t, "", Domain("::not a url"))
}

func TestFilterValidKeepsOrder(t *testing.T) {
	got := FilterValid([]string{
		"https://b.com/1",
		"not a url",
		"ftp://c.com/file",
		"http://a.com/2",
		"https://",
	})

	assert.Equal(t, []string{"https://b.com/1", "http://a.com/2"}, got)
}

func TestAbsolute(t *testing.T) {
	tests := []struct {
		base, maybe, want string
	}{
		{"https://a.com/x/y", "/img.png", "https://a.com/img.png"},
		{"https://a.com/x/y", "img.png", "https://a.com/x/img.png"},
		{"https://a.com/x", "//cdn.a.com/i.png", "https://cdn.a.com/i.png"},
		{"https://a.com/x", "https://b.com/i.png", "https://b.com/i.png"},
		{"https://a.com/x", "", ""},
		{"https://a.com/x", "javascript:void(0)", ""},
		{"not absolute", "/img.png", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Absolute(tt.base, tt.maybe), "Absolute(%q, %q)", tt.base, tt.maybe)
	}
}
