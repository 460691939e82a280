package preview

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractOpenGraph(t *testing.T) {
	page := `<html><head>
<title>Plain title</title>
<meta property="og:title" content="OG title">
<meta property="og:description" content="OG description">
<meta property="og:image" content="/images/hero.png">
<link rel="icon" href="/favicon.ico">
</head><body></body></html>`

	meta := Extract(page, "https://a.com/x")

	assert.Equal(t, "https://a.com/x", meta.URL)
	assert.Equal(t, "OG title", meta.Title)
	assert.Equal(t, "OG description", meta.Description)
	assert.Equal(t, "a.com", meta.SiteName)
	assert.Equal(t, "https://a.com/images/hero.png", meta.Image)
	assert.Equal(t, "https://a.com/favicon.ico", meta.Favicon)
}

func TestExtractTitlePriority(t *testing.T) {
	tests := []struct {
		name string
		page string
		want string
	}{
		{
			name: "og beats twitter and title",
			page: `<head><title>T</title><meta name="twitter:title" content="TW"><meta property="og:title" content="OG"></head>`,
			want: "OG",
		},
		{
			name: "twitter beats title",
			page: `<head><title>T</title><meta name="twitter:title" content="TW"></head>`,
			want: "TW",
		},
		{
			name: "title tag",
			page: `<head><title>
  Spaced   title </title></head>`,
			want: "Spaced title",
		},
		{
			name: "domain fallback",
			page: `<head></head>`,
			want: "example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.page, "https://www.example.com/a").Title)
		})
	}
}

func TestExtractDescriptionPriority(t *testing.T) {
	page := `<head>
<meta name="twitter:description" content="TW">
<meta name="description" content="STD">
</head>`
	assert.Equal(t, "STD", Extract(page, "https://a.com").Description)

	page = `<head><meta name="twitter:description" content="TW"></head>`
	assert.Equal(t, "TW", Extract(page, "https://a.com").Description)

	assert.Empty(t, Extract(`<head></head>`, "https://a.com").Description)
}

func TestExtractSiteName(t *testing.T) {
	page := `<head><meta property="og:site_name" content="머니투데이"></head>`
	assert.Equal(t, "머니투데이", Extract(page, "https://news.mt.co.kr/x").SiteName)

	assert.Equal(t, "yna.co.kr", Extract(`<head></head>`, "https://www.yna.co.kr/view/1").SiteName)
}

func TestExtractImagePriority(t *testing.T) {
	tests := []struct {
		name string
		page string
		want string
	}{
		{
			name: "og:image:url",
			page: `<meta property="og:image:secure_url" content="https://s.com/secure.png"><meta property="og:image:url" content="https://s.com/url.png">`,
			want: "https://s.com/url.png",
		},
		{
			name: "og:image:secure_url beats twitter",
			page: `<meta name="twitter:image" content="https://s.com/tw.png"><meta property="og:image:secure_url" content="https://s.com/secure.png">`,
			want: "https://s.com/secure.png",
		},
		{
			name: "twitter:image",
			page: `<meta name="twitter:image:src" content="https://s.com/src.png"><meta name="twitter:image" content="https://s.com/tw.png">`,
			want: "https://s.com/tw.png",
		},
		{
			name: "twitter:image:src",
			page: `<meta name="twitter:image:src" content="img/src.png">`,
			want: "https://a.com/news/img/src.png",
		},
		{
			name: "absent",
			page: `<meta name="description" content="x">`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract("<head>"+tt.page+"</head>", "https://a.com/news/1").Image)
		})
	}
}

func TestExtractFavicon(t *testing.T) {
	page := `<head><link rel="stylesheet" href="/s.css"><link rel="shortcut icon" href="https://cdn.a.com/f.ico"></head>`
	assert.Equal(t, "https://cdn.a.com/f.ico", Extract(page, "https://a.com").Favicon)

	page = `<head><link rel="apple-touch-icon" href="/t.png"></head>`
	assert.Empty(t, Extract(page, "https://a.com").Favicon)
}

func TestExtractMalformedHTML(t *testing.T) {
	meta := Extract(`<<<meta property="og:title" content=broken <title>unterminated`, "https://a.com/x")

	assert.Equal(t, "https://a.com/x", meta.URL)
	assert.NotPanics(t, func() { Extract("", "") })
	assert.Empty(t, Extract("", "").Title)
}

func TestMetaRefreshTarget(t *testing.T) {
	page := `<head><meta http-equiv="Refresh" content="0; URL='/moved/here'"></head>`

	target, ok := MetaRefreshTarget(page, "https://a.com/old")
	assert.True(t, ok)
	assert.Equal(t, "https://a.com/moved/here", target)

	_, ok = MetaRefreshTarget(`<head><meta http-equiv="refresh" content="30"></head>`, "https://a.com")
	assert.False(t, ok)

	_, ok = MetaRefreshTarget(`<head><title>x</title></head>`, "https://a.com")
	assert.False(t, ok)
}
