package preview

import (
	"log/slog"
	"strings"

	"eyestock/app/util/urlx"

	"github.com/PuerkitoBio/goquery"
	"github.com/dyatlov/go-opengraph/opengraph"
)

// Extract builds a LinkPreviewMeta from a page body. It never fails: every field except URL may be empty.
func Extract(page, sourceURL string) LinkPreviewMeta {
	og := opengraph.NewOpenGraph()
	if err := og.ProcessHTML(strings.NewReader(page)); err != nil {
		slog.Debug("OpenGraph parse failed", "url", sourceURL, "error", err)
	}

	doc := parseDocument(page)
	domain := urlx.Domain(sourceURL)

	return LinkPreviewMeta{
		URL: sourceURL,
		Title: firstNonEmpty(
			clean(og.Title),
			metaValue(doc, "og:title"),
			metaValue(doc, "twitter:title"),
			clean(doc.Find("title").First().Text()),
			domain,
		),
		Description: firstNonEmpty(
			clean(og.Description),
			metaValue(doc, "og:description"),
			metaValue(doc, "description"),
			metaValue(doc, "twitter:description"),
		),
		SiteName: firstNonEmpty(
			clean(og.SiteName),
			metaValue(doc, "og:site_name"),
			domain,
		),
		Image: urlx.Absolute(sourceURL, firstNonEmpty(
			metaValue(doc, "og:image"),
			metaValue(doc, "og:image:url"),
			metaValue(doc, "og:image:secure_url"),
			metaValue(doc, "twitter:image"),
			metaValue(doc, "twitter:image:src"),
		)),
		Favicon: urlx.Absolute(sourceURL, favicon(doc)),
	}
}

// MetaRefreshTarget returns the absolute target of a <meta http-equiv="refresh"> redirect, if the page has one.
func MetaRefreshTarget(page, sourceURL string) (string, bool) {
	doc := parseDocument(page)

	var target string
	doc.Find("meta[content]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		equiv, _ := s.Attr("http-equiv")
		if !strings.EqualFold(strings.TrimSpace(equiv), "refresh") {
			return true
		}

		content, _ := s.Attr("content")
		target = refreshURL(content)
		return target == ""
	})

	if target == "" {
		return "", false
	}

	abs := urlx.Absolute(sourceURL, target)
	return abs, abs != ""
}

func refreshURL(content string) string {
	idx := strings.Index(strings.ToLower(content), "url=")
	if idx < 0 {
		return ""
	}

	value := strings.TrimSpace(content[idx+len("url="):])
	value = strings.Trim(value, `"'`)
	if end := strings.IndexAny(value, `;"'>`); end >= 0 {
		value = value[:end]
	}

	return strings.TrimSpace(value)
}

func parseDocument(page string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		slog.Debug("HTML parse failed", "error", err)
		doc, _ = goquery.NewDocumentFromReader(strings.NewReader(""))
	}

	return doc
}

// metaValue finds the content of the first <meta> whose property or name equals key.
func metaValue(doc *goquery.Document, key string) string {
	var result string

	doc.Find("meta[content]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		property, _ := s.Attr("property")
		name, _ := s.Attr("name")
		if !strings.EqualFold(property, key) && !strings.EqualFold(name, key) {
			return true
		}

		content, _ := s.Attr("content")
		result = clean(content)
		return result == ""
	})

	return result
}

func favicon(doc *goquery.Document) string {
	var result string

	doc.Find("link[rel][href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		rel, _ := s.Attr("rel")
		rel = strings.ToLower(strings.Join(strings.Fields(rel), " "))
		if rel != "icon" && rel != "shortcut icon" {
			return true
		}

		href, _ := s.Attr("href")
		result = strings.TrimSpace(href)
		return result == ""
	})

	return result
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
