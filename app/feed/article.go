package feed

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
)

// ArticleParser extracts Open Graph metadata from a single article page.
type ArticleParser struct{}

func NewArticleParser() *ArticleParser {
	return &ArticleParser{}
}

// Run parses one HTML document fetched from fetchURL. og:url wins over the
// fetch URL when present; a missing og:title yields the page <title>.
func (p *ArticleParser) Run(data []byte, fetchURL string) (Item, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return Item{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	title := metaContent(doc, "og:title")
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	pageURL := metaContent(doc, "og:url")
	if pageURL == "" {
		pageURL = fetchURL
	}
	normalized := Normalize(pageURL)
	if normalized == "" {
		normalized = Normalize(fetchURL)
	}
	if normalized == "" {
		return Item{}, fmt.Errorf("no usable URL in article page")
	}

	item := Item{
		Title:      title,
		URL:        normalized,
		Thumbnail:  metaContent(doc, "og:image"),
		SourceName: Host(normalized),
	}

	if published := p.extractPublished(doc); published != nil {
		item.PublishedAt = published
	}

	return item, nil
}

func (p *ArticleParser) extractPublished(doc *goquery.Document) *time.Time {
	candidates := []string{
		metaContent(doc, "article:published_time"),
	}
	if datetime, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
		candidates = append(candidates, datetime)
	}

	for _, raw := range candidates {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if parsed, err := dateparse.ParseAny(raw); err == nil {
			return &parsed
		}
	}
	return nil
}

func metaContent(doc *goquery.Document, property string) string {
	selector := fmt.Sprintf(`meta[property=%q], meta[name=%q]`, property, property)
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

// ExtractLinks harvests same-domain anchors from a listing page, resolved
// against baseURL and normalized. Off-domain links are discarded so the
// crawler never follows outbound references to unrelated sites.
func ExtractLinks(data []byte, baseURL string) ([]Link, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}
	baseHost := Host(baseURL)

	seen := make(map[string]bool)
	var links []Link

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		resolved := base.ResolveReference(ref)

		normalized := Normalize(resolved.String())
		if normalized == "" || Host(normalized) != baseHost {
			return
		}
		if normalized == Normalize(baseURL) || seen[normalized] {
			return
		}
		seen[normalized] = true

		links = append(links, Link{
			URL:  normalized,
			Text: strings.TrimSpace(sel.Text()),
		})
	})

	return links, nil
}
