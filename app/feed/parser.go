package feed

import (
	"bytes"
	"fmt"

	"github.com/mmcdole/gofeed"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run parses RSS/Atom bytes into the uniform Item shape. Entries without a
// usable canonical URL are dropped silently; feeds routinely contain
// malformed entries and a partial result is still useful.
func (p *Parser) Run(data []byte) ([]Item, error) {
	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]Item, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		item, ok := p.normalizeEntry(entry)
		if !ok {
			continue
		}
		items = append(items, item)
	}

	return items, nil
}

func (p *Parser) normalizeEntry(entry *gofeed.Item) (Item, bool) {
	link := entry.Link
	if link == "" {
		link = entry.GUID
	}

	normalized := Normalize(link)
	if normalized == "" {
		return Item{}, false
	}

	item := Item{
		Title:      entry.Title,
		URL:        normalized,
		Thumbnail:  p.extractThumbnail(entry),
		SourceName: Host(normalized),
	}

	if entry.PublishedParsed != nil {
		item.PublishedAt = entry.PublishedParsed
	} else if entry.UpdatedParsed != nil {
		item.PublishedAt = entry.UpdatedParsed
	}

	return item, true
}

// extractThumbnail checks media:thumbnail (YouTube channel feeds), then the
// first enclosure, then the item image.
func (p *Parser) extractThumbnail(entry *gofeed.Item) string {
	if media, ok := entry.Extensions["media"]; ok {
		for _, name := range []string{"thumbnail", "content"} {
			for _, ext := range media[name] {
				if url := ext.Attrs["url"]; url != "" {
					return url
				}
			}
		}
		// YouTube wraps media:thumbnail in media:group
		for _, group := range media["group"] {
			for _, ext := range group.Children["thumbnail"] {
				if url := ext.Attrs["url"]; url != "" {
					return url
				}
			}
		}
	}

	for _, enclosure := range entry.Enclosures {
		if enclosure != nil && enclosure.URL != "" {
			return enclosure.URL
		}
	}

	if entry.Image != nil {
		return entry.Image.URL
	}

	return ""
}
