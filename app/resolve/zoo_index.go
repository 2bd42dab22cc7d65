package resolve

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sobako/babywatch/app/feed"
	"github.com/sobako/babywatch/app/store"
)

// Variants shorter than this are too likely to be substrings of unrelated
// words to be trusted.
const minVariantRunes = 3

// ZooIndex is built fresh for every resolution batch from the persisted zoo
// list and the registered site sources. It holds no ambient state.
type ZooIndex struct {
	byHost   map[string]string
	variants []nameVariant // sorted longest first
}

type nameVariant struct {
	zooID   string
	variant string
}

func BuildZooIndex(zoos []store.Zoo, siteSources []store.Source) *ZooIndex {
	index := &ZooIndex{
		byHost: make(map[string]string),
	}

	for _, source := range siteSources {
		if source.ZooID == nil {
			continue
		}
		if host := feed.Host(source.URL); host != "" {
			index.byHost[host] = *source.ZooID
		}
	}

	for _, zoo := range zoos {
		if zoo.OfficialSite != nil {
			if host := feed.Host(*zoo.OfficialSite); host != "" {
				index.byHost[host] = zoo.ID
			}
		}

		for _, variant := range nameVariants(zoo.Name) {
			index.variants = append(index.variants, nameVariant{zooID: zoo.ID, variant: variant})
		}
	}

	// Longest variant first, so a specific name beats a generic substring
	sort.SliceStable(index.variants, func(i, j int) bool {
		return utf8.RuneCountInString(index.variants[i].variant) > utf8.RuneCountInString(index.variants[j].variant)
	})

	return index
}

// Guess returns the zoo an item most likely refers to: a hostname lookup
// first (cheap, high precision), then the longest zoo-name variant found in
// the title. Returns nil when neither applies.
func (ix *ZooIndex) Guess(title, url string) *string {
	if host := feed.Host(url); host != "" {
		if zooID, ok := ix.byHost[host]; ok {
			return &zooID
		}
	}

	folded := foldName(title)
	for _, candidate := range ix.variants {
		if strings.Contains(folded, candidate.variant) {
			zooID := candidate.zooID
			return &zooID
		}
	}

	return nil
}

// nameVariants returns the raw name and a parenthetical-stripped version,
// folded for matching and filtered to a minimum length.
func nameVariants(name string) []string {
	seen := make(map[string]bool)
	var variants []string

	for _, candidate := range []string{name, stripParentheticals(name)} {
		folded := foldName(candidate)
		if utf8.RuneCountInString(folded) < minVariantRunes || seen[folded] {
			continue
		}
		seen[folded] = true
		variants = append(variants, folded)
	}

	return variants
}

// foldName lowercases and drops whitespace and punctuation so slightly
// different renderings of the same zoo name still match.
func foldName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func stripParentheticals(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch r {
		case '(', '（':
			depth++
		case ')', '）':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				b.WriteRune(r)
			}
		}
	}
	return strings.TrimSpace(b.String())
}
