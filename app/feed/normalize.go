package feed

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// Query parameters that only identify the click, not the content.
var trackingParams = []string{
	"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
	"gclid", "fbclid", "yclid", "igshid",
}

// Alternate hostnames rewritten to their primary form.
var hostRewrites = map[string]string{
	"m.youtube.com":      "www.youtube.com",
	"youtube.com":        "www.youtube.com",
	"mobile.twitter.com": "twitter.com",
	"m.facebook.com":     "www.facebook.com",
}

// Redirector hosts whose query carries the real article URL.
var redirectorParams = map[string]string{
	"news.google.com": "url",
}

const maxUnwrapDepth = 3

// Normalize canonicalizes a URL for use as a dedup key. It returns "" for
// anything unparseable, which callers treat as "skip this item".
func Normalize(raw string) string {
	return normalize(raw, maxUnwrapDepth)
}

func normalize(raw string, depth int) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return ""
	}

	host := strings.ToLower(u.Hostname())

	// Aggregator links embed the original article URL in the query
	if param, ok := redirectorParams[strings.TrimPrefix(host, "www.")]; ok && depth > 0 {
		if orig := u.Query().Get(param); orig != "" {
			if unwrapped := normalize(orig, depth-1); unwrapped != "" {
				return unwrapped
			}
		}
	}

	// Short-link expansion
	if host == "youtu.be" {
		if id := strings.Trim(u.Path, "/"); id != "" {
			return "https://www.youtube.com/watch?v=" + id
		}
	}

	if rewrite, ok := hostRewrites[host]; ok {
		host = rewrite
	}
	if port := u.Port(); port != "" {
		u.Host = host + ":" + port
	} else {
		u.Host = host
	}

	u.Fragment = ""

	q := u.Query()
	for _, k := range trackingParams {
		q.Del(k)
	}
	u.RawQuery = q.Encode()

	// Collapse AMP path variants
	if strings.HasSuffix(u.Path, "/amp/") {
		u.Path = strings.TrimSuffix(u.Path, "amp/")
	} else {
		u.Path = strings.TrimSuffix(u.Path, "/amp")
	}

	return u.String()
}

// Fingerprint returns the hex sha256 of a canonical URL. It is used only for
// set-membership tests, never reversed.
func Fingerprint(canonicalURL string) string {
	hash := sha256.Sum256([]byte(canonicalURL))
	return hex.EncodeToString(hash[:])
}

// Host returns the lowercased hostname of a URL without a leading "www.",
// or "" when the URL does not parse.
func Host(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
