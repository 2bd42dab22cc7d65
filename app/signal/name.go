package signal

import (
	"regexp"
	"unicode"
	"unicode/utf8"
)

// Name patterns are tried in specificity order, first match wins: an explicit
// naming phrase beats an honorific suffix beats a bare quoted token.
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`「([^「」]{1,15})」と命名`),
	regexp.MustCompile(`命名[^「」]{0,6}「([^「」]{1,15})」`),
	regexp.MustCompile(`名前は「([^「」]{1,15})」`),
	regexp.MustCompile(`「([^「」]{1,15})」(?:ちゃん|くん)`),
	regexp.MustCompile(`([\p{Hiragana}\p{Katakana}ー]{1,8})(?:ちゃん|くん)`),
	regexp.MustCompile(`「([^「」]{1,15})」`),
}

// Generic words that quote or suffix like a name but never are one.
var genericNames = map[string]bool{
	"赤ちゃん": true,
	"あか":   true,
	"ベビー":  true,
	"赤仔":   true,
	"名前":   true,
	"命名":   true,
	"お母さん": true,
	"かあ":   true,
}

const maxNameRunes = 10

// ExtractName pulls an individual name out of a title, or "" when no pattern
// produces a plausible one.
func ExtractName(title string) string {
	for _, pattern := range namePatterns {
		for _, m := range pattern.FindAllStringSubmatch(title, -1) {
			if name := m[1]; validName(name) {
				return name
			}
		}
	}
	return ""
}

func validName(name string) bool {
	if name == "" || genericNames[name] {
		return false
	}
	if utf8.RuneCountInString(name) > maxNameRunes {
		return false
	}
	for _, r := range name {
		switch {
		case unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Han, unicode.Latin):
		case r == 'ー' || r == '・':
		default:
			return false
		}
	}
	return true
}
