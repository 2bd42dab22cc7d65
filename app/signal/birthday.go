package signal

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"golang.org/x/text/width"
)

const dateLayout = "2006-01-02"

var (
	// 9月3日（15日齢）: month/day plus an age-in-days statement
	ageStatementRe = regexp.MustCompile(`(\d{1,2})\s*月\s*(\d{1,2})\s*日[^0-9]{0,3}(\d{1,3})\s*日齢`)
	ageOnlyRe      = regexp.MustCompile(`(\d{1,3})\s*日齢`)

	isoDateRe    = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
	jpFullDateRe = regexp.MustCompile(`(\d{4})\s*年\s*(\d{1,2})\s*月\s*(\d{1,2})\s*日?`)
	jpShortRe    = regexp.MustCompile(`(\d{1,2})\s*月\s*(\d{1,2})\s*日`)
)

// narrow folds full-width digits and punctuation to their ASCII forms so the
// date regexes work on titles written either way.
func narrow(s string) string {
	return width.Narrow.String(s)
}

// ExtractAgeDays returns the N from an "N日齢" (N days old) statement.
func ExtractAgeDays(title string) *int {
	m := ageOnlyRe.FindStringSubmatch(narrow(title))
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}

// InferBirthdayFromAge handles "(month)/(day), N days old" phrases: the
// month/day anchors a reference date in the reference timestamp's year, and
// the birthday is N days before it. A reference date that would land in the
// future relative to the timestamp re-anchors to the timestamp's own date,
// which guards against year-boundary mistakes when the stated month/day has
// not occurred yet this year.
func InferBirthdayFromAge(title string, ref time.Time) (string, bool) {
	m := ageStatementRe.FindStringSubmatch(narrow(title))
	if m == nil {
		return "", false
	}

	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	ageDays, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}

	anchor := time.Date(ref.Year(), time.Month(month), day, 0, 0, 0, 0, ref.Location())
	if anchor.After(ref) {
		anchor = time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	}

	return anchor.AddDate(0, 0, -ageDays).Format(dateLayout), true
}

// ParseDateInTitle extracts an explicit date from free text: ISO form, a full
// Japanese date, or a year-less Japanese date anchored to the reference year.
func ParseDateInTitle(text string, ref time.Time) (string, bool) {
	folded := narrow(text)

	if m := isoDateRe.FindStringSubmatch(folded); m != nil {
		return fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3]), true
	}

	if m := jpFullDateRe.FindStringSubmatch(folded); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
		}
	}

	if m := jpShortRe.FindStringSubmatch(folded); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			return fmt.Sprintf("%04d-%02d-%02d", ref.Year(), month, day), true
		}
	}

	return "", false
}

// InferBirthday resolves a birthday for an event title, in trust order:
// explicit age arithmetic, then a date written in the title, then the item's
// published timestamp. Returns "" when none apply.
func InferBirthday(title string, publishedAt *time.Time, ref time.Time) string {
	if birthday, ok := InferBirthdayFromAge(title, ref); ok {
		return birthday
	}
	if birthday, ok := ParseDateInTitle(title, ref); ok {
		return birthday
	}
	if publishedAt != nil {
		return publishedAt.In(ref.Location()).Format(dateLayout)
	}
	return ""
}
