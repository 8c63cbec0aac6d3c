package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Publication date patterns in priority order. The portal byline forms
// outrank the generic date forms so an article's own timestamp wins over
// dates mentioned in its text.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`鉅亨網新聞中心\s*(\d{4})-(\d{1,2})-(\d{1,2})\s+\d{1,2}:\d{2}`),
	regexp.MustCompile(`\*\s*(\d{4})-(\d{1,2})-(\d{1,2})\s+\d{1,2}:\d{2}`),
	regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})\s+\d{1,2}:\d{2}`),
	regexp.MustCompile(`(\d{4})年(\d{1,2})月(\d{1,2})日`),
	regexp.MustCompile(`(\d{4})/(\d{1,2})/(\d{1,2})`),
}

// ExtractDate finds the publication date of an article body, returning
// YYYY/MM/DD or empty when no valid date is present. A leading artifact
// header block is stripped first so ingest metadata is never mistaken for
// a publication date.
func ExtractDate(body string) string {
	body = StripHeaderBlock(body)

	for _, pattern := range datePatterns {
		for _, match := range pattern.FindAllStringSubmatch(body, -1) {
			year, _ := strconv.Atoi(match[1])
			month, _ := strconv.Atoi(match[2])
			day, _ := strconv.Atoi(match[3])
			if validDate(year, month, day) {
				return fmt.Sprintf("%04d/%02d/%02d", year, month, day)
			}
		}
	}
	return ""
}

// validDate bounds the year to the plausible publication window and
// requires a constructible calendar date.
func validDate(year, month, day int) bool {
	if year < 2020 || year > 2030 || month < 1 || month > 12 || day < 1 || day > 31 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Year() == year && int(t.Month()) == month && t.Day() == day
}
